package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"subrecon/internal/report"
)

var (
	exportInput string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a JSON report to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := report.Read(exportInput)
		if err != nil {
			return err
		}
		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return report.ExportCSV(doc, w)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "JSON report to read")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "CSV file to write (stdout if empty)")
	_ = exportCmd.MarkFlagRequired("input")
}
