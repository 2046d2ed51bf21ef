package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subrecon/internal/logging"
	"subrecon/internal/pipeline"
	"subrecon/internal/recon"
)

var resumeInput string

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Probe and report a candidate list from an earlier run, skipping the tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadTargetConfig(cmd)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(resumeInput)
		if err != nil {
			return err
		}
		log := logging.New(os.Stdout, verbose)
		p := newPipeline(cfg, log)
		names := recon.Matching(string(b), domain)
		sum, err := p.RunFrom(context.Background(), pipeline.Target{Domain: domain, Output: cfg.Output}, names)
		if err != nil {
			return fmt.Errorf("write reports for %s: %w", domain, err)
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

func init() {
	addTargetFlags(resumeCmd)
	resumeCmd.Flags().StringVarP(&resumeInput, "input", "i", "", "Candidate list, one name per line")
	_ = resumeCmd.MarkFlagRequired("input")
}
