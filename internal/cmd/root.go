package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subrecon/internal/config"
)

var (
	cfgPath string
	domain  string
	output  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "subrecon",
	Short:         "subrecon - subdomain enumeration and liveness checks",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file path (built-in defaults if empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logs")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(doctorCmd)
}

// addTargetFlags registers --domain and --output on a command that runs the
// pipeline.
func addTargetFlags(c *cobra.Command) {
	c.Flags().StringVarP(&domain, "domain", "d", "", "Target domain")
	c.Flags().StringVarP(&output, "output", "o", config.Default().Output, "Output directory")
}

// loadConfig reads the config file.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

// loadTargetConfig is loadConfig plus the --output override and validation
// of --domain. An unset --output leaves the config file's value alone.
func loadTargetConfig(c *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if c.Flags().Changed("output") {
		cfg.Output = output
	}
	if err := cfg.CheckDomain(domain); err != nil {
		return nil, err
	}
	return cfg, nil
}
