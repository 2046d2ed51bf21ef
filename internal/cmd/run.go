package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"subrecon/internal/config"
	"subrecon/internal/logging"
	"subrecon/internal/pipeline"
	"subrecon/internal/probe"
	"subrecon/internal/tool"
)

var noProgress bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enumerate, probe and report subdomains of --domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadTargetConfig(cmd)
		if err != nil {
			return err
		}
		log := logging.New(os.Stdout, verbose)
		log.Info().Str("stage", "run").Str("domain", domain).Msg("starting target")

		p := newPipeline(cfg, log)
		sum, err := p.Run(context.Background(), pipeline.Target{Domain: domain, Output: cfg.Output})
		if err != nil {
			return fmt.Errorf("write reports for %s: %w", domain, err)
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

func init() {
	addTargetFlags(runCmd)
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the probing progress bar")
}

func newPipeline(cfg *config.Config, log zerolog.Logger) *pipeline.Pipeline {
	var resolver probe.Resolver = probe.SystemResolver{Timeout: cfg.Limits.DNSTimeout()}
	if len(cfg.DNS.Servers) > 0 {
		resolver = probe.NewDNSResolver(cfg.DNS.Servers, cfg.Limits.DNSTimeout())
	}
	p := &pipeline.Pipeline{
		Log:    log,
		Tools:  cfg.Tools,
		Runner: tool.NewRunner(log, cfg.Limits),
		Prober: &probe.Prober{
			Resolver: resolver,
			Checker:  probe.NewChecker(cfg.Limits.HTTPTimeout()),
			Workers:  cfg.Limits.Workers,
		},
	}
	if !noProgress {
		p.Progress = progress
	}
	return p
}

func progress(total int) func(string, probe.Record) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("probing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
	return func(string, probe.Record) { _ = bar.Add(1) }
}

func printSummary(w io.Writer, sum *pipeline.Summary) {
	s := sum.Metadata.Stats
	fmt.Fprintf(w, "%s total: %s | active: %s | level2: %d | level3: %d\n",
		color.CyanString("[%s]", sum.Metadata.Domain),
		color.GreenString("%d", s.Total),
		color.GreenString("%d", s.Active),
		s.Level2, s.Level3)
	for _, f := range []string{sum.Files.FullJSON, sum.Files.FullTXT, sum.Files.ActiveJSON, sum.Files.ActiveTXT} {
		fmt.Fprintf(w, "  %s\n", color.YellowString(f))
	}
}
