package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"subrecon/internal/config"
	"subrecon/internal/logging"
	"subrecon/internal/tool"
)

var fixPaths bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Pre-flight checks for the external enumeration tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New(os.Stdout, verbose)
		if fixPaths {
			if cfgPath == "" {
				return errors.New("--fix-paths needs --config to write to")
			}
			for i, t := range cfg.Tools {
				if _, err := exec.LookPath(t.Path); err == nil {
					continue
				}
				if found, err := exec.LookPath(t.Name); err == nil {
					cfg.Tools[i].Path = found
					log.Info().Str("tool", t.Name).Str("path", found).Msg("auto-detected path")
				}
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("update config paths: %w", err)
			}
		}

		runner := tool.NewRunner(log, cfg.Limits)
		failed := checkTools(context.Background(), cmd.OutOrStdout(), runner, cfg.Tools)
		if failed > 0 {
			return fmt.Errorf("%d tool(s) failed pre-flight checks", failed)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&fixPaths, "fix-paths", false, "Auto-detect tool paths from PATH and write back to config")
}

// checkTools prints one status line per enabled tool and returns how many
// are missing or too old.
func checkTools(ctx context.Context, w io.Writer, runner *tool.Runner, tools []config.Tool) int {
	failed := 0
	for _, t := range tools {
		if !t.IsEnabled() {
			fmt.Fprintf(w, "%s %s\n", color.HiBlackString("[SKIP]"), t.Name)
			continue
		}
		if !runner.Available(ctx, t) {
			fmt.Fprintf(w, "%s %s (%s)\n", color.RedString("[MISSING]"), t.Name, t.Path)
			failed++
			continue
		}
		if t.MinVersion == "" {
			fmt.Fprintf(w, "%s %s\n", color.GreenString("[OK]"), t.Name)
			continue
		}
		v, err := runner.Version(ctx, t)
		if err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", color.YellowString("[UNKNOWN]"), t.Name, err)
			continue
		}
		if err := tool.CheckVersion(v, t.MinVersion); err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", color.RedString("[OUTDATED]"), t.Name, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", color.GreenString("[OK]"), t.Name, v)
	}
	return failed
}
