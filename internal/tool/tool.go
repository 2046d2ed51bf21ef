// Package tool runs the external subdomain enumerators described by the
// configured tool table.
package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"subrecon/internal/config"
	"subrecon/internal/executil"
)

const domainPlaceholder = "{domain}"

// Output is the text a tool produced plus how its process ended.
type Output struct {
	Tool     string
	Text     string
	Status   executil.Status
	ExitCode int
}

type Runner struct {
	log          zerolog.Logger
	checkTimeout time.Duration
	runTimeout   time.Duration
	exec         func(context.Context, executil.CmdSpec) executil.Result
}

func NewRunner(log zerolog.Logger, limits config.Limits) *Runner {
	return &Runner{
		log:          log,
		checkTimeout: limits.CheckTimeout(),
		runTimeout:   limits.ToolTimeout(),
		exec:         executil.Run,
	}
}

// Command builds the argument-list invocation of t against domain.
func Command(t config.Tool, domain string, timeout time.Duration) executil.CmdSpec {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = strings.ReplaceAll(a, domainPlaceholder, domain)
	}
	return executil.CmdSpec{Path: t.Path, Args: args, Timeout: timeout, Dir: t.Dir}
}

// Available runs the tool's self-test invocation. A missing binary, a spawn
// failure or a timeout make the tool unavailable; a non-zero exit does not,
// since plenty of tools exit 1 after printing help.
func (r *Runner) Available(ctx context.Context, t config.Tool) bool {
	spec := executil.CmdSpec{Path: t.Path, Args: t.Check, Timeout: r.checkTimeout, Dir: t.Dir}
	res := r.exec(ctx, spec)
	if res.Started() {
		return true
	}
	r.log.Warn().Str("tool", t.Name).Str("status", string(res.Status)).Err(res.Err).Msg("tool not available")
	return false
}

// Run executes t against domain. Captured stdout is returned even on a
// non-zero exit; timeouts and spawn failures yield empty text.
func (r *Runner) Run(ctx context.Context, t config.Tool, domain string) Output {
	res := r.exec(ctx, Command(t, domain, r.runTimeout))
	out := Output{Tool: t.Name, Status: res.Status, ExitCode: res.ExitCode}
	switch res.Status {
	case executil.StatusOK:
		out.Text = string(res.Stdout)
	case executil.StatusExit:
		r.log.Warn().Str("tool", t.Name).Int("exit_code", res.ExitCode).
			Str("stderr", strings.TrimSpace(string(res.Stderr))).Msg("tool exited with error")
		out.Text = string(res.Stdout)
	default:
		r.log.Warn().Str("tool", t.Name).Str("status", string(res.Status)).Err(res.Err).Msg("tool execution failed")
	}
	return out
}

// Version runs the tool's version invocation and returns the first
// semantic version printed. Many tools print it to stderr, so both streams
// are scanned.
func (r *Runner) Version(ctx context.Context, t config.Tool) (*semver.Version, error) {
	if len(t.VersionArgs) == 0 {
		return nil, fmt.Errorf("%s: no version_args configured", t.Name)
	}
	spec := executil.CmdSpec{Path: t.Path, Args: t.VersionArgs, Timeout: r.checkTimeout, Dir: t.Dir}
	res := r.exec(ctx, spec)
	if !res.Started() {
		return nil, fmt.Errorf("%s version: %s: %w", t.Name, res.Status, res.Err)
	}
	for _, stream := range [][]byte{res.Stdout, res.Stderr} {
		for _, line := range strings.Split(string(stream), "\n") {
			if v, err := ParseVersion(line); err == nil {
				return v, nil
			}
		}
	}
	return nil, fmt.Errorf("%s version: no version in output", t.Name)
}

// ParseVersion extracts something that looks like vX.Y.Z from s.
func ParseVersion(s string) (*semver.Version, error) {
	for _, f := range strings.Fields(s) {
		f = strings.Trim(f, "(),:")
		if !strings.ContainsAny(f, "0123456789") || !strings.Contains(f, ".") {
			continue
		}
		if v, err := semver.NewVersion(strings.TrimPrefix(f, "v")); err == nil {
			return v, nil
		}
	}
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
}

// CheckVersion reports whether v satisfies constraint. An empty constraint
// always passes.
func CheckVersion(v *semver.Version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("version %s does not satisfy %s", v, constraint)
	}
	return nil
}
