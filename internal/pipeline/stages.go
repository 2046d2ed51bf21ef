package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subrecon/internal/config"
	"subrecon/internal/probe"
	"subrecon/internal/recon"
	"subrecon/internal/report"
	"subrecon/internal/tool"
)

// ToolRunner is satisfied by *tool.Runner.
type ToolRunner interface {
	Available(ctx context.Context, t config.Tool) bool
	Run(ctx context.Context, t config.Tool, domain string) tool.Output
}

type Target struct {
	Domain string
	Output string
}

type Pipeline struct {
	Log    zerolog.Logger
	Tools  []config.Tool
	Runner ToolRunner
	Prober *probe.Prober
	Now    func() time.Time
	// Progress, if set, is called with the candidate count before probing
	// and returns the per-record callback for that phase.
	Progress func(total int) func(name string, rec probe.Record)
}

// Summary is what a finished run produced.
type Summary struct {
	Metadata report.Metadata
	Files    report.Files
}

// Discover runs each enabled tool in turn and returns the suffix-filtered
// candidates plus the names of the tools that were available.
func (p *Pipeline) Discover(ctx context.Context, domain string) (recon.Set, []string) {
	all := recon.NewSet()
	ran := []string{}
	for _, t := range p.Tools {
		if !t.IsEnabled() {
			p.Log.Debug().Str("stage", "discover").Str("tool", t.Name).Msg("disabled in config")
			continue
		}
		if !p.Runner.Available(ctx, t) {
			p.Log.Warn().Str("stage", "discover").Str("tool", t.Name).Msg("skipping unavailable tool")
			continue
		}
		p.Log.Info().Str("stage", "discover").Str("tool", t.Name).Msg("running")
		out := p.Runner.Run(ctx, t, domain)
		found := recon.Matching(out.Text, domain)
		p.Log.Info().Str("stage", "discover").Str("tool", t.Name).Int("count", len(found)).Msg("tool finished")
		all.Merge(found)
		ran = append(ran, t.Name)
	}
	p.Log.Info().Str("stage", "discover").Int("count", len(all)).Msg("candidates before suffix filter")
	filtered := all.FilterSuffix(domain)
	p.Log.Info().Str("stage", "discover").Int("count", len(filtered)).Msg("unique candidates")
	return filtered, ran
}

// Run discovers candidates with the configured tools, probes them and
// writes the reports.
func (p *Pipeline) Run(ctx context.Context, t Target) (*Summary, error) {
	ts := p.timestamp()
	candidates, tools := p.Discover(ctx, t.Domain)
	return p.finish(ctx, t, ts, candidates, tools)
}

// RunFrom skips discovery and probes names, e.g. a list from an earlier run.
func (p *Pipeline) RunFrom(ctx context.Context, t Target, names recon.Set) (*Summary, error) {
	ts := p.timestamp()
	candidates := names.FilterSuffix(t.Domain)
	p.Log.Info().Str("stage", "load").Int("count", len(names)).Int("kept", len(candidates)).Msg("candidates loaded")
	return p.finish(ctx, t, ts, candidates, []string{})
}

func (p *Pipeline) timestamp() string {
	if p.Now != nil {
		return p.Now().Format(TimestampLayout)
	}
	return time.Now().Format(TimestampLayout)
}

func (p *Pipeline) finish(ctx context.Context, t Target, ts string, candidates recon.Set, tools []string) (*Summary, error) {
	p.Log.Info().Str("stage", "probe").Int("count", len(candidates)).Msg("resolving and checking candidates")
	if p.Progress != nil {
		p.Prober.OnRecord = p.Progress(len(candidates))
	}
	results := p.Prober.Probe(ctx, candidates.Sorted())

	meta := buildMetadata(ts, t.Domain, tools, candidates, results)
	files, err := report.Write(t.Output, meta, results)
	if err != nil {
		return nil, err
	}
	p.Log.Info().Str("stage", "report").Str("dir", t.Output).Msg("reports written")
	s := meta.Stats
	p.Log.Info().Int("total", s.Total).Int("active", s.Active).Int("level2", s.Level2).Int("level3", s.Level3).Msg("run complete")
	return &Summary{Metadata: meta, Files: files}, nil
}
