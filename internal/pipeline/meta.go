package pipeline

import (
	"subrecon/internal/probe"
	"subrecon/internal/recon"
	"subrecon/internal/report"
)

const TimestampLayout = "20060102_150405"

func buildMetadata(ts, domain string, tools []string, candidates recon.Set, res probe.Results) report.Metadata {
	return report.Metadata{
		Timestamp: ts,
		Domain:    domain,
		Tools:     tools,
		Stats: report.Stats{
			Total:  len(candidates),
			Active: len(res.Active),
			Level2: len(recon.Level(candidates, 2)),
			Level3: len(recon.Level(candidates, 3)),
		},
	}
}
