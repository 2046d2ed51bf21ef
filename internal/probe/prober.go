// Package probe checks whether candidates resolve and answer over HTTP.
package probe

import (
	"context"
	"sync"
)

const DefaultWorkers = 20

// Record is the outcome of probing one candidate. Nil fields were not
// obtained and serialize as null.
type Record struct {
	IP         *string `json:"ip"`
	CNAME      *string `json:"cname"`
	HTTPStatus *int    `json:"http_status"`
}

// Active reports whether the candidate produced any HTTP response. 4xx and
// 5xx count: the host answered.
func (r Record) Active() bool { return r.HTTPStatus != nil && *r.HTTPStatus < 600 }

type StatusChecker interface {
	Status(ctx context.Context, host string) (int, error)
}

// Results holds every probed candidate and the active subset.
type Results struct {
	All    map[string]Record
	Active map[string]Record
}

type Prober struct {
	Resolver Resolver
	Checker  StatusChecker
	Workers  int
	// OnRecord, if set, is called from the collecting goroutine after each
	// record is stored.
	OnRecord func(name string, rec Record)
}

type result struct {
	name string
	rec  Record
}

// Probe resolves and checks every candidate with a bounded pool of workers.
// Workers only send results; this goroutine alone fills the maps.
func (p *Prober) Probe(ctx context.Context, candidates []string) Results {
	res := Results{
		All:    make(map[string]Record, len(candidates)),
		Active: make(map[string]Record),
	}
	if len(candidates) == 0 {
		return res
	}

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan string)
	results := make(chan result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				results <- result{name: name, rec: p.probeOne(ctx, name)}
			}
		}()
	}
	go func() {
		for _, name := range candidates {
			jobs <- name
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		res.All[r.name] = r.rec
		if r.rec.Active() {
			res.Active[r.name] = r.rec
		}
		if p.OnRecord != nil {
			p.OnRecord(r.name, r.rec)
		}
	}
	return res
}

func (p *Prober) probeOne(ctx context.Context, name string) Record {
	var rec Record
	ip, err := p.Resolver.LookupIPv4(ctx, name)
	if err != nil || ip == "" {
		return rec
	}
	rec.IP = &ip
	if cname, err := p.Resolver.LookupCNAME(ctx, name); err == nil && cname != "" {
		rec.CNAME = &cname
	}
	if status, err := p.Checker.Status(ctx, name); err == nil {
		rec.HTTPStatus = &status
	}
	return rec
}
