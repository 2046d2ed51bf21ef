package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
)

type fakeResolver struct {
	ips    map[string]string
	cnames map[string]string
}

func (f fakeResolver) LookupIPv4(_ context.Context, host string) (string, error) {
	if ip, ok := f.ips[host]; ok {
		return ip, nil
	}
	return "", errors.New("no such host")
}

func (f fakeResolver) LookupCNAME(_ context.Context, host string) (string, error) {
	if c, ok := f.cnames[host]; ok {
		return c, nil
	}
	return "", errors.New("no alias")
}

type fakeChecker struct {
	mu     sync.Mutex
	codes  map[string]int
	called map[string]int
}

func (f *fakeChecker) Status(_ context.Context, host string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.called == nil {
		f.called = make(map[string]int)
	}
	f.called[host]++
	if c, ok := f.codes[host]; ok {
		return c, nil
	}
	return 0, errors.New("connection refused")
}

func TestProbeMixedOutcomes(t *testing.T) {
	res := fakeResolver{
		ips:    map[string]string{"y.example.com": "192.0.2.1", "z.example.com": "192.0.2.2", "e.example.com": "192.0.2.3"},
		cnames: map[string]string{"y.example.com": "lb.example.net"},
	}
	chk := &fakeChecker{codes: map[string]int{"y.example.com": 200, "e.example.com": 503}}
	p := &Prober{Resolver: res, Checker: chk, Workers: 3}

	got := p.Probe(context.Background(), []string{"x.example.com", "y.example.com", "z.example.com", "e.example.com"})

	if len(got.All) != 4 {
		t.Fatalf("all = %d records", len(got.All))
	}
	x := got.All["x.example.com"]
	if x.IP != nil || x.CNAME != nil || x.HTTPStatus != nil {
		t.Errorf("unresolved record = %+v", x)
	}
	if chk.called["x.example.com"] != 0 {
		t.Error("HTTP attempted for unresolved candidate")
	}
	y := got.All["y.example.com"]
	if y.IP == nil || *y.IP != "192.0.2.1" || y.CNAME == nil || *y.CNAME != "lb.example.net" || y.HTTPStatus == nil || *y.HTTPStatus != 200 {
		t.Errorf("y record = %+v", y)
	}
	z := got.All["z.example.com"]
	if z.IP == nil || z.CNAME != nil || z.HTTPStatus != nil {
		t.Errorf("z record = %+v", z)
	}

	if len(got.Active) != 2 {
		t.Fatalf("active = %v", got.Active)
	}
	if _, ok := got.Active["y.example.com"]; !ok {
		t.Error("y not active")
	}
	if _, ok := got.Active["e.example.com"]; !ok {
		t.Error("a 503 responder is still active")
	}
	for name, rec := range got.Active {
		if _, ok := got.All[name]; !ok {
			t.Errorf("%s active but not in all", name)
		}
		if rec.HTTPStatus == nil || *rec.HTTPStatus >= 600 {
			t.Errorf("%s active with status %v", name, rec.HTTPStatus)
		}
	}
}

func TestProbeEmpty(t *testing.T) {
	p := &Prober{Resolver: fakeResolver{}, Checker: &fakeChecker{}}
	got := p.Probe(context.Background(), nil)
	if got.All == nil || got.Active == nil || len(got.All) != 0 || len(got.Active) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestProbeRecordCountIndependentOfWorkers(t *testing.T) {
	for _, n := range []int{1, 7, 20, 150} {
		for _, w := range []int{0, 1, 3, 20, 64, 500} {
			t.Run(fmt.Sprintf("n=%d/w=%d", n, w), func(t *testing.T) {
				names := make([]string, n)
				ips := make(map[string]string)
				codes := make(map[string]int)
				for i := range names {
					names[i] = fmt.Sprintf("h%d.example.com", i)
					if i%2 == 0 {
						ips[names[i]] = "192.0.2.1"
					}
					if i%4 == 0 {
						codes[names[i]] = 200 + i%400
					}
				}
				var mu sync.Mutex
				var seen int
				p := &Prober{
					Resolver: fakeResolver{ips: ips},
					Checker:  &fakeChecker{codes: codes},
					Workers:  w,
					OnRecord: func(string, Record) { mu.Lock(); seen++; mu.Unlock() },
				}
				got := p.Probe(context.Background(), names)
				if len(got.All) != n || seen != n {
					t.Fatalf("records = %d, callbacks = %d, want %d", len(got.All), seen, n)
				}
				if want := (n + 3) / 4; len(got.Active) != want {
					t.Fatalf("active = %d, want %d", len(got.Active), want)
				}
			})
		}
	}
}

func TestRecordActive(t *testing.T) {
	code := func(c int) *int { return &c }
	tests := []struct {
		status *int
		want   bool
	}{
		{nil, false},
		{code(200), true},
		{code(404), true},
		{code(599), true},
		{code(600), false},
	}
	for _, tt := range tests {
		if got := (Record{HTTPStatus: tt.status}).Active(); got != tt.want {
			t.Errorf("Active(%v) = %v", tt.status, got)
		}
	}
}

func TestCheckerFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewChecker(2 * time.Second)
	code, err := c.Status(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusTeapot {
		t.Fatalf("status = %d", code)
	}
}

func TestCheckerTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	c := NewChecker(100 * time.Millisecond)
	if _, err := c.Status(context.Background(), strings.TrimPrefix(srv.URL, "http://")); err == nil {
		t.Fatal("expected timeout error")
	}
}

func startDNS(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen: %v", err)
	}
	rr := func(s string) dns.RR {
		r, err := dns.NewRR(s)
		if err != nil {
			t.Fatal(err)
		}
		return r
	}
	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		switch strings.ToLower(req.Question[0].Name) {
		case "www.example.com.":
			m.Answer = append(m.Answer,
				rr("www.example.com. 60 IN CNAME edge.example.net."),
				rr("edge.example.net. 60 IN CNAME pop1.cdn.example.org."),
				rr("pop1.cdn.example.org. 60 IN A 192.0.2.10"))
		case "api.example.com.":
			m.Answer = append(m.Answer, rr("api.example.com. 60 IN A 192.0.2.20"))
		default:
			m.SetRcode(req, dns.RcodeNameError)
		}
		_ = w.WriteMsg(m)
	})
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestDNSResolver(t *testing.T) {
	addr := startDNS(t)
	r := NewDNSResolver([]string{addr}, 2*time.Second)
	ctx := context.Background()

	ip, err := r.LookupIPv4(ctx, "www.example.com")
	if err != nil || ip != "192.0.2.10" {
		t.Fatalf("www ip = %q, %v", ip, err)
	}
	cname, err := r.LookupCNAME(ctx, "www.example.com")
	if err != nil || cname != "pop1.cdn.example.org" {
		t.Fatalf("www cname = %q, %v", cname, err)
	}
	cname, err = r.LookupCNAME(ctx, "api.example.com")
	if err != nil || cname != "api.example.com" {
		t.Fatalf("api cname = %q, %v", cname, err)
	}
	if _, err := r.LookupIPv4(ctx, "missing.example.com"); err == nil || !strings.Contains(err.Error(), "NXDOMAIN") {
		t.Fatalf("missing: %v", err)
	}
}

func TestDNSResolverFeedsProber(t *testing.T) {
	addr := startDNS(t)
	chk := &fakeChecker{codes: map[string]int{"api.example.com": 301}}
	p := &Prober{Resolver: NewDNSResolver([]string{addr}, 2*time.Second), Checker: chk, Workers: 2}
	got := p.Probe(context.Background(), []string{"api.example.com", "missing.example.com"})
	if got.All["missing.example.com"].IP != nil {
		t.Error("missing resolved")
	}
	if _, ok := got.Active["api.example.com"]; !ok || len(got.Active) != 1 {
		t.Errorf("active = %v", got.Active)
	}
}

func TestNewDNSResolverDefaultsPort(t *testing.T) {
	r := NewDNSResolver([]string{"1.1.1.1", "8.8.8.8:5353"}, time.Second)
	if r.servers[0] != "1.1.1.1:53" || r.servers[1] != "8.8.8.8:5353" {
		t.Fatalf("servers = %v", r.servers)
	}
}
