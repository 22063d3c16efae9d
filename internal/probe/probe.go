// Package probe issues individual reachability checks and records their
// outcome as signals. A failed or timed-out check is data, not an error:
// it comes back as a Signal with OK=false and never aborts a run.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Signal is the outcome of one reachability check. Immutable once
// produced; one instance per probe per run.
type Signal struct {
	Name      string
	OK        bool
	LatencyMs int64
	Detail    string
}

// Prober runs a single bounded reachability check.
type Prober interface {
	// Probe executes the check. The context carries the per-probe
	// deadline; expiry cancels only this check.
	Probe(ctx context.Context) Signal
}

// HTTPProber checks an HTTP(S) endpoint. Any 2xx or 3xx response counts
// as reachable.
type HTTPProber struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPProber creates an HTTP prober for the given URL. The caller's
// context deadline bounds each request; the client itself carries no
// timeout so a probe can never outlive its context.
func NewHTTPProber(name, url string) *HTTPProber {
	return &HTTPProber{
		name: name,
		url:  url,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe performs the HTTP GET.
func (p *HTTPProber) Probe(ctx context.Context) Signal {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Signal{Name: p.name, Detail: err.Error()}
	}

	resp, err := p.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return Signal{Name: p.name, LatencyMs: elapsed, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Signal{Name: p.name, OK: true, LatencyMs: elapsed}
	}
	return Signal{
		Name:      p.name,
		LatencyMs: elapsed,
		Detail:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
}

// DNSProber checks that a hostname resolves to at least one address.
type DNSProber struct {
	name     string
	host     string
	resolver *net.Resolver
}

// NewDNSProber creates a DNS prober for the given hostname using the
// system resolver.
func NewDNSProber(name, host string) *DNSProber {
	return &DNSProber{name: name, host: host, resolver: net.DefaultResolver}
}

// Probe performs the DNS lookup.
func (p *DNSProber) Probe(ctx context.Context) Signal {
	start := time.Now()

	addrs, err := p.resolver.LookupHost(ctx, p.host)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return Signal{Name: p.name, LatencyMs: elapsed, Detail: err.Error()}
	}
	if len(addrs) == 0 {
		return Signal{Name: p.name, LatencyMs: elapsed, Detail: "no addresses"}
	}
	return Signal{Name: p.name, OK: true, LatencyMs: elapsed}
}

// RunAll executes the probers sequentially, each bounded by its own
// timeout derived from ctx. A probe's expiry cancels only that probe.
func RunAll(ctx context.Context, timeout time.Duration, probers []Prober) []Signal {
	signals := make([]Signal, 0, len(probers))
	for _, p := range probers {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		signals = append(signals, p.Probe(probeCtx))
		cancel()
	}
	return signals
}
