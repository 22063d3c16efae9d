package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carrierwatch/carrierwatch/internal/probe"
)

func TestHTTPProber_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sig := probe.NewHTTPProber("http:test", srv.URL).Probe(context.Background())
	if !sig.OK {
		t.Errorf("OK = false, detail %q", sig.Detail)
	}
	if sig.Name != "http:test" {
		t.Errorf("Name = %q", sig.Name)
	}
}

func TestHTTPProber_RedirectCountsAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://example.com/", http.StatusMovedPermanently)
	}))
	defer srv.Close()

	// Redirects are not followed; the 3xx itself proves reachability.
	sig := probe.NewHTTPProber("http:test", srv.URL).Probe(context.Background())
	if !sig.OK {
		t.Errorf("OK = false for redirect, detail %q", sig.Detail)
	}
}

func TestHTTPProber_ServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sig := probe.NewHTTPProber("http:test", srv.URL).Probe(context.Background())
	if sig.OK {
		t.Error("OK = true for a 500 response")
	}
	if !strings.Contains(sig.Detail, "500") {
		t.Errorf("Detail = %q, want status in detail", sig.Detail)
	}
}

func TestHTTPProber_ConnectionRefusedFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	sig := probe.NewHTTPProber("http:test", srv.URL).Probe(context.Background())
	if sig.OK {
		t.Error("OK = true against a closed listener")
	}
	if sig.Detail == "" {
		t.Error("expected a failure detail")
	}
}

func TestHTTPProber_TimeoutFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sig := probe.NewHTTPProber("http:test", srv.URL).Probe(ctx)
	if sig.OK {
		t.Error("OK = true for a timed-out probe")
	}
}

func TestRunAll_OneSignalPerProber(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	signals := probe.RunAll(context.Background(), 2*time.Second, []probe.Prober{
		probe.NewHTTPProber("a", ok.URL),
		probe.NewHTTPProber("b", bad.URL),
	})

	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(signals))
	}
	if !signals[0].OK || signals[1].OK {
		t.Errorf("signals = %+v, want [ok, fail]", signals)
	}
}

func TestRunAll_SlowProbeDoesNotConsumeSiblingBudget(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer fast.Close()

	signals := probe.RunAll(context.Background(), 50*time.Millisecond, []probe.Prober{
		probe.NewHTTPProber("slow", slow.URL),
		probe.NewHTTPProber("fast", fast.URL),
	})

	if signals[0].OK {
		t.Error("slow probe should have timed out")
	}
	if !signals[1].OK {
		t.Errorf("fast probe should get its own timeout budget, detail %q", signals[1].Detail)
	}
}
