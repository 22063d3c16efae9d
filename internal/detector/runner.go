package detector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/event"
	"github.com/carrierwatch/carrierwatch/internal/probe"
	"github.com/carrierwatch/carrierwatch/internal/provider"
)

// Publisher is the transport boundary the runner hands its events to.
// Implementations live in the transport package.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// RunnerConfig holds everything one detector run needs. All values are
// immutable for the lifetime of the runner.
type RunnerConfig struct {
	NodeID        string
	Region        string
	State         string // geographic code reported to the aggregator
	RegionWeight  float64
	ProviderHint  string // the node's own uplink provider, if known
	ProbeTimeout  time.Duration
	Thresholds    Thresholds
	ControlProbes []probe.Prober
	Providers     []provider.Definition
	States        StateRepository
	Publisher     Publisher
	Logger        zerolog.Logger
}

// Runner executes one detector run: control gate, per-provider
// evaluation, hysteresis and event emission. Runs are independent,
// idempotent observations; external scheduling serializes them.
type Runner struct {
	cfg RunnerConfig
}

// RunResult summarizes one completed run.
type RunResult struct {
	ControlOK bool
	Reports   []Report
	Published int
}

// NewRunner creates a detector runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.Thresholds.FailForMajor == 0 && cfg.Thresholds.OKForRecovery == 0 {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.RegionWeight == 0 {
		cfg.RegionWeight = 1.0
	}
	return &Runner{cfg: cfg}
}

// Run performs a single detection pass at the given instant. Probes
// execute sequentially; every probe failure is folded into its signal.
// Publish failures degrade capability but never fail the run.
func (r *Runner) Run(ctx context.Context, now time.Time) RunResult {
	controlSignals := probe.RunAll(ctx, r.cfg.ProbeTimeout, r.cfg.ControlProbes)
	controlOK := ControlOK(controlSignals)
	if !controlOK {
		r.cfg.Logger.Warn().
			Int("control_probes", len(controlSignals)).
			Msg("control gate unhealthy, suppressing provider detection")
	}

	result := RunResult{ControlOK: controlOK}

	for _, def := range r.cfg.Providers {
		report := r.evaluateProvider(ctx, def, controlOK, now)
		result.Reports = append(result.Reports, report)
	}

	result.Published = r.emit(ctx, result.Reports, controlOK, now)
	return result
}

func (r *Runner) evaluateProvider(ctx context.Context, def provider.Definition, controlOK bool, now time.Time) Report {
	probers := buildProbers(def)
	signals := probe.RunAll(ctx, r.cfg.ProbeTimeout, probers)
	eval := Evaluate(signals, controlOK)

	prev, err := r.cfg.States.Get(ctx, def.Name)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		r.cfg.Logger.Warn().Err(err).
			Str("provider", def.Name).
			Msg("reading persisted state failed, starting fresh")
		prev = PersistedState{}
	}

	next := r.cfg.Thresholds.Advance(prev, eval.Raw, now)

	if err := r.cfg.States.Put(ctx, def.Name, next); err != nil {
		r.cfg.Logger.Error().Err(err).
			Str("provider", def.Name).
			Msg("writing persisted state failed")
	}

	r.cfg.Logger.Debug().
		Str("provider", def.Name).
		Str("raw", string(eval.Raw)).
		Str("confirmed", string(next.State)).
		Float64("fail_frac", eval.FailFrac).
		Int("fail_streak", next.FailStreak).
		Int("ok_streak", next.OKStreak).
		Msg("provider evaluated")

	return Report{
		Provider:       def.Name,
		ProviderType:   def.Type,
		RawState:       eval.Raw,
		ConfirmedState: next.State,
		Confidence:     eval.Confidence,
		Signals:        signals,
		FirstSeen:      next.FirstSeen,
		LastSeen:       now,
		ControlOK:      controlOK,
	}
}

// emit publishes one outage event per non-OK provider, a heartbeat when
// everything is OK, and the node status consumed by the aggregator.
func (r *Runner) emit(ctx context.Context, reports []Report, controlOK bool, now time.Time) int {
	published := 0

	anyOutage := false
	for _, rep := range reports {
		if rep.ConfirmedState == StateOK {
			continue
		}
		anyOutage = true
		ev := event.Outage{
			Type:         event.TypeOutage,
			Region:       r.cfg.Region,
			Provider:     rep.Provider,
			ProviderType: rep.ProviderType,
			State:        string(rep.ConfirmedState),
			Confidence:   rep.Confidence,
			Signals:      toSignalResults(rep.Signals),
			FirstSeen:    rep.FirstSeen,
			LastSeen:     rep.LastSeen,
		}
		if r.publish(ctx, event.TypeOutage, ev) {
			published++
		}
	}

	if !anyOutage {
		hb := event.Heartbeat{
			Type:      event.TypeHeartbeat,
			NodeID:    r.cfg.NodeID,
			Region:    r.cfg.Region,
			ControlOK: controlOK,
			Ts:        now,
		}
		if r.publish(ctx, event.TypeHeartbeat, hb) {
			published++
		}
	}

	status := event.NodeStatus{
		NodeID:       r.cfg.NodeID,
		ProviderHint: r.cfg.ProviderHint,
		State:        r.cfg.State,
		Region:       r.cfg.Region,
		RegionWeight: r.cfg.RegionWeight,
		ControlOK:    controlOK,
		Presence:     event.PresenceOnline,
		Ts:           now,
	}
	if r.publish(ctx, event.TypeStatus, status) {
		published++
	}

	return published
}

func (r *Runner) publish(ctx context.Context, eventType string, payload any) bool {
	if r.cfg.Publisher == nil {
		return false
	}
	if err := r.cfg.Publisher.Publish(ctx, eventType, payload); err != nil {
		r.cfg.Logger.Error().Err(err).
			Str("event_type", eventType).
			Msg("publish failed, continuing run")
		return false
	}
	return true
}

func buildProbers(def provider.Definition) []probe.Prober {
	probers := make([]probe.Prober, 0, len(def.DNSHosts)+len(def.ProbeURLs))
	for _, host := range def.DNSHosts {
		probers = append(probers, probe.NewDNSProber("dns:"+host, host))
	}
	for _, url := range def.ProbeURLs {
		probers = append(probers, probe.NewHTTPProber("http:"+url, url))
	}
	return probers
}

func toSignalResults(signals []probe.Signal) []event.SignalResult {
	out := make([]event.SignalResult, 0, len(signals))
	for _, s := range signals {
		out = append(out, event.SignalResult{
			Name:   s.Name,
			OK:     s.OK,
			Ms:     s.LatencyMs,
			Detail: s.Detail,
		})
	}
	return out
}
