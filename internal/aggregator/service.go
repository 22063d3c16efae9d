package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/event"
)

// Publisher is the transport boundary for outbound scope and summary
// events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// ServiceConfig holds configuration for the aggregator service.
type ServiceConfig struct {
	Window     time.Duration
	Classifier ClassifierConfig
	Publisher  Publisher
	History    Repository
	Logger     zerolog.Logger
	Metrics    *Metrics

	// OnScope, when set, is invoked for every published scope event.
	// Used to fan events out to live subscribers.
	OnScope func(event.Scope)
}

// Service is the aggregator: a single-threaded actor that folds each
// inbound node status into its window, reclassifies the affected
// provider and publishes scope changes. Handlers run to completion, so
// the internal lock only guards concurrent read access from the API.
type Service struct {
	cfg        ServiceConfig
	classifier *Classifier

	mu          sync.RWMutex
	window      *Window
	assessments map[string]Assessment
}

// NewService creates an aggregator service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.History == nil {
		cfg.History = NewInMemoryRepository()
	}
	return &Service{
		cfg:         cfg,
		classifier:  NewClassifier(cfg.Classifier),
		window:      NewWindow(cfg.Window),
		assessments: make(map[string]Assessment),
	}
}

// OnNodeStatus is the actor entry point: it records the node's status
// and reclassifies the provider it reports on. A malformed message is
// the caller's concern; by the time it gets here the message is typed.
func (s *Service) OnNodeStatus(ctx context.Context, msg event.NodeStatus, now time.Time) {
	if msg.NodeID == "" {
		s.cfg.Logger.Warn().Msg("discarding node status without node id")
		return
	}

	provider := msg.ProviderHint
	if provider == "" {
		provider = UnknownProvider
	}
	s.cfg.Metrics.recordStatus(ctx, provider)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.Observe(msg)
	s.reclassify(ctx, provider, now)
}

// Sweep reclassifies every known provider (catching downgrades caused
// by entries aging out of the window) and publishes a summary event.
func (s *Service) Sweep(ctx context.Context, now time.Time) event.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.window.ImpactedByProvider(now)

	providers := make(map[string]bool, len(groups)+len(s.assessments))
	for name := range groups {
		providers[name] = true
	}
	for name := range s.assessments {
		providers[name] = true
	}
	for name := range providers {
		s.reclassify(ctx, name, now)
	}

	summary := event.Summary{
		Type:      event.TypeSummary,
		Ts:        now,
		Providers: make(map[string]event.SummaryEntry),
	}
	for name, a := range s.assessments {
		if a.ImpactedCount == 0 {
			continue
		}
		summary.Providers[name] = event.SummaryEntry{
			Scope:         string(a.Scope),
			Severity:      a.Severity,
			Confidence:    a.Confidence,
			ImpactedCount: a.ImpactedCount,
		}
	}

	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, event.TypeSummary, summary); err != nil {
			s.cfg.Logger.Error().Err(err).Msg("publishing summary failed")
		}
	}
	return summary
}

// reclassify recomputes one provider's assessment. Caller holds the
// lock.
func (s *Service) reclassify(ctx context.Context, provider string, now time.Time) {
	group := s.window.ImpactedByProvider(now)[provider]

	scope, changed := s.classifier.Classify(provider, group, now)
	confidence := GroupConfidence(group)
	severity := Severity(scope, confidence, len(group))

	assessment := Assessment{
		Provider:       provider,
		Scope:          scope,
		Severity:       severity,
		Confidence:     confidence,
		ImpactedCount:  len(group),
		AffectedStates: distinctStates(group),
		UpdatedAt:      now,
	}
	s.assessments[provider] = assessment

	if !changed {
		return
	}

	s.cfg.Metrics.recordScopeChange(ctx, provider, scope)
	s.cfg.Logger.Info().
		Str("provider", provider).
		Str("scope", string(scope)).
		Str("severity", severity).
		Float64("confidence", confidence).
		Int("impacted", len(group)).
		Msg("provider scope changed")

	ev := event.Scope{
		Type:           event.TypeScope,
		ID:             uuid.New().String(),
		Provider:       provider,
		Scope:          string(scope),
		Severity:       severity,
		Confidence:     confidence,
		ImpactedCount:  len(group),
		AffectedStates: assessment.AffectedStates,
		Ts:             now,
	}

	if err := s.cfg.History.InsertScopeEvent(ctx, ev); err != nil {
		s.cfg.Logger.Error().Err(err).Str("provider", provider).Msg("recording scope event failed")
	}
	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, event.TypeScope, ev); err != nil {
			s.cfg.Logger.Error().Err(err).Str("provider", provider).Msg("publishing scope event failed")
		}
	}
	if s.cfg.OnScope != nil {
		s.cfg.OnScope(ev)
	}
}

// Reconfigure applies new tunables without dropping window or scope
// state. Used when the config file is hot-reloaded.
func (s *Service) Reconfigure(window time.Duration, classifier ClassifierConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.SetDuration(window)
	s.classifier.SetConfig(classifier)
}

// Snapshot returns the current assessments, sorted by provider name.
func (s *Service) Snapshot() []Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// Get returns the current assessment for one provider.
func (s *Service) Get(provider string) (Assessment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assessments[provider]
	return a, ok
}

// History returns the recorded scope events for a provider, newest
// first.
func (s *Service) History(ctx context.Context, provider string, limit int) ([]event.Scope, error) {
	return s.cfg.History.ListScopeEvents(ctx, provider, limit)
}

// Reset drops a provider's assessment and scope state so the next
// classification starts clean. Exposed through the admin API.
func (s *Service) Reset(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classifier.Reset(provider)
	delete(s.assessments, provider)
}
