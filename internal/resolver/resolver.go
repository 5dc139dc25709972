package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// Resolver picks the reachable candidate of an EndpointPair.
//
// It holds no mutable state: concurrent calls for any identities are safe
// and every call produces a fresh result.
type Resolver struct {
	prober Prober
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for ResolvedAt and latencies.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithIDGenerator overrides the request id generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Resolver) { r.newID = gen }
}

// New creates a resolver over prober.
func New(prober Prober, log logger.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Resolver{
		prober: prober,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve probes primary, then secondary, and returns the first candidate
// answering with a status in [200, 400). Faults of any kind count as a
// failed probe; nothing is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) domain.ResolutionResult {
	result := domain.ResolutionResult{
		ID:       r.newID(),
		Service:  id,
		Attempts: []domain.ProbeAttempt{},
	}

	if pair.IsEmpty() {
		result.State = domain.StateNotConfigured
		result.ResolvedAt = r.now()
		r.logger.Debug("service not configured, skipping probes",
			logger.String("service", id.Slug()),
			logger.String("request_id", result.ID))
		return result
	}

	for _, slot := range domain.Slots() {
		if !pair.Has(slot) {
			continue
		}

		raw := pair.Get(slot)
		attempt := r.probe(ctx, slot, raw)
		result.Attempts = append(result.Attempts, attempt)

		if attempt.OK {
			result.State = domain.StateResolved
			result.URL = raw
			result.Slot = slot
			result.ResolvedAt = r.now()
			r.logger.Info("resolved service endpoint",
				logger.String("service", id.Slug()),
				logger.String("slot", string(slot)),
				logger.String("url", raw),
				logger.Int("status", attempt.StatusCode),
				logger.String("request_id", result.ID))
			return result
		}
	}

	result.State = domain.StateUnreachable
	result.ResolvedAt = r.now()
	r.logger.Warn("no reachable endpoint for service",
		logger.String("service", id.Slug()),
		logger.Int("attempts", len(result.Attempts)),
		logger.String("request_id", result.ID))
	return result
}

func (r *Resolver) probe(ctx context.Context, slot domain.Slot, raw string) domain.ProbeAttempt {
	target := strings.TrimSpace(raw)
	start := r.now()

	code, err := r.prober.Probe(ctx, target)

	attempt := domain.ProbeAttempt{
		Slot:       slot,
		URL:        raw,
		StatusCode: code,
		LatencyMs:  r.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		attempt.Error = err.Error()
		r.logger.Debug("probe failed",
			logger.String("slot", string(slot)),
			logger.String("url", target),
			logger.Error(err))
		return attempt
	}

	attempt.OK = ReachableStatus(code)
	if !attempt.OK {
		r.logger.Debug("probe returned unreachable status",
			logger.String("slot", string(slot)),
			logger.String("url", target),
			logger.Int("status", code))
	}
	return attempt
}
