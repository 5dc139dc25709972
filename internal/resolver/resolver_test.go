package resolver

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

const (
	lanURL    = "http://10.0.0.5:5055"
	publicURL = "http://jelly.example.com"
)

func newTestResolver(p Prober) *Resolver {
	return New(p, logger.NewNop(), WithIDGenerator(func() string { return "req-1" }))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		pair      domain.EndpointPair
		outcomes  map[string]outcome
		wantState domain.ResolutionState
		wantURL   string
		wantSlot  domain.Slot
		wantCalls []string
	}{
		{
			name:      "primary answers 200",
			pair:      domain.EndpointPair{Primary: lanURL, Secondary: publicURL},
			outcomes:  map[string]outcome{lanURL: {status: 200}, publicURL: {status: 200}},
			wantState: domain.StateResolved,
			wantURL:   lanURL,
			wantSlot:  domain.SlotPrimary,
			wantCalls: []string{lanURL},
		},
		{
			name:      "primary fails, secondary redirects",
			pair:      domain.EndpointPair{Primary: lanURL, Secondary: publicURL},
			outcomes:  map[string]outcome{lanURL: {err: context.DeadlineExceeded}, publicURL: {status: 302}},
			wantState: domain.StateResolved,
			wantURL:   publicURL,
			wantSlot:  domain.SlotSecondary,
			wantCalls: []string{lanURL, publicURL},
		},
		{
			name:      "primary absent, secondary answers",
			pair:      domain.EndpointPair{Secondary: publicURL},
			outcomes:  map[string]outcome{publicURL: {status: 204}},
			wantState: domain.StateResolved,
			wantURL:   publicURL,
			wantSlot:  domain.SlotSecondary,
			wantCalls: []string{publicURL},
		},
		{
			name:      "both fail",
			pair:      domain.EndpointPair{Primary: lanURL, Secondary: publicURL},
			outcomes:  map[string]outcome{lanURL: {status: 500}, publicURL: {status: 404}},
			wantState: domain.StateUnreachable,
			wantCalls: []string{lanURL, publicURL},
		},
		{
			name:      "connection refused, no secondary",
			pair:      domain.EndpointPair{Primary: lanURL},
			outcomes:  map[string]outcome{lanURL: {err: syscall.ECONNREFUSED}},
			wantState: domain.StateUnreachable,
			wantCalls: []string{lanURL},
		},
		{
			name:      "both empty",
			pair:      domain.EndpointPair{Primary: "", Secondary: ""},
			wantState: domain.StateNotConfigured,
			wantCalls: []string{},
		},
		{
			name:      "blank values count as absent",
			pair:      domain.EndpointPair{Primary: "  ", Secondary: "\t"},
			wantState: domain.StateNotConfigured,
			wantCalls: []string{},
		},
		{
			name:      "status 399 is reachable",
			pair:      domain.EndpointPair{Primary: lanURL},
			outcomes:  map[string]outcome{lanURL: {status: 399}},
			wantState: domain.StateResolved,
			wantURL:   lanURL,
			wantSlot:  domain.SlotPrimary,
			wantCalls: []string{lanURL},
		},
		{
			name:      "status 400 is not reachable",
			pair:      domain.EndpointPair{Primary: lanURL},
			outcomes:  map[string]outcome{lanURL: {status: 400}},
			wantState: domain.StateUnreachable,
			wantCalls: []string{lanURL},
		},
		{
			name:      "status 199 is not reachable",
			pair:      domain.EndpointPair{Primary: lanURL},
			outcomes:  map[string]outcome{lanURL: {status: 199}},
			wantState: domain.StateUnreachable,
			wantCalls: []string{lanURL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newFakeProber(tt.outcomes)
			res := newTestResolver(prober).Resolve(context.Background(), domain.Jellyseerr, tt.pair)

			if res.State != tt.wantState {
				t.Errorf("State = %q, want %q", res.State, tt.wantState)
			}
			if res.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", res.URL, tt.wantURL)
			}
			if res.Slot != tt.wantSlot {
				t.Errorf("Slot = %q, want %q", res.Slot, tt.wantSlot)
			}
			if res.Service != domain.Jellyseerr {
				t.Errorf("Service = %v, want Jellyseerr", res.Service)
			}
			if res.ResolvedAt.IsZero() {
				t.Error("ResolvedAt should be set")
			}

			calls := prober.Calls()
			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
			}
			for i := range calls {
				if calls[i] != tt.wantCalls[i] {
					t.Errorf("call[%d] = %q, want %q", i, calls[i], tt.wantCalls[i])
				}
			}
			if len(res.Attempts) != len(tt.wantCalls) {
				t.Errorf("Attempts = %d, want %d", len(res.Attempts), len(tt.wantCalls))
			}
		})
	}
}

func TestResolveURLIsAlwaysAnInput(t *testing.T) {
	pair := domain.EndpointPair{Primary: " " + lanURL + " ", Secondary: publicURL}
	prober := newFakeProber(map[string]outcome{lanURL: {status: 200}})

	res := newTestResolver(prober).Resolve(context.Background(), domain.Radarr, pair)

	if res.URL != pair.Primary {
		t.Errorf("URL = %q, want the raw primary input %q", res.URL, pair.Primary)
	}
	if calls := prober.Calls(); len(calls) != 1 || calls[0] != lanURL {
		t.Errorf("probe target = %v, want trimmed %q", calls, lanURL)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	pair := domain.EndpointPair{Primary: lanURL, Secondary: publicURL}
	prober := newFakeProber(map[string]outcome{
		lanURL:    {err: errors.New("dial tcp: i/o timeout")},
		publicURL: {status: 200},
	})
	r := newTestResolver(prober)

	first := r.Resolve(context.Background(), domain.Sonarr, pair)
	second := r.Resolve(context.Background(), domain.Sonarr, pair)

	if first.State != second.State || first.URL != second.URL || first.Slot != second.Slot {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if len(prober.Calls()) != 4 {
		t.Errorf("expected each call to probe independently, got %d probes", len(prober.Calls()))
	}
}

func TestResolveRecordsAttempts(t *testing.T) {
	pair := domain.EndpointPair{Primary: lanURL, Secondary: publicURL}
	prober := newFakeProber(map[string]outcome{
		lanURL:    {err: syscall.ECONNREFUSED},
		publicURL: {status: 301},
	})

	res := newTestResolver(prober).Resolve(context.Background(), domain.Jellyseerr, pair)

	if len(res.Attempts) != 2 {
		t.Fatalf("Attempts = %+v", res.Attempts)
	}
	if res.Attempts[0].OK || res.Attempts[0].Error == "" || res.Attempts[0].Slot != domain.SlotPrimary {
		t.Errorf("primary attempt = %+v", res.Attempts[0])
	}
	if !res.Attempts[1].OK || res.Attempts[1].StatusCode != 301 {
		t.Errorf("secondary attempt = %+v", res.Attempts[1])
	}
	if res.ID != "req-1" {
		t.Errorf("ID = %q, want req-1", res.ID)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	pair := domain.EndpointPair{Primary: lanURL, Secondary: publicURL}
	prober := newFakeProber(map[string]outcome{
		lanURL:    {block: true},
		publicURL: {block: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan domain.ResolutionResult, 1)
	go func() { done <- newTestResolver(prober).Resolve(ctx, domain.SABnzbd, pair) }()

	select {
	case res := <-done:
		if res.State != domain.StateUnreachable {
			t.Errorf("State = %q, want unreachable", res.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return after cancellation")
	}
}
