package resolver

import (
	"context"
	"errors"
	"sync"
)

// outcome is a scripted probe response.
type outcome struct {
	status int
	err    error
	// block waits for ctx cancellation, simulating a hung endpoint.
	block bool
}

// fakeProber returns scripted outcomes per URL and records every call.
type fakeProber struct {
	mu       sync.Mutex
	outcomes map[string]outcome
	calls    []string
}

func newFakeProber(outcomes map[string]outcome) *fakeProber {
	return &fakeProber{outcomes: outcomes}
}

func (f *fakeProber) Probe(ctx context.Context, rawURL string) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	o, ok := f.outcomes[rawURL]
	f.mu.Unlock()

	if !ok {
		return 0, errors.New("no such host")
	}
	if o.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return o.status, o.err
}

func (f *fakeProber) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
