package resolver

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
)

// Task is a handle on a resolution running on its own goroutine.
type Task struct {
	service domain.ServiceIdentity
	done    chan struct{}
	cancel  context.CancelFunc
	result  domain.ResolutionResult
}

// ResolveAsync starts Resolve on a worker goroutine and returns immediately.
// Cancelling ctx or calling Task.Cancel aborts the in-flight probe; the
// result then reports Unreachable and callers are expected to discard it.
func (r *Resolver) ResolveAsync(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		service: id,
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	go func() {
		defer close(t.done)
		defer cancel()
		t.result = r.Resolve(ctx, id, pair)
	}()

	return t
}

// Service returns the identity being resolved.
func (t *Task) Service() domain.ServiceIdentity { return t.service }

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel aborts the resolution. It is safe to call more than once.
func (t *Task) Cancel() { t.cancel() }

// Result returns the result without blocking; ok is false while running.
func (t *Task) Result() (domain.ResolutionResult, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return domain.ResolutionResult{}, false
	}
}

// Wait blocks until the result is ready or ctx is done.
func (t *Task) Wait(ctx context.Context) (domain.ResolutionResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return domain.ResolutionResult{}, ctx.Err()
	}
}

// ResolveAll resolves every known service concurrently against snap.
// Each identity gets its own task; results are keyed by identity.
func (r *Resolver) ResolveAll(ctx context.Context, snap domain.Snapshot) map[domain.ServiceIdentity]domain.ResolutionResult {
	services := domain.AllServices()
	results := make(map[domain.ServiceIdentity]domain.ResolutionResult, len(services))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, id := range services {
		wg.Add(1)
		go func(id domain.ServiceIdentity) {
			defer wg.Done()
			res := r.Resolve(ctx, id, snap.Pair(id))
			mu.Lock()
			results[id] = res
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results
}
