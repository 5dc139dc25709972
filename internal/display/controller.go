// Package display tracks what each dashboard surface should render:
// a loading indicator, the resolved content URL, or an error with retry.
package display

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
	"github.com/MrSnakeDoc/arrcenter/internal/resolver"
)

// Phase is the rendering a surface should show.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseContent Phase = "content"
	PhaseError   Phase = "error"
)

// View is the current display state of one service.
type View struct {
	Service domain.ServiceIdentity `json:"service"`
	Phase   Phase                  `json:"phase"`

	// URL is set in PhaseContent.
	URL string `json:"url,omitempty"`

	// Reason is StateUnreachable or StateNotConfigured in PhaseError.
	Reason domain.ResolutionState `json:"reason,omitempty"`

	// Result is the resolution that produced this view (nil while loading).
	Result *domain.ResolutionResult `json:"result,omitempty"`

	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AsyncResolver starts resolutions off the calling goroutine.
type AsyncResolver interface {
	ResolveAsync(ctx context.Context, id domain.ServiceIdentity, pair domain.EndpointPair) *resolver.Task
}

// SnapshotSource supplies the settings snapshot used for each request.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

type entry struct {
	view View
	gen  uint64
	task *resolver.Task
}

// Controller owns the display state of every service.
//
// A new request for a service supersedes the in-flight one: the old task is
// cancelled and only the newest generation may publish its result.
// Services are independent of each other.
type Controller struct {
	mu      sync.Mutex
	ctx     context.Context
	res     AsyncResolver
	source  SnapshotSource
	logger  logger.Logger
	now     func() time.Time
	entries map[domain.ServiceIdentity]*entry
}

// NewController creates a controller. Tasks inherit ctx, so cancelling it
// aborts every in-flight resolution.
func NewController(ctx context.Context, res AsyncResolver, source SnapshotSource, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		ctx:     ctx,
		res:     res,
		source:  source,
		logger:  log,
		now:     time.Now,
		entries: make(map[domain.ServiceIdentity]*entry, len(domain.AllServices())),
	}
}

// Open starts resolving id against the current snapshot and switches its
// view to loading. Any in-flight resolution for id is cancelled.
func (c *Controller) Open(id domain.ServiceIdentity) *resolver.Task {
	pair := c.source.Snapshot().Pair(id)

	c.mu.Lock()
	e := c.entryLocked(id)
	if e.task != nil {
		e.task.Cancel()
		c.logger.Debug("superseding in-flight resolution",
			logger.String("service", id.Slug()),
			logger.Int64("generation", int64(e.gen)))
	}
	e.gen++
	gen := e.gen
	task := c.res.ResolveAsync(c.ctx, id, pair)
	e.task = task
	e.view = View{
		Service:    id,
		Phase:      PhaseLoading,
		Generation: gen,
		UpdatedAt:  c.now(),
	}
	c.mu.Unlock()

	go c.publish(id, gen, task)
	return task
}

// Retry is the manual retry affordance of the error surface. It re-runs the
// resolver for id; errors are never retried without an explicit call.
func (c *Controller) Retry(id domain.ServiceIdentity) *resolver.Task {
	c.logger.Info("manual retry requested", logger.String("service", id.Slug()))
	return c.Open(id)
}

// State returns the current view of id.
func (c *Controller) State(id domain.ServiceIdentity) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.view
	}
	return View{Service: id, Phase: PhaseIdle}
}

// States returns the view of every known service.
func (c *Controller) States() []View {
	views := make([]View, 0, len(domain.AllServices()))
	for _, id := range domain.AllServices() {
		views = append(views, c.State(id))
	}
	return views
}

// Await waits for task and returns the view it produced. When task was
// superseded in the meantime the newest view is returned instead.
func (c *Controller) Await(ctx context.Context, task *resolver.Task) (View, error) {
	if _, err := task.Wait(ctx); err != nil {
		return View{}, err
	}
	c.mu.Lock()
	e := c.entryLocked(task.Service())
	if e.task == task {
		c.applyLocked(e, task)
	}
	view := e.view
	c.mu.Unlock()
	return view, nil
}

func (c *Controller) publish(id domain.ServiceIdentity, gen uint64, task *resolver.Task) {
	<-task.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(id)
	if e.gen == gen && e.task == nil {
		// Already applied by Await.
		return
	}
	if e.gen != gen || e.task != task {
		c.logger.Debug("discarding superseded resolution",
			logger.String("service", id.Slug()),
			logger.Int64("generation", int64(gen)))
		return
	}
	c.applyLocked(e, task)
}

func (c *Controller) applyLocked(e *entry, task *resolver.Task) {
	result, ok := task.Result()
	if !ok {
		return
	}
	e.task = nil
	e.view = viewFromResult(result, e.gen, c.now())
}

func (c *Controller) entryLocked(id domain.ServiceIdentity) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{view: View{Service: id, Phase: PhaseIdle}}
		c.entries[id] = e
	}
	return e
}

func viewFromResult(result domain.ResolutionResult, gen uint64, now time.Time) View {
	v := View{
		Service:    result.Service,
		Generation: gen,
		UpdatedAt:  now,
		Result:     &result,
	}
	if result.IsResolved() {
		v.Phase = PhaseContent
		v.URL = result.URL
		return v
	}
	v.Phase = PhaseError
	v.Reason = result.State
	return v
}
