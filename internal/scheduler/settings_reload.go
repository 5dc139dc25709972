package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/index"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// SettingsReloader keeps the memory index in sync with the settings backend.
type SettingsReloader struct {
	store         domain.SettingsStore
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	started       atomic.Bool
	manualTrigger chan struct{}
	done          chan struct{}
}

// NewSettingsReloader creates a new settings reloader.
// manualTrigger may be nil when reloads are only periodic.
func NewSettingsReloader(
	store domain.SettingsStore,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SettingsReloader {
	return &SettingsReloader{
		store:         store,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		done:          make(chan struct{}),
	}
}

// Start loads the settings once, then reloads them on every tick and manual trigger.
func (sr *SettingsReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	if sr.interval <= 0 {
		sr.logger.Warn("settings reload interval disabled, only manual reloads will run")
	}

	sr.started.Store(true)
	go sr.loop(ctx)
	return nil
}

func (sr *SettingsReloader) loop(ctx context.Context) {
	defer close(sr.done)

	// A nil channel never fires, which disables the periodic branch.
	var tick <-chan time.Time
	if sr.interval > 0 {
		ticker := time.NewTicker(sr.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			if err := sr.Reload(ctx); err != nil {
				sr.logger.Error("failed to reload settings", logger.Error(err))
			}
		case <-sr.manualTrigger:
			sr.logger.Info("manual reload triggered")
			if err := sr.Reload(ctx); err != nil {
				sr.logger.Error("failed to reload settings", logger.Error(err))
			}
		case <-sr.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reloader and waits for the loop to exit. Safe to call twice.
func (sr *SettingsReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
	if sr.started.Load() {
		<-sr.done
	}
}

// Reload reads the full snapshot from the backend and swaps it into the index.
// On failure the previous snapshot stays in place.
func (sr *SettingsReloader) Reload(ctx context.Context) error {
	sr.logger.Debug("reloading settings", logger.String("backend", sr.store.Name()))

	previous := sr.index.Count()
	snap, err := sr.index.Sync(func() (domain.Snapshot, error) {
		return sr.store.Load(ctx)
	}, sr.store.Name())
	if err != nil {
		return fmt.Errorf("failed to load settings from %s: %w", sr.store.Name(), err)
	}

	sr.logger.Info("settings reloaded",
		logger.String("backend", sr.store.Name()),
		logger.Int("configured", snap.Configured()),
		logger.Int("previous", previous))

	return nil
}
