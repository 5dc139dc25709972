package homepage

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/arrcenter/internal/domain"
	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// Seed imports the dashboards found in a Homepage services file into store.
// Only empty slots are filled: values the operator already saved are never
// overwritten. It returns the number of services written.
func Seed(ctx context.Context, loader *Loader, store domain.SettingsStore, log logger.Logger) (int, error) {
	config, err := loader.Load()
	if err != nil {
		return 0, err
	}
	seed := NewMapper().MapSnapshot(config)

	current, err := store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings before seeding: %w", err)
	}

	written := 0
	for _, id := range domain.AllServices() {
		found := seed.Pair(id)
		if found.IsEmpty() {
			continue
		}

		existing := current.Pair(id)
		merged := existing
		for _, slot := range domain.Slots() {
			if !existing.Has(slot) && found.Has(slot) {
				merged = merged.Set(slot, found.Get(slot))
			}
		}
		if merged == existing {
			continue
		}

		if err := store.Save(ctx, id, merged); err != nil {
			return written, fmt.Errorf("failed to seed %s: %w", id.Slug(), err)
		}
		written++
		log.Info("seeded dashboard from homepage",
			logger.String("service", id.Slug()),
			logger.String("primary", merged.Primary),
			logger.String("secondary", merged.Secondary))
	}

	log.Info("homepage import finished",
		logger.String("file", loader.Path()),
		logger.Int("found", seed.Configured()),
		logger.Int("written", written))
	return written, nil
}
