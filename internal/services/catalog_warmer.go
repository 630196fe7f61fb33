package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"popstack/internal/types"
)

// CatalogWarmer prefetches the catalog data every page opens with (genre
// taxonomies and the trending lists) so first visitors hit a warm cache.
type CatalogWarmer struct {
	catalog  *CatalogService
	interval time.Duration
	logger   zerolog.Logger
}

func NewCatalogWarmer(catalog *CatalogService, interval time.Duration, logger zerolog.Logger) *CatalogWarmer {
	return &CatalogWarmer{catalog: catalog, interval: interval, logger: logger.With().Str("component", "catalog_warmer").Logger()}
}

// Run warms the cache once and then on every tick until ctx is done.
func (w *CatalogWarmer) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("starting catalog warmer")
	w.warmAndLog(ctx)
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.warmAndLog(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("catalog warmer stopped")
			return
		}
	}
}

func (w *CatalogWarmer) warmAndLog(ctx context.Context) {
	start := time.Now()
	if err := w.Warm(ctx); err != nil {
		w.logger.Warn().Err(err).Dur("took", time.Since(start)).Msg("catalog warm-up finished with errors")
		return
	}
	w.logger.Info().Dur("took", time.Since(start)).Msg("catalog warm-up completed")
}

// Warm fetches genres and the weekly trending list of every kind that has
// a provider. One failing kind does not stop the others.
func (w *CatalogWarmer) Warm(ctx context.Context) error {
	var errs []error
	for _, kind := range types.MediaKinds {
		if _, ok := w.catalog.providers[kind]; !ok {
			continue
		}
		if _, err := w.catalog.Genres(ctx, kind); err != nil {
			errs = append(errs, err)
		}
		if _, err := w.catalog.List(ctx, kind, types.ListTrending, 1, "week"); err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}
