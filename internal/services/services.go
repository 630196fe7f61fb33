// Package services implements the social features and the catalog on top
// of the remote gateway and the derived-data cache.
package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/debounce"
	"popstack/internal/remote"
	"popstack/internal/types"
)

// Services bundles every service sharing one gateway and cache.
type Services struct {
	Profiles    *ProfileService
	Friends     *FriendService
	Reviews     *ReviewService
	Watchlist   *WatchlistService
	Collections *CollectionService
	Activity    *ActivityService
	Stats       *StatsService
	Preferences *PreferenceService
	Catalog     *CatalogService
}

type Options struct {
	Gateway   remote.Gateway
	Cache     *cache.Cache
	Debouncer *debounce.Debouncer
	Providers map[types.MediaKind]CatalogProvider
	Logger    zerolog.Logger
}

func New(opts Options) *Services {
	profiles := NewProfileService(opts.Gateway, opts.Cache, opts.Logger)
	friends := NewFriendService(opts.Gateway, opts.Cache, profiles, opts.Debouncer, opts.Logger)
	activity := NewActivityService(opts.Gateway, opts.Cache, friends, opts.Logger)
	reviews := NewReviewService(opts.Gateway, opts.Cache, activity, opts.Logger)

	return &Services{
		Profiles:    profiles,
		Friends:     friends,
		Reviews:     reviews,
		Watchlist:   NewWatchlistService(opts.Gateway, opts.Cache, activity, opts.Logger),
		Collections: NewCollectionService(opts.Gateway, opts.Cache, friends, opts.Logger),
		Activity:    activity,
		Stats:       NewStatsService(opts.Gateway, opts.Cache, friends, reviews),
		Preferences: NewPreferenceService(opts.Gateway, opts.Cache),
		Catalog:     NewCatalogService(opts.Cache, opts.Providers, opts.Logger),
	}
}

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }

// nullable turns blank strings into SQL NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return v
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
