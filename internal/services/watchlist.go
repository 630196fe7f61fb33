package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

type WatchlistService struct {
	gw       remote.Gateway
	cache    *cache.Cache
	activity *ActivityService
	logger   zerolog.Logger
}

func NewWatchlistService(gw remote.Gateway, c *cache.Cache, activity *ActivityService, logger zerolog.Logger) *WatchlistService {
	return &WatchlistService{gw: gw, cache: c, activity: activity, logger: logger}
}

// List returns userID's watchlist, newest first, optionally for one kind.
func (s *WatchlistService) List(ctx context.Context, userID string, kind types.MediaKind) ([]types.WatchlistEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if kind != "" && !kind.Valid() {
		return nil, invalid("unknown media kind %q", kind)
	}

	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassWatchlist, userID, "list", kind), func(ctx context.Context) ([]types.WatchlistEntry, error) {
		q := remote.From("watchlist").Eq("user_id", userID).Order("added_at", true)
		if kind != "" {
			q.Eq("item_type", string(kind))
		}
		entries, err := remote.SelectAll[types.WatchlistEntry](ctx, s.gw, q)
		if err != nil {
			return nil, fmt.Errorf("failed to load watchlist: %w", err)
		}
		return entries, nil
	})
}

// Contains reports whether an item is on userID's watchlist.
func (s *WatchlistService) Contains(ctx context.Context, userID string, kind types.MediaKind, mediaID int) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	return cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassWatchlist, userID, "check", kind, mediaID), func(ctx context.Context) (bool, error) {
		n, err := s.gw.Count(ctx, remote.From("watchlist").
			Eq("user_id", userID).
			Eq("item_type", string(kind)).
			Eq("item_id", mediaID))
		if err != nil {
			return false, fmt.Errorf("failed to check watchlist: %w", err)
		}
		return n > 0, nil
	})
}

// Add puts an item on the watchlist. Adding it again refreshes the snapshot
// and keeps the single existing row.
func (s *WatchlistService) Add(ctx context.Context, userID string, kind types.MediaKind, mediaID int, req types.AddToWatchlistRequest) (*types.WatchlistEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, invalid("unknown media kind %q", kind)
	}
	if mediaID <= 0 {
		return nil, invalid("media id must be positive")
	}
	if req.Title == "" {
		return nil, invalid("title is required")
	}

	row, err := s.gw.Upsert(ctx, "watchlist", remote.Record{
		"id":          newID(),
		"user_id":     userID,
		"item_type":   string(kind),
		"item_id":     mediaID,
		"item_title":  req.Title,
		"item_poster": nullable(req.Poster),
		"item_rating": nullableFloat(req.Rating),
		"added_at":    now(),
	}, "user_id", "item_type", "item_id")
	if err != nil {
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	s.cache.Apply(cache.MutChangeWatchlist)
	s.activity.record(ctx, userID, types.ActivityWatchlist, kind, mediaID, req.Title, nil)

	return remote.DecodeOne[types.WatchlistEntry](row)
}

// Remove deletes an item from the watchlist. Missing items are not an error.
func (s *WatchlistService) Remove(ctx context.Context, userID string, kind types.MediaKind, mediaID int) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	_, err := s.gw.Delete(ctx, remote.From("watchlist").
		Eq("user_id", userID).
		Eq("item_type", string(kind)).
		Eq("item_id", mediaID))
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	s.cache.Apply(cache.MutChangeWatchlist)
	return nil
}
