package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

const (
	ownFavoritesLimit    = 3
	friendFavoritesLimit = 6
)

type StatsService struct {
	gw      remote.Gateway
	cache   *cache.Cache
	friends *FriendService
	reviews *ReviewService
}

func NewStatsService(gw remote.Gateway, c *cache.Cache, friends *FriendService, reviews *ReviewService) *StatsService {
	return &StatsService{gw: gw, cache: c, friends: friends, reviews: reviews}
}

// Stats aggregates userID's reviews, watchlist and collections. Only the
// user and their friends may read them.
func (s *StatsService) Stats(ctx context.Context, viewerID, userID string) (*types.UserStats, error) {
	if err := s.friends.CanView(ctx, viewerID, userID); err != nil {
		return nil, err
	}

	return cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassStats, userID), func(ctx context.Context) (*types.UserStats, error) {
		var stats types.UserStats
		var hours float64

		for _, kind := range types.MediaKinds {
			t := reviewTables[kind]
			q := remote.From(t.name).Select("review_text").Eq("user_id", userID)
			if kind == types.MediaGame {
				q.Select("hours_played")
			}
			rows, err := s.gw.Select(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s reviews: %w", kind, err)
			}

			stats.TotalRatings += len(rows)
			for _, row := range rows {
				if strings.TrimSpace(row.String("review_text")) != "" {
					stats.TotalTextReviews++
				}
				if h := row.FloatPtr("hours_played"); h != nil {
					hours += *h
				}
			}
			if kind == types.MediaGame {
				stats.TotalGamesPlayed = len(rows)
			} else {
				stats.TotalMoviesWatched += len(rows)
			}
		}
		stats.TotalItems = stats.TotalRatings
		stats.TotalHoursGaming = int(math.Round(hours))

		var err error
		if stats.WatchlistCount, err = s.gw.Count(ctx, remote.From("watchlist").Eq("user_id", userID)); err != nil {
			return nil, fmt.Errorf("failed to count watchlist: %w", err)
		}
		if stats.CollectionsCount, err = s.gw.Count(ctx, remote.From("collections").Eq("user_id", userID)); err != nil {
			return nil, fmt.Errorf("failed to count collections: %w", err)
		}
		if stats.FriendsCount, err = s.gw.Count(ctx, remote.From("friendships").
			Eq("status", string(types.FriendshipAccepted)).
			Or(remote.All(remote.Eq("user_id", userID)), remote.All(remote.Eq("friend_id", userID)))); err != nil {
			return nil, fmt.Errorf("failed to count friends: %w", err)
		}
		return &stats, nil
	})
}

// Favorites returns userID's top rated media per kind. Friends see a longer
// list than the owner's own profile card.
func (s *StatsService) Favorites(ctx context.Context, viewerID, userID string) (*types.FavoriteMedia, error) {
	if err := s.friends.CanView(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	limit := ownFavoritesLimit
	if viewerID != userID {
		limit = friendFavoritesLimit
	}

	var fav types.FavoriteMedia
	for _, kind := range types.MediaKinds {
		top, err := s.reviews.TopRated(ctx, userID, kind, limit)
		if err != nil {
			return nil, err
		}
		switch kind {
		case types.MediaMovie:
			fav.Movies = top
		case types.MediaSeries:
			fav.Series = top
		case types.MediaGame:
			fav.Games = top
		}
	}
	return &fav, nil
}
