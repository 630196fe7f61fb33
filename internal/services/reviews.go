package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

// reviewTable maps a media kind onto its review table and column names.
type reviewTable struct {
	name   string
	id     string
	title  string
	poster string
	date   string
}

var reviewTables = map[types.MediaKind]reviewTable{
	types.MediaMovie:  {"movie_reviews", "movie_id", "movie_title", "movie_poster", "watched_date"},
	types.MediaSeries: {"series_reviews", "series_id", "series_title", "series_poster", "watched_date"},
	types.MediaGame:   {"game_reviews", "game_id", "game_title", "game_cover", "played_date"},
}

func tableFor(kind types.MediaKind) (reviewTable, error) {
	t, ok := reviewTables[kind]
	if !ok {
		return reviewTable{}, invalid("unknown media kind %q", kind)
	}
	return t, nil
}

func (t reviewTable) decode(kind types.MediaKind, rec remote.Record) types.Review {
	r := types.Review{
		ID:          rec.String("id"),
		UserID:      rec.String("user_id"),
		Kind:        kind,
		MediaID:     rec.Int(t.id),
		Title:       rec.String(t.title),
		Poster:      rec.StringPtr(t.poster),
		Rating:      rec.Int("rating"),
		ReviewText:  rec.StringPtr("review_text"),
		WatchedDate: rec.StringPtr(t.date),
		Created:     rec.Time("created_at"),
		Updated:     rec.Time("updated_at"),
	}
	if kind == types.MediaGame {
		r.HoursPlayed = rec.FloatPtr("hours_played")
		r.Platform = rec.StringPtr("platform")
	}
	return r
}

type ReviewService struct {
	gw       remote.Gateway
	cache    *cache.Cache
	activity *ActivityService
	logger   zerolog.Logger
}

func NewReviewService(gw remote.Gateway, c *cache.Cache, activity *ActivityService, logger zerolog.Logger) *ReviewService {
	return &ReviewService{gw: gw, cache: c, activity: activity, logger: logger}
}

// Get returns userID's review of one item, or nil when there is none.
func (s *ReviewService) Get(ctx context.Context, userID string, kind types.MediaKind, mediaID int) (*types.Review, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	return cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassReviews, userID, "one", kind, mediaID), func(ctx context.Context) (*types.Review, error) {
		rows, err := s.gw.Select(ctx, remote.From(t.name).Eq("user_id", userID).Eq(t.id, mediaID).Limit(1))
		if err != nil {
			return nil, fmt.Errorf("failed to load review: %w", err)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		r := t.decode(kind, rows[0])
		return &r, nil
	})
}

// List returns userID's reviews of one kind, newest first.
func (s *ReviewService) List(ctx context.Context, userID string, kind types.MediaKind) ([]types.Review, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassReviews, userID, "list", kind), func(ctx context.Context) ([]types.Review, error) {
		return s.selectReviews(ctx, kind, t, remote.From(t.name).Eq("user_id", userID).Order("created_at", true))
	})
}

// ListAll merges every kind of review, newest first.
func (s *ReviewService) ListAll(ctx context.Context, userID string) ([]types.Review, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassReviews, userID, "all"), func(ctx context.Context) ([]types.Review, error) {
		var all []types.Review
		for _, kind := range types.MediaKinds {
			t := reviewTables[kind]
			reviews, err := s.selectReviews(ctx, kind, t, remote.From(t.name).Eq("user_id", userID))
			if err != nil {
				return nil, err
			}
			all = append(all, reviews...)
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].Created.After(all[j].Created) })
		return all, nil
	})
}

// TopRated returns userID's highest rated reviews of one kind.
func (s *ReviewService) TopRated(ctx context.Context, userID string, kind types.MediaKind, limit int) ([]types.Review, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassReviews, userID, "top", kind, limit), func(ctx context.Context) ([]types.Review, error) {
		return s.selectReviews(ctx, kind, t,
			remote.From(t.name).Eq("user_id", userID).Order("rating", true).Order("created_at", true).Limit(limit))
	})
}

func (s *ReviewService) selectReviews(ctx context.Context, kind types.MediaKind, t reviewTable, q *remote.Query) ([]types.Review, error) {
	rows, err := s.gw.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s reviews: %w", kind, err)
	}
	out := make([]types.Review, len(rows))
	for i, row := range rows {
		out[i] = t.decode(kind, row)
	}
	return out, nil
}

// Save creates or replaces userID's review of an item in one atomic upsert
// keyed by (owner, media id).
func (s *ReviewService) Save(ctx context.Context, userID string, kind types.MediaKind, mediaID int, req types.SaveReviewRequest) (*types.Review, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if mediaID <= 0 {
		return nil, invalid("media id must be positive")
	}
	if req.Rating < 1 || req.Rating > 10 {
		return nil, invalid("rating must be between 1 and 10")
	}
	if req.Title == "" {
		return nil, invalid("title is required")
	}
	if req.WatchedDate != nil && *req.WatchedDate != "" {
		if _, err := time.Parse("2006-01-02", *req.WatchedDate); err != nil {
			return nil, invalid("date must be YYYY-MM-DD")
		}
	}

	ts := now()
	rec := remote.Record{
		"id":          newID(),
		"user_id":     userID,
		t.id:          mediaID,
		t.title:       req.Title,
		t.poster:      nullable(req.Poster),
		"rating":      req.Rating,
		"review_text": nullable(req.ReviewText),
		t.date:        nullable(req.WatchedDate),
		"created_at":  ts,
		"updated_at":  ts,
	}
	if kind == types.MediaGame {
		rec["hours_played"] = nullableFloat(req.HoursPlayed)
		rec["platform"] = nullable(req.Platform)
	}

	row, err := s.gw.Upsert(ctx, t.name, rec, "user_id", t.id)
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	s.cache.Apply(cache.MutSaveReview)

	review := t.decode(kind, row)
	s.activity.record(ctx, userID, types.ActivityReview, kind, mediaID, req.Title, review.ReviewText)
	return &review, nil
}

// Delete removes userID's review of an item. Missing reviews are not an
// error.
func (s *ReviewService) Delete(ctx context.Context, userID string, kind types.MediaKind, mediaID int) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.gw.Delete(ctx, remote.From(t.name).Eq("user_id", userID).Eq(t.id, mediaID)); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	s.cache.Apply(cache.MutDeleteReview)
	return nil
}
