package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"popstack/internal/remote"
	"popstack/internal/types"
)

var reviewColumns = map[types.MediaKind][4]string{
	types.MediaMovie:  {"movie_reviews", "movie_id", "movie_title", "movie_poster"},
	types.MediaSeries: {"series_reviews", "series_id", "series_title", "series_poster"},
	types.MediaGame:   {"game_reviews", "game_id", "game_title", "game_cover"},
}

// title returns the snapshot columns for a fixture item.
func title(kind types.MediaKind, id int) (string, any) {
	for _, d := range catalogItems {
		if d.Kind == kind && d.ID == id {
			if d.PosterURL == nil {
				return d.Title, nil
			}
			return d.Title, *d.PosterURL
		}
	}
	return fmt.Sprintf("#%d", id), nil
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Seed writes the fixtures through gw. Timestamps are spread over the
// weeks before now so ordered views look lived in.
func Seed(ctx context.Context, gw remote.Gateway, now time.Time) error {
	now = now.UTC()
	ago := func(days int) time.Time { return now.Add(-time.Duration(days) * 24 * time.Hour) }

	for i, p := range profiles {
		if _, err := gw.Insert(ctx, "profiles", remote.Record{
			"id":         p.id,
			"username":   p.username,
			"bio":        optional(p.bio),
			"created_at": ago(90 - i),
			"updated_at": ago(90 - i),
		}); err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", p.username, err)
		}
	}

	for i, f := range friendships {
		a, b := f.from, f.to
		if b < a {
			a, b = b, a
		}
		if _, err := gw.Insert(ctx, "friendships", remote.Record{
			"id":         uuid.NewString(),
			"user_id":    f.from,
			"friend_id":  f.to,
			"status":     string(f.status),
			"pair_key":   a + ":" + b,
			"created_at": ago(30 - i),
			"updated_at": ago(30 - i),
		}); err != nil {
			return fmt.Errorf("failed to seed friendship: %w", err)
		}
	}

	for _, r := range reviews {
		cols := reviewColumns[r.kind]
		name, poster := title(r.kind, r.id)
		rec := remote.Record{
			"id":          uuid.NewString(),
			"user_id":     r.user,
			cols[1]:       r.id,
			cols[2]:       name,
			cols[3]:       poster,
			"rating":      r.rating,
			"review_text": optional(r.text),
			"created_at":  ago(r.ageDay),
			"updated_at":  ago(r.ageDay),
		}
		if r.kind == types.MediaGame && r.hours > 0 {
			rec["hours_played"] = r.hours
		}
		if _, err := gw.Insert(ctx, cols[0], rec); err != nil {
			return fmt.Errorf("failed to seed review of %s: %w", name, err)
		}

		if _, err := gw.Insert(ctx, "activities", remote.Record{
			"id":            uuid.NewString(),
			"user_id":       r.user,
			"activity_type": string(types.ActivityReview),
			"item_type":     string(r.kind),
			"item_id":       r.id,
			"item_title":    name,
			"content":       optional(r.text),
			"created_at":    ago(r.ageDay),
		}); err != nil {
			return fmt.Errorf("failed to seed activity: %w", err)
		}
	}

	for i, w := range watchlist {
		name, poster := title(w.kind, w.id)
		if _, err := gw.Insert(ctx, "watchlist", remote.Record{
			"id":          uuid.NewString(),
			"user_id":     UserID,
			"item_type":   string(w.kind),
			"item_id":     w.id,
			"item_title":  name,
			"item_poster": poster,
			"added_at":    ago(10 - i),
		}); err != nil {
			return fmt.Errorf("failed to seed watchlist: %w", err)
		}
	}

	for i, c := range collections {
		id := uuid.NewString()
		if _, err := gw.Insert(ctx, "collections", remote.Record{
			"id":          id,
			"user_id":     UserID,
			"name":        c.name,
			"description": optional(c.description),
			"is_public":   c.public,
			"created_at":  ago(50 - i),
			"updated_at":  ago(50 - i),
		}); err != nil {
			return fmt.Errorf("failed to seed collection %s: %w", c.name, err)
		}
		for j, it := range c.items {
			name, poster := title(it.kind, it.id)
			if _, err := gw.Insert(ctx, "collection_items", remote.Record{
				"id":            uuid.NewString(),
				"collection_id": id,
				"item_type":     string(it.kind),
				"item_id":       it.id,
				"item_title":    name,
				"item_poster":   poster,
				"added_at":      ago(45 - j),
			}); err != nil {
				return fmt.Errorf("failed to seed collection item: %w", err)
			}
		}
	}
	return nil
}
