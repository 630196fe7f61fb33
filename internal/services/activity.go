package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

const feedLimit = 20

type ActivityService struct {
	gw      remote.Gateway
	cache   *cache.Cache
	friends *FriendService
	logger  zerolog.Logger
}

func NewActivityService(gw remote.Gateway, c *cache.Cache, friends *FriendService, logger zerolog.Logger) *ActivityService {
	return &ActivityService{gw: gw, cache: c, friends: friends, logger: logger}
}

// record appends an activity row. Failures are logged and swallowed so the
// write that triggered them still succeeds.
func (s *ActivityService) record(ctx context.Context, userID string, typ types.ActivityType, kind types.MediaKind, mediaID int, title string, content *string) {
	if s == nil {
		return
	}
	_, err := s.gw.Insert(ctx, "activities", remote.Record{
		"id":            newID(),
		"user_id":       userID,
		"activity_type": string(typ),
		"item_type":     string(kind),
		"item_id":       mediaID,
		"item_title":    title,
		"content":       nullable(content),
		"created_at":    now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("activity", string(typ)).Msg("failed to record activity")
		return
	}
	s.cache.Apply(cache.MutRecordActivity)
}

// FriendFeed lists the most recent activities of userID's friends.
func (s *ActivityService) FriendFeed(ctx context.Context, userID string) ([]types.FriendActivity, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassFriendActivity, userID), func(ctx context.Context) ([]types.FriendActivity, error) {
		friends, err := s.friends.Friends(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(friends) == 0 {
			return []types.FriendActivity{}, nil
		}

		ids := make([]string, len(friends))
		profiles := make(map[string]types.ProfileSummary, len(friends))
		for i, f := range friends {
			ids[i] = f.Profile.ID
			profiles[f.Profile.ID] = f.Profile
		}

		activities, err := remote.SelectAll[types.Activity](ctx, s.gw,
			remote.From("activities").
				Filter(remote.In("user_id", ids)).
				Order("created_at", true).
				Limit(feedLimit))
		if err != nil {
			return nil, fmt.Errorf("failed to load friend activity: %w", err)
		}

		out := make([]types.FriendActivity, len(activities))
		for i, a := range activities {
			p := profiles[a.UserID]
			out[i] = types.FriendActivity{Activity: a, Username: p.Username, AvatarURL: p.AvatarURL}
		}
		return out, nil
	})
}
