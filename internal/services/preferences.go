package services

import (
	"context"
	"fmt"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

const (
	DefaultLanguage = "pl"
	DefaultTheme    = "dark"
)

var (
	languages = map[string]bool{"pl": true, "en": true}
	themes    = map[string]bool{"light": true, "dark": true, "system": true}
)

type PreferenceService struct {
	gw    remote.Gateway
	cache *cache.Cache
}

func NewPreferenceService(gw remote.Gateway, c *cache.Cache) *PreferenceService {
	return &PreferenceService{gw: gw, cache: c}
}

// Get returns userID's preferences, falling back to the defaults when none
// were saved.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*types.Preferences, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassPreferences, userID), func(ctx context.Context) (*types.Preferences, error) {
		p, err := remote.MaybeSingle[types.Preferences](ctx, s.gw, remote.From("user_preferences").Eq("user_id", userID))
		if err != nil {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
		if p == nil {
			p = &types.Preferences{UserID: userID, Language: DefaultLanguage, Theme: DefaultTheme}
		}
		return p, nil
	})
}

// Update changes the given fields and keeps the rest.
func (s *PreferenceService) Update(ctx context.Context, userID string, req types.UpdatePreferencesRequest) (*types.Preferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := *current
	if req.Language != nil {
		if !languages[*req.Language] {
			return nil, invalid("unsupported language %q", *req.Language)
		}
		next.Language = *req.Language
	}
	if req.Theme != nil {
		if !themes[*req.Theme] {
			return nil, invalid("unsupported theme %q", *req.Theme)
		}
		next.Theme = *req.Theme
	}

	row, err := s.gw.Upsert(ctx, "user_preferences", remote.Record{
		"user_id":    userID,
		"language":   next.Language,
		"theme":      next.Theme,
		"updated_at": now(),
	}, "user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	s.cache.Apply(cache.MutUpdatePreferences)
	return remote.DecodeOne[types.Preferences](row)
}
