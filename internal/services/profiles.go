package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

// UnknownUsername is shown for counterparts without a profile.
const UnknownUsername = "Unknown"

type ProfileService struct {
	gw     remote.Gateway
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewProfileService(gw remote.Gateway, c *cache.Cache, logger zerolog.Logger) *ProfileService {
	return &ProfileService{gw: gw, cache: c, logger: logger}
}

// Get returns the user's profile, or an empty one if none was written yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (*types.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassProfile, userID), func(ctx context.Context) (*types.Profile, error) {
		p, err := remote.MaybeSingle[types.Profile](ctx, s.gw, remote.From("profiles").Eq("id", userID))
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		if p == nil {
			p = &types.Profile{ID: userID}
		}
		return p, nil
	})
}

// GetByID returns another user's profile as seen by viewerID.
func (s *ProfileService) GetByID(ctx context.Context, viewerID, id string) (*types.Profile, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Created.IsZero() && viewerID != id {
		return nil, ErrNotFound
	}
	return p, nil
}

// Update writes the editable profile fields with a single upsert.
func (s *ProfileService) Update(ctx context.Context, userID string, req types.UpdateProfileRequest) (*types.Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ts := now()
	rec := remote.Record{
		"id":         userID,
		"created_at": ts,
		"updated_at": ts,
	}
	if req.Username != nil {
		rec["username"] = nullable(req.Username)
	}
	if req.Bio != nil {
		rec["bio"] = nullable(req.Bio)
	}
	if req.AvatarURL != nil {
		rec["avatar_url"] = nullable(req.AvatarURL)
	}

	row, err := s.gw.Upsert(ctx, "profiles", rec, "id")
	if remote.IsUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.cache.Apply(cache.MutUpdateProfile)

	return remote.DecodeOne[types.Profile](row)
}

// Summaries loads the join data for ids. Missing profiles get the
// placeholder username.
func (s *ProfileService) Summaries(ctx context.Context, ids []string) (map[string]types.ProfileSummary, error) {
	out := make(map[string]types.ProfileSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	profiles, err := remote.SelectAll[types.Profile](ctx, s.gw,
		remote.From("profiles").
			Select("id", "username", "avatar_url").
			Filter(remote.In("id", ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	for _, p := range profiles {
		out[p.ID] = summarize(p.ID, &p)
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = summarize(id, nil)
		}
	}
	return out, nil
}

// search runs the raw username match, excluding the caller.
func (s *ProfileService) search(ctx context.Context, userID, query string, limit int) ([]types.ProfileSummary, error) {
	profiles, err := remote.SelectAll[types.Profile](ctx, s.gw,
		remote.From("profiles").
			Select("id", "username", "avatar_url").
			Filter(remote.ILike("username", remote.Contains(query))).
			Neq("id", userID).
			Order("username", false).
			Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	out := make([]types.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, summarize(p.ID, &p))
	}
	return out, nil
}

func summarize(id string, p *types.Profile) types.ProfileSummary {
	sum := types.ProfileSummary{ID: id, Username: UnknownUsername}
	if p == nil {
		return sum
	}
	if p.Username != nil && *p.Username != "" {
		sum.Username = *p.Username
	}
	sum.AvatarURL = p.AvatarURL
	return sum
}
