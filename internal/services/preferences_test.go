package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/services"
	"popstack/internal/types"
)

func TestPreferences(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	p, err := env.svc.Preferences.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, services.DefaultLanguage, p.Language)
	assert.Equal(t, services.DefaultTheme, p.Theme)

	p, err = env.svc.Preferences.Update(ctx, "alice", types.UpdatePreferencesRequest{Language: ptr("en")})
	require.NoError(t, err)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "dark", p.Theme)

	p, err = env.svc.Preferences.Update(ctx, "alice", types.UpdatePreferencesRequest{Theme: ptr("light")})
	require.NoError(t, err)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "light", p.Theme)

	p, err = env.svc.Preferences.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "light", p.Theme)

	_, err = env.svc.Preferences.Update(ctx, "alice", types.UpdatePreferencesRequest{Theme: ptr("neon")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestProfileUpdate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	empty, err := env.svc.Profiles.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", empty.ID)
	assert.Nil(t, empty.Username)

	_, err = env.svc.Profiles.GetByID(ctx, "bob", "alice")
	assert.ErrorIs(t, err, services.ErrNotFound)

	p, err := env.svc.Profiles.Update(ctx, "alice", types.UpdateProfileRequest{Username: ptr("alice"), Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "alice", *p.Username)

	p, err = env.svc.Profiles.Update(ctx, "alice", types.UpdateProfileRequest{Bio: ptr("updated")})
	require.NoError(t, err)
	assert.Equal(t, "alice", *p.Username, "unset fields are kept")
	assert.Equal(t, "updated", *p.Bio)

	_, err = env.svc.Profiles.Update(ctx, "bob", types.UpdateProfileRequest{Username: ptr("alice")})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)

	seen, err := env.svc.Profiles.GetByID(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "updated", *seen.Bio)
}
