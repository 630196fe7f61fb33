package demo_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/auth"
	"popstack/internal/cache"
	"popstack/internal/demo"
	"popstack/internal/services"
	"popstack/internal/types"
)

func newDemo(t *testing.T) *services.Services {
	t.Helper()
	gw, err := demo.NewStore(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	providers := map[types.MediaKind]services.CatalogProvider{}
	for _, k := range types.MediaKinds {
		providers[k] = demo.Catalog{}
	}
	return services.New(services.Options{Gateway: gw, Cache: cache.New(), Providers: providers, Logger: zerolog.Nop()})
}

func TestDemoLogin(t *testing.T) {
	creds := auth.DemoCredentials{Email: "demo@popstack.app", Password: "demo123456", User: demo.User("demo@popstack.app")}

	u, ok := creds.Authenticate("demo@popstack.app", "demo123456")
	require.True(t, ok)
	assert.Equal(t, demo.UserID, u.ID)

	_, ok = creds.Authenticate("demo@popstack.app", "wrong")
	assert.False(t, ok)
	_, ok = creds.Authenticate("someone@else.com", "demo123456")
	assert.False(t, ok)

	svc := newDemo(t)
	profile, err := svc.Profiles.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Username)
	assert.Equal(t, demo.Username, *profile.Username)
}

func TestDemoFixtures(t *testing.T) {
	svc := newDemo(t)
	ctx := context.Background()

	friends, err := svc.Friends.Friends(ctx, demo.UserID)
	require.NoError(t, err)
	assert.Len(t, friends, 2)

	incoming, err := svc.Friends.IncomingRequests(ctx, demo.UserID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "serialbinger", incoming[0].Profile.Username)

	reviews, err := svc.Reviews.ListAll(ctx, demo.UserID)
	require.NoError(t, err)
	assert.Len(t, reviews, 5)

	stats, err := svc.Stats.Stats(ctx, demo.UserID, demo.UserID)
	require.NoError(t, err)
	assert.Equal(t, 143, stats.TotalHoursGaming)
	assert.Equal(t, 2, stats.FriendsCount)

	feed, err := svc.Activity.FriendFeed(ctx, demo.UserID)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	collections, err := svc.Collections.List(ctx, demo.UserID)
	require.NoError(t, err)
	require.Len(t, collections, 2)
	for _, c := range collections {
		assert.Equal(t, 2, c.ItemsCount)
	}
}

func TestDemoWatchlistAddTwice(t *testing.T) {
	svc := newDemo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Watchlist.Add(ctx, demo.UserID, types.MediaMovie, 550, types.AddToWatchlistRequest{Title: "Fight Club"})
		require.NoError(t, err)
	}
	entries, err := svc.Watchlist.List(ctx, demo.UserID, types.MediaMovie)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 550, entries[0].MediaID)
}

func TestDemoCatalog(t *testing.T) {
	svc := newDemo(t)
	ctx := context.Background()

	page, err := svc.Catalog.Search(ctx, types.MediaMovie, "dune", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 693134, page.Results[0].ID)

	top, err := svc.Catalog.List(ctx, types.MediaGame, types.ListTopRated, 1, "")
	require.NoError(t, err)
	require.Len(t, top.Results, 2)
	assert.Equal(t, "Baldur's Gate 3", top.Results[0].Title)

	d, err := svc.Catalog.Details(ctx, types.MediaSeries, 136315)
	require.NoError(t, err)
	assert.Equal(t, "The Bear", d.Title)

	_, err = svc.Catalog.Details(ctx, types.MediaSeries, 550)
	assert.ErrorIs(t, err, services.ErrNotFound)

	genres, err := svc.Catalog.Genres(ctx, types.MediaMovie)
	require.NoError(t, err)
	assert.NotEmpty(t, genres)
}
