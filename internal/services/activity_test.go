package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/types"
)

func TestFriendFeed(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	env.user(t, "alice", "alice")
	env.user(t, "bob", "bobby")
	env.befriend(t, "alice", "bob")

	feed, err := env.svc.Activity.FriendFeed(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, feed)

	_, err = env.svc.Reviews.Save(ctx, "bob", types.MediaMovie, 550, types.SaveReviewRequest{Title: "Fight Club", Rating: 9, ReviewText: ptr("wow")})
	require.NoError(t, err)
	_, err = env.svc.Watchlist.Add(ctx, "carol", types.MediaMovie, 550, types.AddToWatchlistRequest{Title: "Fight Club"})
	require.NoError(t, err)
	_, err = env.svc.Watchlist.Add(ctx, "alice", types.MediaMovie, 550, types.AddToWatchlistRequest{Title: "Fight Club"})
	require.NoError(t, err)

	feed, err = env.svc.Activity.FriendFeed(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, feed, 1, "only friends' activity shows up")
	assert.Equal(t, "bobby", feed[0].Username)
	assert.Equal(t, types.ActivityReview, feed[0].Type)
	assert.Equal(t, "wow", *feed[0].Content)
}

func TestFriendFeedIsCapped(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	env.befriend(t, "alice", "bob")

	for i := 1; i <= 25; i++ {
		_, err := env.svc.Watchlist.Add(ctx, "bob", types.MediaMovie, i, types.AddToWatchlistRequest{Title: "m"})
		require.NoError(t, err)
	}

	feed, err := env.svc.Activity.FriendFeed(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, feed, 20)
}
