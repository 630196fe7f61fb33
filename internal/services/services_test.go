package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/services"
	"popstack/internal/testutil"
	"popstack/internal/types"
)

// countingGateway records how many reads hit each table.
type countingGateway struct {
	remote.Gateway
	mu    sync.Mutex
	reads map[string]int
}

func (g *countingGateway) Select(ctx context.Context, q *remote.Query) ([]remote.Record, error) {
	g.mu.Lock()
	g.reads[q.Table]++
	g.mu.Unlock()
	return g.Gateway.Select(ctx, q)
}

func (g *countingGateway) Reads(table string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads[table]
}

type testEnv struct {
	svc   *services.Services
	gw    *countingGateway
	cache *cache.Cache
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gw := &countingGateway{Gateway: testutil.NewGateway(t), reads: map[string]int{}}
	c := cache.New()
	svc := services.New(services.Options{
		Gateway: gw,
		Cache:   c,
		Logger:  zerolog.Nop(),
	})
	return &testEnv{svc: svc, gw: gw, cache: c}
}

func (e *testEnv) user(t *testing.T, id, username string) {
	t.Helper()
	_, err := e.svc.Profiles.Update(context.Background(), id, types.UpdateProfileRequest{Username: &username})
	require.NoError(t, err)
}

// befriend makes a and b accepted friends.
func (e *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	req, err := e.svc.Friends.SendRequest(ctx, a, b)
	require.NoError(t, err)
	_, err = e.svc.Friends.Accept(ctx, b, req.ID)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func remoteFriendships() *remote.Query { return remote.From("friendships") }
