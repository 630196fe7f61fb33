package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/auth"
	"popstack/internal/cache"
	"popstack/internal/demo"
	"popstack/internal/handlers"
	"popstack/internal/services"
	"popstack/internal/types"
	"popstack/internal/utils"
)

const (
	demoEmail    = "demo@popstack.app"
	demoPassword = "demo123456"
	strangerID   = "00000000-0000-4000-8000-000000000005"
	filmFanID    = "00000000-0000-4000-8000-000000000002"
)

func newServer(t *testing.T, mw auth.Middleware) *httptest.Server {
	t.Helper()
	gw, err := demo.NewStore(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	providers := map[types.MediaKind]services.CatalogProvider{}
	for _, k := range types.MediaKinds {
		providers[k] = demo.Catalog{}
	}
	svc := services.New(services.Options{Gateway: gw, Cache: cache.New(), Providers: providers, Logger: zerolog.Nop()})

	user := demo.User(demoEmail)
	if mw == nil {
		mw = auth.Demo(user)
	}
	srv := httptest.NewServer(handlers.NewRouter(handlers.RouterOptions{
		Services:    svc,
		Auth:        mw,
		Demo:        &auth.DemoCredentials{Email: demoEmail, Password: demoPassword, User: user},
		Logger:      zerolog.Nop(),
		CORSOrigins: []string{"http://localhost:5173"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[utils.ErrorResponse](t, resp).Code
}

func TestHealth(t *testing.T) {
	srv := newServer(t, nil)
	resp := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoLoginEndpoint(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodPost, "/api/auth/login", types.LoginRequest{Email: demoEmail, Password: demoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		User    auth.User     `json:"user"`
		Profile types.Profile `json:"profile"`
	}](t, resp)
	assert.Equal(t, demo.UserID, body.User.ID)
	require.NotNil(t, body.Profile.Username)
	assert.Equal(t, demo.Username, *body.Profile.Username)

	resp = do(t, srv, http.MethodPost, "/api/auth/login", types.LoginRequest{Email: demoEmail, Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not_authenticated", errorCode(t, resp))

	resp = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestsWithoutUserAreRejected(t *testing.T) {
	passthrough := func(next http.Handler) http.Handler { return next }
	srv := newServer(t, passthrough)

	resp := do(t, srv, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not_authenticated", errorCode(t, resp))
}

func TestCurrentUser(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[types.Profile](t, resp)
	assert.Equal(t, demo.UserID, profile.ID)

	resp = do(t, srv, http.MethodPut, "/api/me", types.UpdateProfileRequest{Username: ptr("filmfan")})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username_taken", errorCode(t, resp))

	resp = do(t, srv, http.MethodPut, "/api/me", types.UpdateProfileRequest{Bio: ptr("Updated bio")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile = decode[types.Profile](t, resp)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "Updated bio", *profile.Bio)
}

func TestPreferencesEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/me/preferences", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prefs := decode[types.Preferences](t, resp)
	assert.Equal(t, "pl", prefs.Language)
	assert.Equal(t, "dark", prefs.Theme)

	resp = do(t, srv, http.MethodPut, "/api/me/preferences", types.UpdatePreferencesRequest{Theme: ptr("light")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prefs = decode[types.Preferences](t, resp)
	assert.Equal(t, "pl", prefs.Language)
	assert.Equal(t, "light", prefs.Theme)

	resp = do(t, srv, http.MethodPut, "/api/me/preferences", types.UpdatePreferencesRequest{Language: ptr("de")})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", errorCode(t, resp))
}

func TestFriendEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/friends", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Friend](t, resp), 2)

	resp = do(t, srv, http.MethodPost, "/api/friends/requests", types.SendFriendRequestRequest{FriendID: filmFanID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_friends", errorCode(t, resp))

	resp = do(t, srv, http.MethodPost, "/api/friends/requests", types.SendFriendRequestRequest{FriendID: strangerID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := decode[types.Friendship](t, resp)
	assert.Equal(t, types.FriendshipPending, sent.Status)

	resp = do(t, srv, http.MethodPost, "/api/friends/requests", types.SendFriendRequestRequest{FriendID: strangerID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_requested", errorCode(t, resp))

	resp = do(t, srv, http.MethodGet, "/api/friends/requests/outgoing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.FriendRequest](t, resp), 1)

	resp = do(t, srv, http.MethodGet, "/api/friends/requests/incoming", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	incoming := decode[[]types.FriendRequest](t, resp)
	require.Len(t, incoming, 1)

	resp = do(t, srv, http.MethodPost, "/api/friends/requests/"+incoming[0].ID+"/accept", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.FriendshipAccepted, decode[types.Friendship](t, resp).Status)

	resp = do(t, srv, http.MethodGet, "/api/friends", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	friends := decode[[]types.Friend](t, resp)
	assert.Len(t, friends, 3)

	resp = do(t, srv, http.MethodDelete, "/api/friends/"+friends[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/friends/requests/"+sent.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUserSearchEndpoint(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/users/search?q=f", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]types.UserSearchResult](t, resp))

	resp = do(t, srv, http.MethodGet, "/api/users/search?q=film", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[[]types.UserSearchResult](t, resp)
	require.Len(t, results, 1)
	assert.Equal(t, "filmfan", results[0].Username)
	assert.Equal(t, types.RelationFriend, results[0].Relation)
}

func TestProfileVisibility(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/users/"+filmFanID+"/stats", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/users/"+filmFanID+"/favorites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fav := decode[types.FavoriteMedia](t, resp)
	assert.Len(t, fav.Movies, 1)

	resp = do(t, srv, http.MethodGet, "/api/users/"+strangerID+"/stats", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", errorCode(t, resp))

	resp = do(t, srv, http.MethodGet, "/api/me/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[types.UserStats](t, resp)
	assert.Equal(t, 5, stats.TotalRatings)
	assert.Equal(t, 2, stats.FriendsCount)
}

func TestReviewEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/reviews/movie/603", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := types.SaveReviewRequest{Title: "The Matrix", Rating: 8}
	resp = do(t, srv, http.MethodPut, "/api/reviews/movie/603", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body.Rating = 10
	body.ReviewText = ptr("Better on rewatch.")
	resp = do(t, srv, http.MethodPut, "/api/reviews/movie/603", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/reviews/movie/603", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	review := decode[types.Review](t, resp)
	assert.Equal(t, 10, review.Rating)
	require.NotNil(t, review.ReviewText)
	assert.Equal(t, "Better on rewatch.", *review.ReviewText)

	resp = do(t, srv, http.MethodGet, "/api/reviews/movie", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Review](t, resp), 4)

	resp = do(t, srv, http.MethodPut, "/api/reviews/movie/603", types.SaveReviewRequest{Title: "The Matrix", Rating: 11})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", errorCode(t, resp))

	resp = do(t, srv, http.MethodPut, "/api/reviews/book/1", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/reviews/movie/603", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, "/api/reviews/movie/603", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/reviews", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Review](t, resp), 5)
}

func TestWatchlistEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	req := types.AddToWatchlistRequest{Title: "Fight Club"}
	for range 2 {
		resp := do(t, srv, http.MethodPut, "/api/watchlist/movie/550", req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := do(t, srv, http.MethodGet, "/api/watchlist?kind=movie", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]types.WatchlistEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, 550, entries[0].MediaID)

	resp = do(t, srv, http.MethodGet, "/api/watchlist/movie/550", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[map[string]bool](t, resp)["in_watchlist"])

	resp = do(t, srv, http.MethodGet, "/api/watchlist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.WatchlistEntry](t, resp), 3)

	resp = do(t, srv, http.MethodGet, "/api/watchlist?kind=book", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/watchlist/movie/550", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/watchlist/movie/550", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[map[string]bool](t, resp)["in_watchlist"])
}

func TestCollectionEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodPost, "/api/collections", types.CreateCollectionRequest{Name: "Heists"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[types.Collection](t, resp)

	resp = do(t, srv, http.MethodPost, "/api/collections/"+created.ID+"/items", types.AddCollectionItemRequest{
		Kind: types.MediaMovie, MediaID: 550, Title: "Fight Club",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[types.CollectionItem](t, resp)

	resp = do(t, srv, http.MethodGet, "/api/collections/containing/movie/550", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refs := decode[[]types.CollectionRef](t, resp)
	assert.Contains(t, refs, types.CollectionRef{CollectionID: created.ID, Name: "Heists"})

	resp = do(t, srv, http.MethodGet, "/api/collections/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[types.Collection](t, resp).Items, 1)

	resp = do(t, srv, http.MethodPut, "/api/collections/"+created.ID, types.UpdateCollectionRequest{Name: "Heist films", IsPublic: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Heist films", decode[types.Collection](t, resp).Name)

	resp = do(t, srv, http.MethodDelete, "/api/collections/"+created.ID+"/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]types.Collection](t, resp), 3)

	resp = do(t, srv, http.MethodDelete, "/api/collections/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/collections/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", errorCode(t, resp))
}

func TestFriendFeedEndpoint(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/feed/friends", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[[]types.FriendActivity](t, resp)
	require.NotEmpty(t, feed)
	for _, a := range feed {
		assert.NotEqual(t, demo.UserID, a.UserID)
		assert.NotEmpty(t, a.Username)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp := do(t, srv, http.MethodGet, "/api/catalog/movie/550", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	details := decode[types.CatalogDetails](t, resp)
	assert.Equal(t, 550, details.ID)

	resp = do(t, srv, http.MethodGet, "/api/catalog/movie/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/catalog/movie/search?q=fight", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[types.CatalogPage](t, resp)
	require.NotEmpty(t, page.Results)
	assert.Equal(t, 550, page.Results[0].ID)

	resp = do(t, srv, http.MethodGet, "/api/catalog/tv/lists/popular", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[types.CatalogPage](t, resp)
	for _, item := range page.Results {
		assert.Equal(t, types.MediaSeries, item.Kind)
	}

	resp = do(t, srv, http.MethodGet, "/api/catalog/movie/lists/classics", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/catalog/book/search?q=dune", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/catalog/game/genres", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[[]types.Genre](t, resp))

	resp = do(t, srv, http.MethodGet, "/api/catalog/movie/discover?min_rating=8.5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, item := range decode[types.CatalogPage](t, resp).Results {
		assert.GreaterOrEqual(t, item.Rating, 8.5)
	}
}

func ptr[T any](v T) *T { return &v }
