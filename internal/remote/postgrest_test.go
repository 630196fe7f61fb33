package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popstack/internal/remote"
)

func TestPostgRESTSelectEncodesFilters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"f1","status":"accepted","created_at":"2024-03-01T10:00:00.5+00:00"}]`))
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "anon-key")
	rows, err := gw.Select(context.Background(), remote.From("friendships").
		Eq("status", "accepted").
		Or(
			remote.All(remote.Eq("user_id", "a"), remote.Eq("friend_id", "b")),
			remote.All(remote.Eq("user_id", "b"), remote.Eq("friend_id", "a")),
		).
		Order("created_at", true).
		Limit(5))
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/friendships", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "eq.accepted", q.Get("status"))
	assert.Equal(t, "(and(user_id.eq.a,friend_id.eq.b),and(user_id.eq.b,friend_id.eq.a))", q.Get("or"))
	assert.Equal(t, "created_at.desc", q.Get("order"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "*", q.Get("select"))
	assert.Equal(t, "anon-key", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", got.Header.Get("Authorization"))

	require.Len(t, rows, 1)
	assert.Equal(t, 2024, rows[0].Time("created_at").Year())
}

func TestPostgRESTInAndILike(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "k")
	_, err := gw.Select(context.Background(), remote.From("profiles").
		Filter(remote.In("id", []string{"a", "b,c"})).
		Filter(remote.ILike("username", remote.Contains("ann"))))
	require.NoError(t, err)

	assert.Equal(t, []string{`in.(a,"b,c")`}, query["id"])
	assert.Equal(t, []string{"ilike.*ann*"}, query["username"])
}

func TestPostgRESTILikeKeepsUserTextLiteral(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "k")
	ctx := context.Background()

	_, err := gw.Select(ctx, remote.From("profiles").Filter(remote.ILike("username", remote.Contains("r_s%"))))
	require.NoError(t, err)
	assert.Equal(t, []string{`ilike.*r\_s\%*`}, query["username"])

	_, err = gw.Select(ctx, remote.From("profiles").Filter(remote.ILike("username", remote.Contains("a*b"))))
	require.NoError(t, err)
	assert.Equal(t, []string{`imatch.^.*a\*b.*$`}, query["username"])

	_, err = gw.Select(ctx, remote.From("profiles").Or(
		remote.All(remote.ILike("username", remote.Contains("a*b"))),
		remote.All(remote.Eq("id", "x")),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{`(username.imatch."^.*a\\*b.*$",id.eq.x)`}, query["or"])
}

func TestPostgRESTErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint","details":"Key (pair_key)","hint":null}`))
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "k")
	_, err := gw.Insert(context.Background(), "friendships", remote.Record{"id": "x"})
	require.Error(t, err)
	assert.True(t, remote.IsUniqueViolation(err))

	var re *remote.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.Equal(t, "Key (pair_key)", re.Details)
}

func TestPostgRESTServerFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "k")
	_, err := gw.Select(context.Background(), remote.From("profiles"))
	assert.True(t, remote.IsTransport(err))
}

func TestPostgRESTUpsertAndCount(t *testing.T) {
	var prefer, onConflict, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		prefer = r.Header.Get("Prefer")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Range", "0-0/42")
			return
		}
		onConflict = r.URL.Query().Get("on_conflict")
		w.Write([]byte(`[{"user_id":"u1","language":"en","theme":"light"}]`))
	}))
	defer srv.Close()

	gw := remote.NewPostgRESTGateway(srv.URL, "k")
	rec, err := gw.Upsert(context.Background(), "user_preferences",
		remote.Record{"user_id": "u1", "language": "en", "theme": "light"}, "user_id")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "return=representation,resolution=merge-duplicates", prefer)
	assert.Equal(t, "user_id", onConflict)
	assert.Equal(t, "en", rec.String("language"))

	n, err := gw.Count(context.Background(), remote.From("activities").Eq("user_id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "count=exact", prefer)
	assert.Equal(t, 42, n)
}
