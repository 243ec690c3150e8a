package cafe24

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	tok     *Token
	saved   int
	loadErr error
}

func (m *memoryStore) Load(context.Context) (*Token, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.tok == nil {
		return nil, nil
	}
	cp := *m.tok
	return &cp, nil
}

func (m *memoryStore) Save(_ context.Context, tok Token) error {
	m.tok = &tok
	m.saved++
	return nil
}

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *OAuth {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := NewOAuth(OAuthConfig{
		MallID:       "mall",
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/callback",
		BaseURL:      srv.URL,
	})
	o.now = func() time.Time { return testNow }
	return o
}

func TestOAuth_AuthURL(t *testing.T) {
	o := NewOAuth(OAuthConfig{MallID: "mall", ClientID: "client", RedirectURI: "http://localhost/callback"})

	u, err := url.Parse(o.AuthURL())
	require.NoError(t, err)
	assert.Equal(t, "mall.cafe24api.com", u.Host)
	assert.Equal(t, "/api/v2/oauth/authorize", u.Path)
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "mall.read_order mall.read_product mall.read_store", u.Query().Get("scope"))
	assert.Equal(t, "cafe24_auth", u.Query().Get("state"))
}

func TestOAuth_ExchangeCode(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "abc" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "a1", "refresh_token": "r1", "expires_in": 7200})
	})

	tok, err := o.ExchangeCode(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: testNow.Add(2 * time.Hour)}, tok)
}

func TestOAuth_RefreshKeepsRefreshToken(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "a2"})
	})

	tok, err := o.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", tok.RefreshToken)
	assert.Equal(t, testNow.Add(time.Hour), tok.ExpiresAt)
}

func TestOAuth_ErrorStatus(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
	})

	_, err := o.Refresh(context.Background(), "r1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func newProvider(store TokenStore, o *OAuth) *TokenProvider {
	p := NewTokenProvider(store, o)
	p.now = func() time.Time { return testNow }
	return p
}

func TestTokenProvider_NoToken(t *testing.T) {
	p := newProvider(&memoryStore{}, NewOAuth(OAuthConfig{MallID: "mall"}))

	_, err := p.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNeedsAuth)
	assert.False(t, p.Authenticated(context.Background()))
}

func TestTokenProvider_FreshToken(t *testing.T) {
	store := &memoryStore{tok: &Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: testNow.Add(time.Hour)}}
	p := newProvider(store, NewOAuth(OAuthConfig{MallID: "mall"}))

	tok, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", tok)
	assert.Zero(t, store.saved)
	assert.True(t, p.Authenticated(context.Background()))
}

func TestTokenProvider_RefreshesWithinMargin(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "r1", r.PostForm.Get("refresh_token"))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "a2", "refresh_token": "r2", "expires_in": 3600})
	})
	store := &memoryStore{tok: &Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: testNow.Add(4 * time.Minute)}}
	p := newProvider(store, o)

	tok, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", tok)
	assert.Equal(t, 1, store.saved)
	assert.Equal(t, "r2", store.tok.RefreshToken)
}

func TestTokenProvider_RefreshFailureNeedsAuth(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	store := &memoryStore{tok: &Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: testNow.Add(-time.Hour)}}
	p := newProvider(store, o)

	_, err := p.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNeedsAuth)
	assert.Zero(t, store.saved)
}

func TestTokenProvider_StoreError(t *testing.T) {
	boom := errors.New("store down")
	p := newProvider(&memoryStore{loadErr: boom}, NewOAuth(OAuthConfig{MallID: "mall"}))

	_, err := p.AccessToken(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNeedsAuth)
}

func TestTokenProvider_SaveGrant(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "a1", "refresh_token": "r1"})
	})
	store := &memoryStore{}
	p := newProvider(store, o)

	require.NoError(t, p.SaveGrant(context.Background(), "code"))
	require.NotNil(t, store.tok)
	assert.Equal(t, "a1", store.tok.AccessToken)
}

func TestRedisTokenStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisTokenStore(rdb)
	store.key = "cafe24:token:test"
	ctx := context.Background()
	t.Cleanup(func() { rdb.Del(ctx, store.key) })

	tok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	want := Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: testNow}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}
