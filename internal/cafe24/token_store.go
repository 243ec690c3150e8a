package cafe24

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenStore persists the single OAuth grant of the mall. Load returns nil, nil
// when nothing has been stored yet.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, tok Token) error
}

const (
	redisTokenKey = "cafe24:token"
	// a refresh token outlives its access token by about two weeks
	redisTokenTTL = 14 * 24 * time.Hour
)

type RedisTokenStore struct {
	rdb redis.Cmdable
	key string
}

func NewRedisTokenStore(rdb redis.Cmdable) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, key: redisTokenKey}
}

func (s *RedisTokenStore) Load(ctx context.Context) (*Token, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cafe24 token: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode cafe24 token: %w", err)
	}
	return &tok, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, tok Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, raw, redisTokenTTL).Err(); err != nil {
		return fmt.Errorf("save cafe24 token: %w", err)
	}
	return nil
}

// TokenProvider hands out a valid access token, refreshing it when it is about to expire
type TokenProvider struct {
	store TokenStore
	oauth *OAuth
	now   func() time.Time

	mu sync.Mutex
}

func NewTokenProvider(store TokenStore, oauth *OAuth) *TokenProvider {
	return &TokenProvider{store: store, oauth: oauth, now: time.Now}
}

// AccessToken returns ErrNeedsAuth when there is no grant or it cannot be refreshed
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if tok == nil {
		return "", ErrNeedsAuth
	}
	if tok.Fresh(p.now()) {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", ErrNeedsAuth
	}

	refreshed, err := p.oauth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		zap.L().Warn("cafe24 token refresh failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrNeedsAuth, err)
	}
	if err := p.store.Save(ctx, refreshed); err != nil {
		return "", err
	}
	zap.L().Info("cafe24 token refreshed", zap.Time("expires_at", refreshed.ExpiresAt))
	return refreshed.AccessToken, nil
}

// Authenticated reports whether a stored access token has not yet expired
func (p *TokenProvider) Authenticated(ctx context.Context) bool {
	tok, err := p.store.Load(ctx)
	if err != nil || tok == nil {
		return false
	}
	return tok.ExpiresAt.After(p.now())
}

func (p *TokenProvider) AuthURL() string {
	return p.oauth.AuthURL()
}

// SaveGrant completes the authorization-code flow and stores the token
func (p *TokenProvider) SaveGrant(ctx context.Context, code string) error {
	tok, err := p.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Save(ctx, tok)
}
