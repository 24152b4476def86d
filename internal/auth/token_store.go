package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"authgate/internal/cache"
)

const (
	revokedTokenKeyPrefix = "revoked:token:"
	userWatermarkPrefix   = "revoked:before:"
)

// TokenStoreInterface is the revocation set consulted by the request gate.
//
// Two mechanisms: a per-token denylist keyed by jti (logout revokes exactly
// the presented token) and a per-user watermark (a password change rejects
// every token issued before it). Entries carry a TTL no longer than the token
// lifetime, so the set stays small.
//
// The store is backed by the fail-safe cache client: when Redis is down,
// lookups report "not revoked" and the gate proceeds on signature and expiry
// alone. Availability over strictness.
type TokenStoreInterface interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUserTokensBefore(ctx context.Context, userID uuid.UUID, t time.Time, ttl time.Duration) error
	TokensRevokedBefore(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
}

// TokenStore handles revocation entries in Redis.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// RevokeToken denylists a single token id until its natural expiry.
func (s *TokenStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+jti, []byte("1"), ttl)
}

// IsTokenRevoked checks the per-token denylist.
func (s *TokenStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+jti)
}

// RevokeUserTokensBefore records a watermark: tokens for userID issued before
// t are rejected. ttl should be the token lifetime, after which no live token
// can predate the watermark anyway.
func (s *TokenStore) RevokeUserTokensBefore(ctx context.Context, userID uuid.UUID, t time.Time, ttl time.Duration) error {
	payload := strconv.FormatInt(t.Unix(), 10)
	return s.cache.Set(ctx, userWatermarkPrefix+userID.String(), []byte(payload), ttl)
}

// TokensRevokedBefore returns the user's watermark, if one is set.
func (s *TokenStore) TokensRevokedBefore(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	data, err := s.cache.Get(ctx, userWatermarkPrefix+userID.String())
	if err != nil || data == nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(unix, 0), true, nil
}
