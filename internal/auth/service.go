// Package auth issues and verifies the two token kinds the API runs on:
// short-lived HMAC-signed access tokens verified statelessly, and
// long-lived refresh tokens stored in redis and rotated on every use.
// Every protected route resolves to one trustworthy owner ID; the core
// packages only ever see that ID.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

const refreshKeyPrefix = "paperbill:refresh:"

// TokenPair is the result of login and refresh operations.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Service issues and verifies tokens.
type Service struct {
	secret     []byte
	redis      *redis.Client
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService constructs a token service.
func NewService(secret string, rdb *redis.Client, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		redis:      rdb,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair creates a fresh access+refresh pair for ownerID.
func (s *Service) IssuePair(ctx context.Context, ownerID int64) (*TokenPair, error) {
	now := s.now()
	access, accessExp := s.signAccess(ownerID, now)

	refreshID := uuid.NewString()
	refreshExp := now.Add(s.refreshTTL)
	if err := s.redis.Set(ctx, refreshKeyPrefix+refreshID, ownerID, s.refreshTTL).Err(); err != nil {
		return nil, fmt.Errorf("auth: store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshID,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh rotates a refresh token: the presented token is consumed
// atomically and a new pair is issued. A reused or expired token fails
// with unauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	val, err := s.redis.GetDel(ctx, refreshKeyPrefix+refreshToken).Result()
	if err == redis.Nil {
		return nil, httpx.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load refresh token: %w", err)
	}
	ownerID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, httpx.ErrUnauthorized
	}
	return s.IssuePair(ctx, ownerID)
}

// Revoke drops a refresh token, ending the session.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshKeyPrefix+refreshToken).Err()
}

// VerifyAccess checks an access token's signature and expiry and returns
// the owner ID it was issued for.
func (s *Service) VerifyAccess(token string) (int64, error) {
	payloadPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return 0, httpx.ErrUnauthorized
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return 0, httpx.ErrUnauthorized
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return 0, httpx.ErrUnauthorized
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return 0, httpx.ErrUnauthorized
	}

	fields := strings.Split(string(payload), "|")
	if len(fields) != 3 {
		return 0, httpx.ErrUnauthorized
	}
	ownerID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, httpx.ErrUnauthorized
	}
	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, httpx.ErrUnauthorized
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return 0, httpx.ErrUnauthorized
	}
	return ownerID, nil
}

func (s *Service) signAccess(ownerID int64, now time.Time) (string, time.Time) {
	exp := now.Add(s.accessTTL)
	payload := fmt.Sprintf("%d|%d|%s", ownerID, exp.Unix(), uuid.NewString())
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." + base64.RawURLEncoding.EncodeToString(s.sign([]byte(payload)))
	return token, exp
}

func (s *Service) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
