package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/cache"
	"github.com/nkiryanov/tokenauth/internal/logger"
	"github.com/nkiryanov/tokenauth/internal/metrics"
	"github.com/nkiryanov/tokenauth/internal/models"
	"github.com/nkiryanov/tokenauth/internal/repository"
)

const (
	defaultTokenTTL    = 48 * time.Hour
	defaultMaxAttempts = 3
	defaultCacheTTL    = time.Minute
)

// Token manager with sensible default
type Config struct {
	// Secret key to hash token secrets before storing
	// Required to be set
	SecretKey string

	// Token lifetime
	// If not set than default is used
	TTL time.Duration

	// How many secrets generate before give up on conflicts
	// If not set than default is used
	MaxAttempts int

	// Optional read-through cache for authentication
	Cache cache.TokenCache

	// The longest time token may stay in cache
	// Revoked token may still be served from a cache of other instance no longer than that
	CacheTTL time.Duration

	// Secret generator. RandomGenerator if not set
	Generator Generator

	// Clock. time.Now if not set
	Now func() time.Time

	Logger logger.Logger
}

// TokenManager issues, validates and revokes bearer tokens
// Tokens are never updated: issued once, then expired or deleted
type TokenManager struct {
	ttl         time.Duration
	maxAttempts int
	cacheTTL    time.Duration

	hasher    Hasher
	generator Generator
	now       func() time.Time

	tokenRepo repository.TokenRepo
	cache     cache.TokenCache
	logger    logger.Logger
}

func New(cfg Config, tokenRepo repository.TokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if tokenRepo == nil {
		return nil, errors.New("token repo must not be nil")
	}

	if cfg.TTL < 0 || cfg.CacheTTL < 0 || cfg.MaxAttempts < 0 {
		return nil, errors.New("ttl and attempts must not be negative")
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.TTL, defaultTokenTTL)
	setDefaultDuration(&cfg.CacheTTL, defaultCacheTTL)

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Generator == nil {
		cfg.Generator = RandomGenerator{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	return &TokenManager{
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		cacheTTL:    cfg.CacheTTL,
		hasher:      NewHasher(cfg.SecretKey),
		generator:   cfg.Generator,
		now:         cfg.Now,
		tokenRepo:   tokenRepo,
		cache:       cfg.Cache,
		logger:      cfg.Logger,
	}, nil
}

// TTL of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// WithRepo returns manager with the same settings and cache working over another repo
// Use it to issue tokens within a transaction
func (m *TokenManager) WithRepo(tokenRepo repository.TokenRepo) *TokenManager {
	clone := *m
	clone.tokenRepo = tokenRepo
	return &clone
}

// IsExpired reports whether token is expired by the manager clock
func (m *TokenManager) IsExpired(token models.Token) bool {
	return token.IsExpired(m.now())
}

// Issue new token for the user
// The returned plaintext is not stored anywhere, so it is the only chance to get it
func (m *TokenManager) Issue(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error) {
	var lastErr error

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		secret, err := m.generator.Generate()
		if err != nil {
			metrics.IssuanceFailures.Inc()
			return models.IssuedToken{}, fmt.Errorf("%w: %w", apperrors.ErrTokenIssuanceFailed, err)
		}

		now := m.now()
		token, err := m.tokenRepo.Create(ctx, repository.CreateTokenParams{
			UserID:    userID,
			TokenHash: m.hasher.Hash(secret),
			CreatedAt: now,
			ExpiresAt: now.Add(m.ttl),
		})

		switch {
		case err == nil:
			metrics.TokensIssued.Inc()
			return models.IssuedToken{Value: secret, ExpiresAt: token.ExpiresAt}, nil
		case errors.Is(err, apperrors.ErrTokenConflict):
			metrics.TokenConflicts.Inc()
			m.logger.Warn("Generated token conflicts with stored one", "attempt", attempt, "user_id", userID)
			lastErr = err
		default:
			metrics.IssuanceFailures.Inc()
			return models.IssuedToken{}, fmt.Errorf("error while saving token. Err: %w", err)
		}
	}

	metrics.IssuanceFailures.Inc()
	return models.IssuedToken{}, fmt.Errorf("%w: %d attempts made, last error: %w", apperrors.ErrTokenIssuanceFailed, m.maxAttempts, lastErr)
}

// Authenticate returns id of the token owner
// If token unknown: apperrors.ErrTokenNotFound
// If token expired: apperrors.ErrTokenExpired
func (m *TokenManager) Authenticate(ctx context.Context, secret string) (uuid.UUID, error) {
	if secret == "" {
		metrics.Authentications.WithLabelValues(metrics.ResultNotFound).Inc()
		return uuid.Nil, fmt.Errorf("empty token: %w", apperrors.ErrTokenNotFound)
	}

	token, err := m.lookup(ctx, m.hasher.Hash(secret))
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTokenNotFound):
		metrics.Authentications.WithLabelValues(metrics.ResultNotFound).Inc()
		return uuid.Nil, err
	default:
		metrics.Authentications.WithLabelValues(metrics.ResultError).Inc()
		return uuid.Nil, fmt.Errorf("error while getting token. Err: %w", err)
	}

	if token.IsExpired(m.now()) {
		metrics.Authentications.WithLabelValues(metrics.ResultExpired).Inc()
		return uuid.Nil, fmt.Errorf("token expired at %s: %w", token.ExpiresAt.Format(time.RFC3339), apperrors.ErrTokenExpired)
	}

	metrics.Authentications.WithLabelValues(metrics.ResultOK).Inc()
	return token.Owner(), nil
}

// Look for token in cache first, then in repo
// Cache failures are logged and never fail the lookup
func (m *TokenManager) lookup(ctx context.Context, tokenHash string) (models.Token, error) {
	if m.cache != nil {
		token, ok, err := m.cache.Get(ctx, tokenHash)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
			m.logger.Warn("Token cache lookup failed", "error", err)
		case ok:
			metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
			return token, nil
		default:
			metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		}
	}

	token, err := m.tokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return token, err
	}

	if m.cache != nil {
		ttl := min(m.cacheTTL, token.ExpiresAt.Sub(m.now()))
		if err := m.cache.Add(ctx, token, ttl); err != nil {
			m.logger.Warn("Failed to put token to cache", "error", err)
		}
	}

	return token, nil
}

// Revoke deletes the token with the secret
// Unknown secret is not an error
func (m *TokenManager) Revoke(ctx context.Context, secret string) error {
	tokenHash := m.hasher.Hash(secret)

	token, err := m.tokenRepo.GetByHash(ctx, tokenHash)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return m.invalidate(ctx, tokenHash)
	default:
		return fmt.Errorf("error while getting token. Err: %w", err)
	}

	if err := m.tokenRepo.Delete(ctx, token.ID); err != nil {
		return fmt.Errorf("error while deleting token. Err: %w", err)
	}
	metrics.TokensRevoked.Inc()

	return m.invalidate(ctx, tokenHash)
}

// RevokeAll deletes every token of the user and returns how many were deleted
func (m *TokenManager) RevokeAll(ctx context.Context, userID uuid.UUID) (int, error) {
	deleted, err := m.tokenRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error while deleting user tokens. Err: %w", err)
	}
	metrics.TokensRevoked.Add(float64(len(deleted)))

	hashes := make([]string, 0, len(deleted))
	for _, t := range deleted {
		hashes = append(hashes, t.TokenHash)
	}

	return len(deleted), m.invalidate(ctx, hashes...)
}

func (m *TokenManager) invalidate(ctx context.Context, tokenHashes ...string) error {
	if m.cache == nil || len(tokenHashes) == 0 {
		return nil
	}

	// Lookup that read the token before deletion may still try to cache it.
	// The mark outlives any entry such lookup could add
	if err := m.cache.Revoke(ctx, m.cacheTTL, tokenHashes...); err != nil {
		return fmt.Errorf("tokens deleted but cache not invalidated. Err: %w", err)
	}
	return nil
}

// ListTokens returns all user tokens, expired ones included
func (m *TokenManager) ListTokens(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	tokens, err := m.tokenRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error while listing tokens. Err: %w", err)
	}
	return tokens, nil
}

// PurgeExpired physically removes at most limit expired tokens
func (m *TokenManager) PurgeExpired(ctx context.Context, limit int) (int64, error) {
	count, err := m.tokenRepo.DeleteExpired(ctx, m.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("error while deleting expired tokens. Err: %w", err)
	}
	metrics.TokensPurged.Add(float64(count))

	return count, nil
}
