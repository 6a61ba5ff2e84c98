package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/models"
	"github.com/nkiryanov/tokenauth/internal/repository"
)

type TokenRepo struct {
	s *Storage
}

// Create token. Hash uniqueness is checked and token stored under the same lock
func (r *TokenRepo) Create(_ context.Context, params repository.CreateTokenParams) (models.Token, error) {
	if params.ExpiresAt.IsZero() {
		return models.Token{}, errors.New("repo error: token expiration must be set")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokenHashes[params.TokenHash]; ok {
		return models.Token{}, fmt.Errorf("repo error: %w", apperrors.ErrTokenConflict)
	}

	r.s.lastTokenID++
	token := models.Token{
		ID:        r.s.lastTokenID,
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	r.s.tokens[token.ID] = token
	r.s.tokenHashes[token.TokenHash] = token.ID
	r.s.onRollback(func() {
		delete(r.s.tokenHashes, token.TokenHash)
		delete(r.s.tokens, token.ID)
	})

	return token, nil
}

func (r *TokenRepo) GetByHash(_ context.Context, tokenHash string) (models.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.tokenHashes[tokenHash]
	if !ok {
		return models.Token{}, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	}

	return r.s.tokens[id], nil
}

func (r *TokenRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tokens := make([]models.Token, 0)
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			tokens = append(tokens, t)
		}
	}
	sortByCreation(tokens)

	return tokens, nil
}

func (r *TokenRepo) Delete(_ context.Context, tokenID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.deleteToken(tokenID)
	return nil
}

func (r *TokenRepo) DeleteByUser(_ context.Context, userID uuid.UUID) ([]models.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := make([]models.Token, 0)
	for id, t := range r.s.tokens {
		if t.UserID == userID {
			deleted = append(deleted, t)
			r.s.deleteToken(id)
		}
	}
	sortByCreation(deleted)

	return deleted, nil
}

func (r *TokenRepo) DeleteExpired(_ context.Context, before time.Time, limit int) (int64, error) {
	if limit < 0 {
		return 0, fmt.Errorf("repo error: %w", repository.ErrNegativeLimit)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	expired := make([]models.Token, 0)
	for _, t := range r.s.tokens {
		if t.IsExpired(before) {
			expired = append(expired, t)
		}
	}

	// Oldest expired first, same as postgres repo does
	slices.SortFunc(expired, func(a, b models.Token) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})
	if len(expired) > limit {
		expired = expired[:limit]
	}

	for _, t := range expired {
		r.s.deleteToken(t.ID)
	}

	return int64(len(expired)), nil
}

// Must be called with write lock held
func (s *Storage) deleteToken(id int64) {
	t, ok := s.tokens[id]
	if !ok {
		return
	}
	delete(s.tokenHashes, t.TokenHash)
	delete(s.tokens, id)
	s.onRollback(func() {
		s.tokens[id] = t
		s.tokenHashes[t.TokenHash] = id
	})
}

func sortByCreation(tokens []models.Token) {
	slices.SortFunc(tokens, func(a, b models.Token) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
}
