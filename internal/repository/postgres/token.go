package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/models"
	"github.com/nkiryanov/tokenauth/internal/repository"
)

type TokenRepo struct {
	DB DBTX
}

const createToken = `-- name: CreateToken
INSERT INTO user_tokens (user_id, token_hash, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT ON CONSTRAINT user_tokens_token_hash_key DO NOTHING
RETURNING id, user_id, token_hash, created_at, expires_at
`

func (r *TokenRepo) Create(ctx context.Context, params repository.CreateTokenParams) (models.Token, error) {
	if params.ExpiresAt.IsZero() {
		return models.Token{}, errors.New("repo error: token expiration must be set")
	}

	rows, _ := r.DB.Query(ctx, createToken, params.UserID, params.TokenHash, params.CreatedAt, params.ExpiresAt)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	// Conflict is reported as no row, not as unique violation:
	// the violation would abort transaction the token is created in
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenConflict)
	case err != nil:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenConflict)
		}

		return token, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

const getTokenByHash = `-- name: GetTokenByHash
SELECT id, user_id, token_hash, created_at, expires_at
FROM user_tokens
WHERE token_hash = $1
`

// Get token by hash
// It should return result even it expired already
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByHash, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const listTokensByUser = `-- name: ListTokensByUser
SELECT id, user_id, token_hash, created_at, expires_at
FROM user_tokens
WHERE user_id = $1
ORDER BY created_at, id
`

func (r *TokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	rows, _ := r.DB.Query(ctx, listTokensByUser, userID)
	tokens, err := pgx.CollectRows(rows, rowToToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}

const deleteToken = `-- name: DeleteToken
DELETE FROM user_tokens
WHERE id = $1
`

func (r *TokenRepo) Delete(ctx context.Context, tokenID int64) error {
	_, err := r.DB.Exec(ctx, deleteToken, tokenID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const deleteTokensByUser = `-- name: DeleteTokensByUser
DELETE FROM user_tokens
WHERE user_id = $1
RETURNING id, user_id, token_hash, created_at, expires_at
`

func (r *TokenRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	rows, _ := r.DB.Query(ctx, deleteTokensByUser, userID)
	tokens, err := pgx.CollectRows(rows, rowToToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tokens, nil
}

const deleteExpiredTokens = `-- name: DeleteExpiredTokens
DELETE FROM user_tokens
WHERE id IN (
	SELECT id FROM user_tokens
	WHERE expires_at <= $1
	ORDER BY expires_at
	LIMIT $2
)
`

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error) {
	// Postgres rejects negative LIMIT itself, fail the same way memory repo does
	if limit < 0 {
		return 0, fmt.Errorf("repo error: %w", repository.ErrNegativeLimit)
	}

	tag, err := r.DB.Exec(ctx, deleteExpiredTokens, before, limit)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt)
	return t, err
}
