package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/models"
)

// Returned by TokenRepo.DeleteExpired for limit below zero
var ErrNegativeLimit = errors.New("limit must not be negative")

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type CreateTokenParams struct {
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Token repository interface
// It is a dumb persistence layer: it never checks expiration on reads
type TokenRepo interface {
	// Store new token, the repository assigns token ID
	// If token with the same hash exists must return apperrors.ErrTokenConflict
	// The check has to be atomic (unique constraint or so), not check-then-insert
	Create(ctx context.Context, params CreateTokenParams) (models.Token, error)

	// Get token by its hash. Expired tokens are returned too
	// If token not found must return apperrors.ErrTokenNotFound
	GetByHash(ctx context.Context, tokenHash string) (models.Token, error)

	// All user tokens (expired included) ordered by creation time
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error)

	// Delete token by id. Deleting not existed token is not an error
	Delete(ctx context.Context, tokenID int64) error

	// Delete all user tokens and return deleted ones
	DeleteByUser(ctx context.Context, userID uuid.UUID) ([]models.Token, error)

	// Delete at most 'limit' tokens expired at 'before' moment, the oldest first
	// Zero limit deletes nothing. Negative limit must fail with ErrNegativeLimit
	// Return count of deleted tokens
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error)
}

// Storage groups repositories over the same connection (or transaction)
type Storage interface {
	User() UserRepo
	Token() TokenRepo

	// Run fn in transaction: all of its writes are applied or none
	InTx(ctx context.Context, fn func(Storage) error) error
}
