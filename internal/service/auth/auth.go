package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/models"
	"github.com/nkiryanov/tokenauth/internal/repository"
	"github.com/nkiryanov/tokenauth/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during user registration or login process
	Hasher PasswordHasher

	// Header to read and write token to and its auth scheme
	AccessHeaderName string
	AccessAuthScheme string
}

// Auth service
type AuthService struct {
	accessHeaderName string
	accessAuthScheme string

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Manager to issue, check and revoke tokens
	tokenManager *tokenmanager.TokenManager

	// Storage to access long term data
	storage repository.Storage
}

func NewService(cfg Config, tokenManager *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefault(&cfg.AccessAuthScheme, defaultAccessAuthScheme)

	// Set default bcrypt hasher if not provided by user
	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}

	return &AuthService{
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
		hasher:           cfg.Hasher,
		tokenManager:     tokenManager,
		storage:          storage,
	}, nil
}

// Register new user and issue the first token
// User is not created if token could not be issued
// Returns apperrors.ErrUserAlreadyExists if username taken
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.IssuedToken, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	var token models.IssuedToken
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err := tx.User().CreateUser(ctx, username, hash)
		if err != nil {
			return fmt.Errorf("can't create user. Err: %w", err)
		}

		token, err = s.tokenManager.WithRepo(tx.Token()).Issue(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("token could not be issued. Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.IssuedToken{}, err
	}

	return token, nil
}

// Login user and issue new token
// Returns apperrors.ErrUserNotFound if user not exists or password is wrong
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.IssuedToken, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Spend the same time as for existing user
		_ = s.hasher.Compare(dummyHash(), password)
		return models.IssuedToken{}, apperrors.ErrUserNotFound
	default:
		return models.IssuedToken{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.IssuedToken{}, apperrors.ErrUserNotFound
	}

	token, err := s.tokenManager.Issue(ctx, user.ID)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	return token, nil
}

// Authenticate token secret and return owner id
func (s *AuthService) Authenticate(ctx context.Context, secret string) (uuid.UUID, error) {
	return s.tokenManager.Authenticate(ctx, secret)
}

// Logout revokes the only token
func (s *AuthService) Logout(ctx context.Context, secret string) error {
	return s.tokenManager.Revoke(ctx, secret)
}

// LogoutAll revokes every token of the user and returns how many were revoked
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.tokenManager.RevokeAll(ctx, userID)
}

func (s *AuthService) ListTokens(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	return s.tokenManager.ListTokens(ctx, userID)
}

// IsExpired checks token by the same clock Authenticate does
func (s *AuthService) IsExpired(token models.Token) bool {
	return s.tokenManager.IsExpired(token)
}

// Write token to response header
func (s *AuthService) SetToken(w http.ResponseWriter, token models.IssuedToken) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+token.Value)
}

// Read token secret from request header
// Returns apperrors.ErrTokenNotFound if header missed or malformed
func (s *AuthService) ReadToken(r *http.Request) (string, error) {
	header := r.Header.Get(s.accessHeaderName)
	if header == "" {
		return "", fmt.Errorf("header %s not set: %w", s.accessHeaderName, apperrors.ErrTokenNotFound)
	}

	scheme, secret, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) {
		return "", fmt.Errorf("auth scheme must be %s: %w", s.accessAuthScheme, apperrors.ErrTokenNotFound)
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("empty token: %w", apperrors.ErrTokenNotFound)
	}

	return secret, nil
}
