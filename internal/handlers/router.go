package handlers

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/handlers/middleware"
	"github.com/nkiryanov/tokenauth/internal/logger"
	"github.com/nkiryanov/tokenauth/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Max time to authenticate one request
	AuthTimeout time.Duration
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.NewAuth(authService, cfg.AuthTimeout, logger).Auth

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))

	apiuser.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiuser.Handle("POST /logout/all", withAuth(handleLogoutAll(authService, logger)))
	apiuser.Handle("GET /tokens", withAuth(handleListTokens(authService, logger)))
	apiuser.Handle("GET /me", withAuth(handleUserMe(userService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))

	handler := chain(root,
		chimw.RequestID,
		middleware.LoggerMiddleware(logger),
		chimw.Recoverer,
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.IssuedToken, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password is wrong
	Login(ctx context.Context, username string, password string) (models.IssuedToken, error)

	// Return token owner
	// If token expired: has to return apperrors.ErrTokenExpired
	// If token not found: has to return apperrors.ErrTokenNotFound
	Authenticate(ctx context.Context, secret string) (uuid.UUID, error)

	// Revoke one token. Unknown token is not an error
	Logout(ctx context.Context, secret string) error

	// Revoke all user tokens and return how many revoked
	LogoutAll(ctx context.Context, userID uuid.UUID) (int, error)

	ListTokens(ctx context.Context, userID uuid.UUID) ([]models.Token, error)

	// Whether token is expired at the moment Authenticate would check it
	IsExpired(token models.Token) bool

	// Set token to response
	SetToken(w http.ResponseWriter, token models.IssuedToken)

	// Get token from request
	ReadToken(r *http.Request) (string, error)
}

type userService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}
