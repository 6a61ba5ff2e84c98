package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/handlers/render"
	"github.com/nkiryanov/tokenauth/internal/handlers/userctx"
	"github.com/nkiryanov/tokenauth/internal/logger"
)

const defaultAuthTimeout = 3 * time.Second

type authService interface {
	// Read token secret from request
	ReadToken(r *http.Request) (string, error)

	// Return token owner id
	// If token unknown: apperrors.ErrTokenNotFound
	// If token expired: apperrors.ErrTokenExpired
	Authenticate(ctx context.Context, secret string) (uuid.UUID, error)
}

type Auth struct {
	auth    authService
	timeout time.Duration
	logger  logger.Logger
}

func NewAuth(as authService, timeout time.Duration, l logger.Logger) *Auth {
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Auth{auth: as, timeout: timeout, logger: l}
}

// Auth lets request through only with valid token
// Unknown and expired tokens get the same response, the difference is visible in logs only
func (a *Auth) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret, err := a.auth.ReadToken(r)
		if err != nil {
			a.unauthorized(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
		userID, err := a.auth.Authenticate(ctx, secret)
		cancel()
		if err != nil {
			a.unauthorized(w, r, err)
			return
		}

		ctx = userctx.New(r.Context(), userctx.Session{UserID: userID, Token: secret})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Auth) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	l := a.logger.With("request_id", chimw.GetReqID(r.Context()), "uri", r.RequestURI)

	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound):
		l.Debug("Unauthorized: token not found", "error", err)
	case errors.Is(err, apperrors.ErrTokenExpired):
		l.Debug("Unauthorized: token expired", "error", err)
	default:
		l.Warn("Unauthorized: token could not be checked", "error", err)
	}

	render.Unauthorized(w)
}
