package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/handlers/render"
	"github.com/nkiryanov/tokenauth/internal/handlers/userctx"
	"github.com/nkiryanov/tokenauth/internal/logger"
	"github.com/nkiryanov/tokenauth/internal/models"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenResponse(t models.IssuedToken) tokenResponse {
	return tokenResponse{Token: t.Value, ExpiresAt: t.ExpiresAt}
}

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required,min=2,max=50,username"`
		Password string `json:"password" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("Invalid register request", "error", err)
			return
		}

		token, err := authService.Register(r.Context(), data.Login, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("Failed to register user", "error", err)
				render.InternalError(w)
			}
			return
		}

		authService.SetToken(w, token)
		render.JSON(w, newTokenResponse(token))
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("Invalid login request", "error", err)
			return
		}

		token, err := authService.Login(r.Context(), data.Login, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusUnauthorized)
			default:
				l.Error("Failed to login user", "error", err)
				render.InternalError(w)
			}
			return
		}

		authService.SetToken(w, token)
		render.JSON(w, newTokenResponse(token))
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := userctx.FromContext(r.Context())

		if err := authService.Logout(r.Context(), session.Token); err != nil {
			l.Error("Failed to revoke token", "user_id", session.UserID, "error", err)
			render.InternalError(w)
			return
		}

		render.JSON(w, response{Message: "Logged out"})
	})
}

func handleLogoutAll(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Revoked int `json:"revoked"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := userctx.FromContext(r.Context())

		count, err := authService.LogoutAll(r.Context(), session.UserID)
		if err != nil {
			l.Error("Failed to revoke user tokens", "user_id", session.UserID, "error", err)
			render.InternalError(w)
			return
		}

		l.Info("User tokens revoked", "user_id", session.UserID, "count", count)
		render.JSON(w, response{Revoked: count})
	})
}

func handleListTokens(authService authService, l logger.Logger) http.Handler {
	type token struct {
		ID        int64     `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		ExpiresAt time.Time `json:"expires_at"`
		Expired   bool      `json:"expired"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := userctx.FromContext(r.Context())

		tokens, err := authService.ListTokens(r.Context(), session.UserID)
		if err != nil {
			l.Error("Failed to list user tokens", "user_id", session.UserID, "error", err)
			render.InternalError(w)
			return
		}

		response := make([]token, 0, len(tokens))
		for _, t := range tokens {
			response = append(response, token{
				ID:        t.ID,
				CreatedAt: t.CreatedAt,
				ExpiresAt: t.ExpiresAt,
				Expired:   authService.IsExpired(t),
			})
		}

		render.JSON(w, response)
	})
}
