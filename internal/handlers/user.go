package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/handlers/render"
	"github.com/nkiryanov/tokenauth/internal/handlers/userctx"
	"github.com/nkiryanov/tokenauth/internal/logger"
)

func handleUserMe(userService userService, l logger.Logger) http.Handler {
	type response struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := userctx.FromContext(r.Context())

		user, err := userService.GetUser(r.Context(), session.UserID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.Unauthorized(w)
			default:
				l.Error("Failed to get user", "user_id", session.UserID, "error", err)
				render.InternalError(w)
			}
			return
		}

		render.JSON(w, response{ID: user.ID, Username: user.Username})
	})
}
