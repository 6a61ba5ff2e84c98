package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/tokenauth/internal/apperrors"
	"github.com/nkiryanov/tokenauth/internal/repository"
)

func TestStorage_InTx(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	failure := errors.New("failure")

	t.Run("commit", func(t *testing.T) {
		storage := NewStorage()

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			_, err := s.User().CreateUser(t.Context(), "nk", "hashed")
			return err
		})
		require.NoError(t, err)

		_, err = storage.User().GetUserByUsername(t.Context(), "nk")
		require.NoError(t, err)
	})

	t.Run("rollback reverts created", func(t *testing.T) {
		storage := NewStorage()

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			user, err := s.User().CreateUser(t.Context(), "nk", "hashed")
			require.NoError(t, err)
			_, err = s.Token().Create(t.Context(), repository.CreateTokenParams{UserID: user.ID, TokenHash: "hash", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
			require.NoError(t, err)
			return failure
		})
		require.ErrorIs(t, err, failure)

		_, err = storage.User().GetUserByUsername(t.Context(), "nk")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		_, err = storage.Token().GetByHash(t.Context(), "hash")
		require.ErrorIs(t, err, apperrors.ErrTokenNotFound)

		_, err = storage.User().CreateUser(t.Context(), "nk", "hashed")
		require.NoError(t, err, "username is free again")
	})

	t.Run("rollback restores deleted", func(t *testing.T) {
		storage := NewStorage()
		user, err := storage.User().CreateUser(t.Context(), "nk", "hashed")
		require.NoError(t, err)
		created, err := storage.Token().Create(t.Context(), repository.CreateTokenParams{UserID: user.ID, TokenHash: "hash", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
		require.NoError(t, err)

		err = storage.InTx(t.Context(), func(s repository.Storage) error {
			deleted, err := s.Token().DeleteByUser(t.Context(), user.ID)
			require.NoError(t, err)
			require.Len(t, deleted, 1)
			return failure
		})
		require.ErrorIs(t, err, failure)

		got, err := storage.Token().GetByHash(t.Context(), "hash")
		require.NoError(t, err)
		require.Equal(t, created, got)
	})

	t.Run("nested joins outer", func(t *testing.T) {
		storage := NewStorage()

		err := storage.InTx(t.Context(), func(outer repository.Storage) error {
			err := outer.InTx(t.Context(), func(inner repository.Storage) error {
				_, err := inner.User().CreateUser(t.Context(), "nk", "hashed")
				return err
			})
			require.NoError(t, err)
			return failure
		})
		require.ErrorIs(t, err, failure)

		_, err = storage.User().GetUserByUsername(t.Context(), "nk")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound, "outer rollback reverts inner writes")
	})
}
