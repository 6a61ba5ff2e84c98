// Package memory keeps users and tokens in process memory.
// It is used when no database configured and in tests that do not need postgres.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/tokenauth/internal/models"
	"github.com/nkiryanov/tokenauth/internal/repository"
)

type tables struct {
	mu sync.RWMutex

	users       map[uuid.UUID]models.User
	usernames   map[string]uuid.UUID
	tokens      map[int64]models.Token
	tokenHashes map[string]int64
	lastTokenID int64
}

type Storage struct {
	*tables

	// Undo actions of running transaction, nil outside of it
	undo *[]func()
}

var _ repository.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		tables: &tables{
			users:       make(map[uuid.UUID]models.User),
			usernames:   make(map[string]uuid.UUID),
			tokens:      make(map[int64]models.Token),
			tokenHashes: make(map[string]int64),
		},
	}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) Token() repository.TokenRepo {
	return &TokenRepo{s: s}
}

// InTx runs fn and reverts its writes if fn fails.
// Writes are visible to others before commit: there is no isolation, only rollback
func (s *Storage) InTx(_ context.Context, fn func(repository.Storage) error) error {
	if s.undo != nil {
		// Nested transaction joins the outer one
		return fn(s)
	}

	var undo []func()
	err := fn(&Storage{tables: s.tables, undo: &undo})
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	return err
}

// Remember how to revert a write. Must be called with write lock held
func (s *Storage) onRollback(fn func()) {
	if s.undo != nil {
		*s.undo = append(*s.undo, fn)
	}
}
