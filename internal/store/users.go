package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

const (
	userPrefix        = "user:"
	userByLoginPrefix = "idx:users:login:"
	pseudPrefix       = "pseud:"
	pseudByUserPrefix = "idx:pseuds:user:" // Format: idx:pseuds:user:{userID}:{pseudID}
)

var (
	// ErrUserNotFound is returned when a user is not found in the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the user ID or login is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrPseudNotFound is returned when a pseud is not found in the store.
	ErrPseudNotFound = errors.New("pseud not found")
	// ErrPseudExists is returned when attempting to create a pseud that already exists.
	ErrPseudExists = errors.New("pseud already exists")
)

// CreateUser creates a new user with a unique login. A missing ID is filled
// in with a generated one.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		newID, err := id.Generate("user")
		if err != nil {
			return err
		}
		user.ID = newID
	}

	key := []byte(userPrefix + user.ID)
	loginKey := []byte(userByLoginPrefix + normalizeLogin(user.Login))

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		exists, err = s.exists(loginKey)
		if err != nil {
			return fmt.Errorf("check login taken: %w", err)
		}
	}
	if exists {
		return ErrUserExists
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, user); err != nil {
			return err
		}
		return txn.Set(loginKey, []byte(user.ID))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	key := []byte(userPrefix + id)

	var user domain.User
	if err := s.get(key, &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetUserByLogin retrieves a user by login, case-insensitively.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	loginKey := []byte(userByLoginPrefix + normalizeLogin(login))

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(loginKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by login: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// RenameUser changes a user's login. Every byline and sort key derived from
// the old login is now stale; the emitted change drives the fan-out that
// rebuilds the documents of all works attributed to any of the user's pseuds.
func (s *Store) RenameUser(ctx context.Context, userID, newLogin string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.Login == newLogin {
		return nil
	}

	newLoginKey := []byte(userByLoginPrefix + normalizeLogin(newLogin))
	if normalizeLogin(newLogin) != normalizeLogin(user.Login) {
		taken, err := s.exists(newLoginKey)
		if err != nil {
			return fmt.Errorf("check login taken: %w", err)
		}
		if taken {
			return ErrUserExists
		}
	}

	oldLoginKey := []byte(userByLoginPrefix + normalizeLogin(user.Login))
	user.Login = newLogin
	user.Touch()

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, []byte(userPrefix+user.ID), user); err != nil {
			return err
		}
		if err := txn.Delete(oldLoginKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(newLoginKey, []byte(user.ID))
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeUserRenamed, userID)
	return nil
}

// CreatePseud creates a new pseud and its by-user index entry.
func (s *Store) CreatePseud(ctx context.Context, pseud *domain.Pseud) error {
	if pseud.ID == "" {
		newID, err := id.Generate("pseud")
		if err != nil {
			return err
		}
		pseud.ID = newID
	}

	key := []byte(pseudPrefix + pseud.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check pseud exists: %w", err)
	}
	if exists {
		return ErrPseudExists
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, pseud); err != nil {
			return err
		}
		idxKey := []byte(pseudByUserPrefix + pseud.UserID + ":" + pseud.ID)
		return txn.Set(idxKey, []byte{})
	})
}

// GetPseud retrieves a pseud by ID.
func (s *Store) GetPseud(_ context.Context, id string) (*domain.Pseud, error) {
	key := []byte(pseudPrefix + id)

	var pseud domain.Pseud
	if err := s.get(key, &pseud); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPseudNotFound
		}
		return nil, fmt.Errorf("get pseud: %w", err)
	}

	return &pseud, nil
}

// GetPseudsByUser returns all pseuds owned by a user.
func (s *Store) GetPseudsByUser(ctx context.Context, userID string) ([]*domain.Pseud, error) {
	pseudIDs, err := s.collectIndexSuffixes(pseudByUserPrefix + userID + ":")
	if err != nil {
		return nil, fmt.Errorf("lookup pseuds by user: %w", err)
	}

	pseuds := make([]*domain.Pseud, 0, len(pseudIDs))
	for _, pseudID := range pseudIDs {
		pseud, err := s.GetPseud(ctx, pseudID)
		if err != nil {
			if errors.Is(err, ErrPseudNotFound) {
				continue
			}
			return nil, err
		}
		pseuds = append(pseuds, pseud)
	}

	return pseuds, nil
}

// normalizeLogin normalizes a login for unique lookup.
func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
