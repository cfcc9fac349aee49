// Package session owns the persisted authentication state of the client:
// the bearer token and the resolved user id. Store is the only writer of
// those two keys.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/mddclient/internal/dbx"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

const (
	KeyToken  = "token"
	KeyUserID = "userId"
)

var (
	// ErrNoSession is returned by SetUserID when no token is persisted.
	ErrNoSession = errors.New("no active session")
	// ErrSessionChanged is returned by SetUserID when the persisted token is
	// not the one the identity was resolved for.
	ErrSessionChanged = errors.New("session changed")
)

// Store persists the session in the local metadata table. Every mutation
// writes through synchronously; nothing is buffered.
type Store struct {
	db  *sql.DB
	log logging.Logger

	mu       sync.Mutex
	cachedID int64
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{db: db, log: log.With("component", "session")}
}

func (s *Store) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// IsAuthenticated reports whether a token is persisted. A storage failure is
// logged and treated as "not authenticated".
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Token returns the persisted token, or "" when there is none.
func (s *Store) Token(ctx context.Context) string {
	token, _, err := s.repo().Get(ctx, KeyToken)
	if err != nil {
		s.log.Error(ctx, "reading session token failed", "error", err)
		return ""
	}
	return token
}

// SetSession persists token and, when userID > 0, the user id, in one
// transaction. With userID == 0 any previous user id is removed so that a
// stale identity never pairs with a new token.
func (s *Store) SetSession(ctx context.Context, token string, userID int64) error {
	if token == "" {
		return errors.New("set session: empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyToken, token); err != nil {
			return err
		}
		if userID > 0 {
			return repo.Set(ctx, KeyUserID, strconv.FormatInt(userID, 10))
		}
		return repo.Delete(ctx, KeyUserID)
	})
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}

	s.cachedID = max(userID, 0)
	return nil
}

// SetUserID records the resolved identity of the session that holds token.
// It fails with ErrSessionChanged when another session replaced it since
// the lookup started, so one user's id never pairs with another's token.
func (s *Store) SetUserID(ctx context.Context, token string, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("set user id: invalid id %d", userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		current, _, err := repo.Get(ctx, KeyToken)
		if err != nil {
			return err
		}
		switch {
		case current == "":
			return ErrNoSession
		case current != token:
			return ErrSessionChanged
		}
		return repo.Set(ctx, KeyUserID, strconv.FormatInt(userID, 10))
	})
	if err != nil {
		return fmt.Errorf("set user id: %w", err)
	}

	s.cachedID = userID
	return nil
}

// ClearSession removes the token and the user id together. On failure
// neither key is removed and the in-memory cache is kept.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.clear(ctx, "")
	return err
}

// ClearSessionIf clears the session only while token is still the persisted
// one. The check and the delete share a transaction. It reports whether
// anything was cleared.
func (s *Store) ClearSessionIf(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.clear(ctx, token)
}

// clear deletes both keys; a non-empty expect must match the stored token.
func (s *Store) clear(ctx context.Context, expect string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := true
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if expect != "" {
			current, _, err := repo.Get(ctx, KeyToken)
			if err != nil {
				return err
			}
			if current != expect {
				cleared = false
				return nil
			}
		}
		return repo.Delete(ctx, KeyToken, KeyUserID)
	})
	if err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}

	if cleared {
		s.cachedID = 0
	}
	return cleared, nil
}

// CurrentUserID returns the cached id, else the persisted one, else 0.
func (s *Store) CurrentUserID(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cachedID > 0 {
		return s.cachedID
	}

	raw, found, err := s.repo().Get(ctx, KeyUserID)
	if err != nil {
		s.log.Warn(ctx, "reading user id failed", "error", err)
		return 0
	}
	if !found {
		return 0
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.log.Warn(ctx, "ignoring malformed persisted user id", "value", raw)
		return 0
	}

	s.cachedID = id
	return id
}

// Snapshot returns the persisted pair.
func (s *Store) Snapshot(ctx context.Context) models.Session {
	token := s.Token(ctx)
	if token == "" {
		return models.Session{}
	}
	return models.Session{Token: token, UserID: s.CurrentUserID(ctx)}
}
