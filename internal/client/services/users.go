package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/mddclient/internal/client/broadcast"
	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

// SessionSource identifies the current session: its token and resolved
// user id.
type SessionSource interface {
	UserIDSource
	Token(ctx context.Context) string
}

// UserService serves the profile of the logged-in user. The profile is
// cached for the session token it was fetched under; it is dropped when the
// auth state turns false and ignored once another session replaces it.
type UserService struct {
	client client.Client
	users  SessionSource
	state  *broadcast.Signal[bool]
	log    logging.Logger
	sub    *broadcast.Subscription[bool]

	mu          sync.Mutex
	cached      *models.User
	cachedToken string
	gen         uint64
}

func NewUserService(c client.Client, users SessionSource, state *broadcast.Signal[bool], log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop()
	}
	s := &UserService{client: c, users: users, state: state, log: log.With("component", "users")}
	s.sub = state.Subscribe(func(authenticated bool) {
		if !authenticated {
			s.drop()
		}
	})
	return s
}

func (s *UserService) drop() {
	s.mu.Lock()
	s.cached = nil
	s.cachedToken = ""
	s.gen++
	s.mu.Unlock()
}

// Profile returns the cached user, fetching it on first use.
func (s *UserService) Profile(ctx context.Context) (*models.User, error) {
	if !s.state.Current() {
		return nil, ErrNotAuthenticated
	}

	token := s.users.Token(ctx)

	s.mu.Lock()
	if s.cached != nil && s.cachedToken == token {
		u := *s.cached
		s.mu.Unlock()
		return &u, nil
	}
	gen := s.gen
	s.mu.Unlock()

	u, err := s.client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile error: %w", err)
	}

	s.store(gen, token, u)
	return u, nil
}

// store caches u for token unless a logout happened since the fetch started.
func (s *UserService) store(gen uint64, token string, u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || token == "" {
		return
	}
	c := *u
	s.cached = &c
	s.cachedToken = token
}

func (s *UserService) Update(ctx context.Context, upd models.UserProfileUpdate) (*models.User, error) {
	upd.Username = strings.TrimSpace(upd.Username)
	upd.Email = strings.TrimSpace(upd.Email)
	if upd.Username == "" || upd.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}

	uid := s.users.CurrentUserID(ctx)
	if uid == 0 {
		return nil, ErrUnknownUser
	}

	token := s.users.Token(ctx)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	u, err := s.client.UpdateUser(ctx, uid, upd)
	if err != nil {
		return nil, fmt.Errorf("profile update error: %w", err)
	}

	s.store(gen, token, u)
	s.log.Info(ctx, "profile updated", "user_id", uid)
	return u, nil
}

// Close stops following the auth state.
func (s *UserService) Close() {
	s.sub.Unsubscribe()
}
