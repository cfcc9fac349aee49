package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/normalize"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

// ThemeService lists themes and manages the user's subscriptions.
type ThemeService struct {
	client client.Client
	users  UserIDSource
	norm   normalize.Normalizer
	log    logging.Logger
}

func NewThemeService(c client.Client, users UserIDSource, log logging.Logger) *ThemeService {
	if log == nil {
		log = logging.Nop()
	}
	return &ThemeService{client: c, users: users, log: log.With("component", "themes")}
}

func (s *ThemeService) userID(ctx context.Context) (int64, error) {
	id := s.users.CurrentUserID(ctx)
	if id == 0 {
		return 0, ErrUnknownUser
	}
	return id, nil
}

func (s *ThemeService) Themes(ctx context.Context) ([]models.Theme, error) {
	themes, err := s.client.Themes(ctx)
	if err != nil {
		return nil, fmt.Errorf("themes error: %w", err)
	}
	return themes, nil
}

// Subscriptions returns the current user's subscriptions in canonical form.
func (s *ThemeService) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.UserSubscriptions(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("subscriptions error: %w", err)
	}
	return s.norm.Normalize(raw), nil
}

// Catalog returns every theme with IsSubscribed set for those the user
// follows. Subscriptions are best effort: if they cannot be fetched the
// catalog comes back unmarked.
func (s *ThemeService) Catalog(ctx context.Context) ([]models.Theme, error) {
	var (
		themes  []models.Theme
		subs    []models.Subscription
		subsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		themes, err = s.Themes(gctx)
		return err
	})
	g.Go(func() error {
		subs, subsErr = s.Subscriptions(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if subsErr != nil {
		s.log.Warn(ctx, "catalog without subscription marks", "error", subsErr)
	}

	followed := make(map[int64]struct{}, len(subs))
	for _, sub := range subs {
		followed[sub.Theme.ID] = struct{}{}
	}
	for i := range themes {
		_, ok := followed[themes[i].ID]
		themes[i].IsSubscribed = ok
	}
	return themes, nil
}

func (s *ThemeService) Subscribe(ctx context.Context, themeID int64) (models.Subscription, error) {
	if themeID <= 0 {
		return models.Subscription{}, fmt.Errorf("%w: theme id is required", ErrInvalidInput)
	}
	uid, err := s.userID(ctx)
	if err != nil {
		return models.Subscription{}, err
	}

	raw, err := s.client.Subscribe(ctx, uid, themeID)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("subscribe error: %w", err)
	}
	if len(raw) == 0 {
		raw = models.RawSubscription{"themeId": themeID}
	}

	s.log.Info(ctx, "subscribed", "theme_id", themeID)
	return s.norm.Normalize([]models.RawSubscription{raw})[0], nil
}

func (s *ThemeService) Unsubscribe(ctx context.Context, themeID int64) error {
	if themeID <= 0 {
		return fmt.Errorf("%w: theme id is required", ErrInvalidInput)
	}
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}

	if err := s.client.Unsubscribe(ctx, uid, themeID); err != nil {
		return fmt.Errorf("unsubscribe error: %w", err)
	}

	s.log.Info(ctx, "unsubscribed", "theme_id", themeID)
	return nil
}

// Toggle flips the subscription for t and returns t with the new mark.
func (s *ThemeService) Toggle(ctx context.Context, t models.Theme) (models.Theme, error) {
	if t.IsSubscribed {
		if err := s.Unsubscribe(ctx, t.ID); err != nil {
			return t, err
		}
		t.IsSubscribed = false
		return t, nil
	}

	if _, err := s.Subscribe(ctx, t.ID); err != nil {
		return t, err
	}
	t.IsSubscribed = true
	return t, nil
}
