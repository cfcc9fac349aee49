package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

// SortOrder is the feed ordering by creation date.
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

func (o SortOrder) Toggle() SortOrder {
	if o == NewestFirst {
		return OldestFirst
	}
	return NewestFirst
}

func (o SortOrder) String() string {
	if o == OldestFirst {
		return "oldest first"
	}
	return "newest first"
}

type ArticleService struct {
	client client.Client
	users  UserIDSource
	log    logging.Logger
}

func NewArticleService(c client.Client, users UserIDSource, log logging.Logger) *ArticleService {
	if log == nil {
		log = logging.Nop()
	}
	return &ArticleService{client: c, users: users, log: log.With("component", "articles")}
}

// Feed returns the articles of the themes the user follows.
func (s *ArticleService) Feed(ctx context.Context, order SortOrder) ([]models.Article, error) {
	uid := s.users.CurrentUserID(ctx)
	if uid == 0 {
		return nil, ErrUnknownUser
	}

	articles, err := s.client.SubscribedArticles(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("feed error: %w", err)
	}

	slices.SortStableFunc(articles, func(a, b models.Article) int {
		c := a.CreatedAt.Compare(b.CreatedAt.Time)
		if order == NewestFirst {
			return -c
		}
		return c
	})
	return articles, nil
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: article id is required", ErrInvalidInput)
	}

	a, err := s.client.Article(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("article error: %w", err)
	}
	return a, nil
}

func (s *ArticleService) Create(ctx context.Context, a models.NewArticle) (*models.Article, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.Content = strings.TrimSpace(a.Content)

	switch {
	case a.ThemeID <= 0:
		return nil, fmt.Errorf("%w: theme is required", ErrInvalidInput)
	case a.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case a.Content == "":
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	created, err := s.client.CreateArticle(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create article error: %w", err)
	}

	s.log.Info(ctx, "article created", "article_id", created.ID, "theme_id", a.ThemeID)
	return created, nil
}

// Comment posts content on the article as the current user.
func (s *ArticleService) Comment(ctx context.Context, articleID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if articleID <= 0 {
		return nil, fmt.Errorf("%w: article id is required", ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}

	uid := s.users.CurrentUserID(ctx)
	if uid == 0 {
		return nil, ErrUnknownUser
	}

	c, err := s.client.CreateComment(ctx, models.NewComment{ArticleID: articleID, UserID: uid, Content: content})
	if err != nil {
		return nil, fmt.Errorf("comment error: %w", err)
	}
	return c, nil
}
