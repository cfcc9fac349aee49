package client

import (
	"context"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
)

type Client interface {
	Close() error

	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	UpdateUser(ctx context.Context, userID int64, upd models.UserProfileUpdate) (*models.User, error)

	Themes(ctx context.Context) ([]models.Theme, error)
	UserSubscriptions(ctx context.Context, userID int64) ([]models.RawSubscription, error)
	Subscribe(ctx context.Context, userID, themeID int64) (models.RawSubscription, error)
	Unsubscribe(ctx context.Context, userID, themeID int64) error

	SubscribedArticles(ctx context.Context, userID int64) ([]models.Article, error)
	CreateArticle(ctx context.Context, a models.NewArticle) (*models.Article, error)
	Article(ctx context.Context, id int64) (*models.Article, error)
	CreateComment(ctx context.Context, c models.NewComment) (*models.Comment, error)
}
