package models

type Article struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      Timestamp `json:"createdAt"`
	UpdatedAt      Timestamp `json:"updatedAt"`
	AuthorID       int64     `json:"authorId,omitempty"`
	AuthorUsername string    `json:"authorUsername"`
	ThemeID        int64     `json:"themeId"`
	ThemeTitle     string    `json:"themeTitle"`
	Comments       []Comment `json:"comments"`
}

type Comment struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	CreatedAt      Timestamp `json:"createdAt"`
	ArticleID      int64     `json:"articleId"`
	UserID         int64     `json:"userId"`
	SenderUsername string    `json:"senderUsername"`
}

type NewArticle struct {
	ThemeID int64  `json:"themeId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type NewComment struct {
	ArticleID int64  `json:"articleId"`
	UserID    int64  `json:"userId"`
	Content   string `json:"content"`
}
