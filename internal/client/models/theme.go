package models

type Theme struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	IsSubscribed bool      `json:"isSubscribed"`
}

// Subscription is the canonical subscription shape. Theme.IsSubscribed is
// always true for values produced by the normalizer.
type Subscription struct {
	ID        int64     `json:"id"`
	CreatedAt Timestamp `json:"createdAt"`
	Theme     Theme     `json:"theme"`
}
