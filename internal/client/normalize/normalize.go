// Package normalize reconciles the subscription records returned by the
// backend into the canonical models.Subscription shape.
//
// Three input shapes are recognised, tested in this order; the first match
// wins:
//
//	ShapeNested  {"id":1,"createdAt":"…","theme":{"id":3,"title":"Go",…}}
//	ShapeFlat    {"id":3,"title":"Go","description":"…","isSubscribed":true}
//	ShapeMinimal {"id":9,"themeId":3}  (anything else)
package normalize

import (
	"time"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
)

const (
	PlaceholderTitle       = "Sans titre"
	PlaceholderDescription = "Aucune description"
)

// Shape names the input form a record was recognised as.
type Shape int

const (
	ShapeNested Shape = iota + 1
	ShapeFlat
	ShapeMinimal
)

func (s Shape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	case ShapeMinimal:
		return "minimal"
	}
	return "unknown"
}

// Normalizer maps raw records to subscriptions. Now supplies the default
// creation time for synthesized records.
type Normalizer struct {
	Now func() time.Time
}

// Normalize uses the wall clock.
func Normalize(raw []models.RawSubscription) []models.Subscription {
	return Normalizer{}.Normalize(raw)
}

// Classify reports which shape rule applies to r.
func Classify(r models.RawSubscription) Shape {
	if theme, ok := r.Object("theme"); ok {
		if title, _ := theme.String("title"); title != "" {
			return ShapeNested
		}
	}

	_, hasTitle := r.String("title")
	_, hasDescription := r.String("description")
	if hasTitle && hasDescription {
		return ShapeFlat
	}

	return ShapeMinimal
}

// Normalize maps every record to exactly one subscription, in input order.
// A panic while scanning yields an empty, non-nil result.
func (n Normalizer) Normalize(raw []models.RawSubscription) (out []models.Subscription) {
	defer func() {
		if recover() != nil {
			out = []models.Subscription{}
		}
	}()

	now := n.now()
	out = make([]models.Subscription, 0, len(raw))
	for _, r := range raw {
		out = append(out, n.one(r, now))
	}
	return out
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n Normalizer) one(r models.RawSubscription, now time.Time) models.Subscription {
	switch Classify(r) {
	case ShapeNested:
		return nested(r)
	case ShapeFlat:
		return flat(r, now)
	default:
		return minimal(r, now)
	}
}

// nested keeps the record as it is and only marks the theme.
func nested(r models.RawSubscription) models.Subscription {
	t, _ := r.Object("theme")
	title, _ := t.String("title")
	description, _ := t.String("description")

	return models.Subscription{
		ID:        r.Int("id"),
		CreatedAt: r.Timestamp("createdAt"),
		Theme: models.Theme{
			ID:           t.Int("id"),
			Title:        title,
			Description:  description,
			CreatedAt:    t.Timestamp("createdAt"),
			UpdatedAt:    t.Timestamp("updatedAt"),
			IsSubscribed: true,
		},
	}
}

func flat(r models.RawSubscription, now time.Time) models.Subscription {
	subID, themeID := ids(r)
	title, _ := r.String("title")
	description, _ := r.String("description")

	return models.Subscription{
		ID:        subID,
		CreatedAt: createdAt(r, now),
		Theme: models.Theme{
			ID:           themeID,
			Title:        title,
			Description:  description,
			UpdatedAt:    r.Timestamp("updatedAt"),
			IsSubscribed: true,
		},
	}
}

func minimal(r models.RawSubscription, now time.Time) models.Subscription {
	subID, themeID := ids(r)

	return models.Subscription{
		ID:        subID,
		CreatedAt: createdAt(r, now),
		Theme: models.Theme{
			ID:           themeID,
			Title:        PlaceholderTitle,
			Description:  PlaceholderDescription,
			IsSubscribed: true,
		},
	}
}

// ids splits a synthesized record's identifiers. When the record names its
// theme (themeId or a nested theme id) its own id is the subscription id;
// otherwise the record is a theme and its id is the theme id.
func ids(r models.RawSubscription) (subID, themeID int64) {
	if r.Has("themeId") {
		return r.Int("id"), r.Int("themeId")
	}
	if t, ok := r.Object("theme"); ok && t.Has("id") {
		return r.Int("id"), t.Int("id")
	}
	return 0, r.Int("id")
}

func createdAt(r models.RawSubscription, now time.Time) models.Timestamp {
	if ts := r.Timestamp("createdAt"); !ts.IsZero() {
		return ts
	}
	return models.NewTimestamp(now)
}
