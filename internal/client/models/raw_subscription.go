package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawSubscription is one record from GET /api/subscriptions/user/{id}. The
// backend does not guarantee its shape, so it is kept as a decoded JSON
// object and inspected by field presence only.
type RawSubscription map[string]any

func (r *RawSubscription) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("subscription record: %w", err)
	}
	*r = m
	return nil
}

// RawSubscriptionList decodes a listing element by element. An element that
// is not a JSON object becomes an empty record instead of failing the whole
// listing.
type RawSubscriptionList []RawSubscription

func (l *RawSubscriptionList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("subscription listing: %w", err)
	}
	if items == nil {
		*l = nil
		return nil
	}

	out := make(RawSubscriptionList, len(items))
	for i, item := range items {
		var r RawSubscription
		if err := r.UnmarshalJSON(item); err != nil || r == nil {
			r = RawSubscription{}
		}
		out[i] = r
	}
	*l = out
	return nil
}

// Has reports whether key is present with a non-null value.
func (r RawSubscription) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Object returns the nested object stored under key.
func (r RawSubscription) Object(key string) (RawSubscription, bool) {
	switch v := r[key].(type) {
	case map[string]any:
		return RawSubscription(v), true
	case RawSubscription:
		return v, true
	}
	return nil, false
}

// String returns the string stored under key; ok is false when the key is
// absent or not a string.
func (r RawSubscription) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Int returns the integer stored under key, or 0 when it is absent or not
// an integral number. Numeric strings are accepted.
func (r RawSubscription) Int(key string) int64 {
	switch v := r[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f)
		}
	case float64:
		if v == math.Trunc(v) {
			return int64(v)
		}
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Timestamp returns the parsed time under key, or the zero Timestamp.
func (r RawSubscription) Timestamp(key string) Timestamp {
	s, ok := r.String(key)
	if !ok || s == "" {
		return Timestamp{}
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return Timestamp{}
	}
	return ts
}
