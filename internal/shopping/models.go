package shopping

import "time"

// Item is one consolidated shopping-list line.
type Item struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// List is the shopping list shown for a menu. Fallback is set when the
// items are the raw concatenation of ingredients rather than a
// consolidated list; Cause then explains why.
type List struct {
	ID        int64     `json:"id,omitempty"`
	Items     []Item    `json:"items"`
	Fallback  bool      `json:"fallback"`
	Cause     string    `json:"cause,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Empty reports whether the list has no items.
func (l List) Empty() bool {
	return len(l.Items) == 0
}
