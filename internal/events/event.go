package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	CartUpdated     Type = "cartUpdated"
	WishlistUpdated Type = "wishlistUpdated"
	OrderPlaced     Type = "orderPlaced"
)

// Event tells other open views of the same owner that a collection changed.
type Event struct {
	Type       Type      `json:"type"`
	OwnerID    string    `json:"owner_id"`
	Count      int       `json:"count"`
	OrderID    string    `json:"order_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	// Origin is the id of the instance that produced the event.
	Origin string `json:"origin,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encode(e Event) ([]byte, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event failed: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event failed: %w", err)
	}
	if e.OwnerID == "" || e.Type == "" {
		return Event{}, errors.New("event missing owner or type")
	}
	return e, nil
}
