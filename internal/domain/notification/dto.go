package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one inbox entry with its card reference flattened.
type Item struct {
	ID            uuid.UUID        `json:"id"`
	Type          Type             `json:"type"`
	Title         string           `json:"title"`
	Body          string           `json:"body,omitempty"`
	CardID        *uuid.UUID       `json:"card_id,omitempty"`
	EditionNumber *int             `json:"edition_number,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"created_at"`
}

func itemFromEntity(n *Notification) *Item {
	data := n.GetData()
	return &Item{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Body:          n.Body.String,
		CardID:        data.CardID,
		EditionNumber: data.EditionNumber,
		Amount:        data.Amount,
		Read:          n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

// Inbox is a page of a user's notifications plus the unread badge count.
type Inbox struct {
	Items  []*Item `json:"items"`
	Unread int     `json:"unread"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ReadResult is returned after marking notifications read.
type ReadResult struct {
	Unread int `json:"unread"`
}
