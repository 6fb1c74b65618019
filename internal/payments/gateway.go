// Package payments opens gateway orders for ticket reservations and turns verified
// payments into confirmed bookings.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Gateway is the external payment provider
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	// KeyID is the public key handed to the client checkout
	KeyID() string
}

type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    OrderNotes
}

// OrderNotes is the metadata bound to an order at creation. On fetch it is the only
// trusted source of who paid for what.
type OrderNotes struct {
	UserID     string `json:"userId"`
	EventID    string `json:"eventId"`
	NumTickets int    `json:"numTickets"`
}

// UnmarshalJSON accepts numTickets as a number or a string; gateways echo notes back as strings
func (n *OrderNotes) UnmarshalJSON(data []byte) error {
	*n = OrderNotes{}
	// an order created without notes comes back with "notes": []
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return nil
	}

	var raw struct {
		UserID     string          `json:"userId"`
		EventID    string          `json:"eventId"`
		NumTickets json.RawMessage `json:"numTickets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.UserID = raw.UserID
	n.EventID = raw.EventID

	if len(raw.NumTickets) == 0 || string(raw.NumTickets) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw.NumTickets, &n.NumTickets); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.NumTickets, &s); err != nil {
		return fmt.Errorf("numTickets: %w", err)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("numTickets: %w", err)
	}
	n.NumTickets = v
	return nil
}

type Order struct {
	ID       string     `json:"id"`
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Receipt  string     `json:"receipt"`
	Status   string     `json:"status"`
	Notes    OrderNotes `json:"notes"`
}
