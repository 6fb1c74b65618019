package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"eventhub/internal/shared/apperrors"

	"github.com/google/uuid"
)

// SandboxGateway is an in-process gateway for local development and tests.
// Pay simulates the checkout and returns what the client would post to /payments/verify.
type SandboxGateway struct {
	mu     sync.RWMutex
	orders map[string]Order
	signer *Signer
	keyID  string
}

func NewSandboxGateway(keySecret string) *SandboxGateway {
	return &SandboxGateway{
		orders: make(map[string]Order),
		signer: NewSigner(keySecret),
		keyID:  "rzp_test_sandbox",
	}
}

func (g *SandboxGateway) KeyID() string {
	return g.keyID
}

func (g *SandboxGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err)
	}

	order := Order{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}

	g.mu.Lock()
	g.orders[order.ID] = order
	g.mu.Unlock()
	return &order, nil
}

func (g *SandboxGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err)
	}

	g.mu.RLock()
	order, ok := g.orders[orderID]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown order %s", apperrors.ErrOrderMismatch, orderID)
	}
	return &order, nil
}

// Pay marks the order paid and returns a payment id with its signature
func (g *SandboxGateway) Pay(orderID string) (paymentID, signature string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return "", "", fmt.Errorf("unknown order %s", orderID)
	}
	order.Status = "paid"
	g.orders[orderID] = order

	paymentID = "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return paymentID, g.signer.Sign(orderID, paymentID), nil
}
