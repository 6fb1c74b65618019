package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventhub/internal/shared/apperrors"
)

// RazorpayGateway talks to the Razorpay orders REST API
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

type razorpayOrderBody struct {
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Receipt  string     `json:"receipt"`
	Notes    OrderNotes `json:"notes"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(razorpayOrderBody{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	var order Order
	if err := g.do(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := g.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", apperrors.ErrGatewayUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", apperrors.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		var gwErr razorpayError
		_ = json.Unmarshal(payload, &gwErr)
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
			// the order does not exist or is not ours
			if method == http.MethodGet {
				return fmt.Errorf("%w: gateway returned %d %s", apperrors.ErrOrderMismatch, resp.StatusCode, gwErr.Error.Code)
			}
		}
		return fmt.Errorf("%w: gateway returned %d %s %s", apperrors.ErrGatewayUnavailable,
			resp.StatusCode, gwErr.Error.Code, gwErr.Error.Description)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", apperrors.ErrGatewayUnavailable, err)
	}
	return nil
}
