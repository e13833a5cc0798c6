package mercadopago

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/json-iterator/go"
)

// ErrNotFound signals a 404 from the Mercado Pago API.
var ErrNotFound = errors.New("mercado pago resource not found")

// APIError covers non-404 API and transport failures.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mercado pago api error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("mercado pago api error: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

type ClientConfig struct {
	BaseURL     string
	AccessToken string
	UserID      string
	POS         string
}

// Client talks to the Mercado Pago REST API. The underlying http.Client is
// shared and safe for concurrent use; per-call state lives on the request.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	userID      string
	pos         string
}

func NewClient(httpClient *http.Client, cfg ClientConfig) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		userID:      cfg.UserID,
		pos:         cfg.POS,
	}
}

// CreateDynamicQROrder registers a dynamic QR order on the configured
// collector/POS and returns the QR rendering payload.
func (c *Client) CreateDynamicQROrder(ctx context.Context, order CreateOrderRequest) (*CreateOrderResponse, error) {
	url := fmt.Sprintf("%s/instore/orders/qr/seller/collectors/%s/pos/%s/qrs", c.baseURL, c.userID, c.pos)

	var resp CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, url, order, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FindOrderByID(ctx context.Context, orderID int64) (*Order, error) {
	url := fmt.Sprintf("%s/merchant_orders/%d", c.baseURL, orderID)

	var order Order
	if err := c.do(ctx, http.MethodGet, url, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) FindPaymentByID(ctx context.Context, paymentID string) (*Payment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)

	var payment Payment
	if err := c.do(ctx, http.MethodGet, url, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Err: fmt.Errorf("failed to encode request body: %w", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &APIError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %w", method, url, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(snippet)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response body: %w", err)}
		}
	}
	return nil
}
