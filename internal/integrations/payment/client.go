// Package payment talks to the PIX QR code payment provider.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusExpired = "EXPIRED"
)

var ErrNotConfigured = errors.New("payment provider is not configured")

type Customer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Cellphone string `json:"cellphone,omitempty"`
	TaxID     string `json:"taxId,omitempty"`
}

type CreateRequest struct {
	AmountCents int
	Description string
	ExpiresIn   time.Duration
	Customer    Customer
	Metadata    map[string]string
}

// QRCode is a created PIX charge.
type QRCode struct {
	ID            string `json:"id"`
	AmountCents   int    `json:"amount"`
	Status        string `json:"status"`
	CopyPasteCode string `json:"brCode"`
	QRCodeBase64  string `json:"brCodeBase64"`
	ExpiresAt     string `json:"expiresAt"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope[T any] struct {
	Data  *T      `json:"data"`
	Error *string `json:"error"`
}

// CreatePixQRCode creates a PIX charge for the customer.
func (c *Client) CreatePixQRCode(ctx context.Context, req CreateRequest) (*QRCode, error) {
	expires := int(req.ExpiresIn / time.Second)
	if expires <= 0 {
		expires = 3600
	}
	body := map[string]interface{}{
		"amount":      req.AmountCents,
		"expiresIn":   expires,
		"description": req.Description,
		"customer":    req.Customer,
		"metadata":    req.Metadata,
	}

	var qr QRCode
	if err := c.do(ctx, http.MethodPost, "/pixQrCode/create", body, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// CheckStatus returns the provider status of a charge (PENDING, PAID, EXPIRED...).
func (c *Client) CheckStatus(ctx context.Context, providerID string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	path := "/pixQrCode/check?id=" + url.QueryEscape(providerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode payment request: %w", err)
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("payment provider returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return decodeEnvelope(respBody, out)
}

func decodeEnvelope(raw []byte, out interface{}) error {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode payment response: %w", err)
	}
	if env.Error != nil && *env.Error != "" {
		return fmt.Errorf("payment provider error: %s", *env.Error)
	}
	if env.Data == nil {
		return errors.New("payment provider returned no data")
	}
	return json.Unmarshal(*env.Data, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
