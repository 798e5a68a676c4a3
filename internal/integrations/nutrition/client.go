// Package nutrition calls the external nutrition workflow webhook that
// computes nutrition facts, drafts meal plans and suggests recipes.
package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Action string

const (
	ActionReference Action = "ref"
	ActionPlan      Action = "plan"
	ActionChef      Action = "chef"
)

var (
	ErrNotConfigured = errors.New("nutrition webhook is not configured")
	ErrBadResponse   = errors.New("nutrition webhook returned an unusable response")
)

// maxResponseBytes bounds how much of a webhook reply is read.
const maxResponseBytes = 1 << 20

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{url: url, client: &http.Client{Timeout: timeout}}
}

// Call posts {"action": action, ...payload} and returns the raw response text.
func (c *Client) Call(ctx context.Context, action Action, payload map[string]interface{}) (string, error) {
	if c.url == "" {
		return "", ErrNotConfigured
	}

	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nutrition webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read nutrition webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("nutrition webhook returned status %d", resp.StatusCode)
	}
	return string(respBody), nil
}

// Totals is the nutrition summary returned for a food reference lookup.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
}

// Reference computes the nutrition totals of a free-text food description.
func (c *Client) Reference(ctx context.Context, description string) (*Totals, error) {
	text, err := c.Call(ctx, ActionReference, map[string]interface{}{"food": description})
	if err != nil {
		return nil, err
	}
	var totals Totals
	if err := ParseJSON(text, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// GeneratePlan asks the workflow for a meal plan. The result is decoded into out.
func (c *Client) GeneratePlan(ctx context.Context, profile map[string]interface{}, out interface{}) error {
	text, err := c.Call(ctx, ActionPlan, map[string]interface{}{"profile": profile})
	if err != nil {
		return err
	}
	return ParseJSON(text, out)
}

// Recipe is a chef suggestion. The workflow answers either with structured
// recipe JSON or with plain text, which ends up in Text.
type Recipe struct {
	Title       string   `json:"title,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Calories    float64  `json:"calories,omitempty"`
	Text        string   `json:"text,omitempty"`
}

func (c *Client) Chef(ctx context.Context, ingredients []string, notes string) (*Recipe, error) {
	text, err := c.Call(ctx, ActionChef, map[string]interface{}{
		"ingredients": ingredients,
		"notes":       notes,
	})
	if err != nil {
		return nil, err
	}

	var recipe Recipe
	if err := ParseJSON(text, &recipe); err != nil || recipe.Title == "" {
		if unwrapped, ok := unwrapOutput(text); ok {
			text = unwrapped
		}
		return &Recipe{Text: text}, nil
	}
	return &recipe, nil
}
