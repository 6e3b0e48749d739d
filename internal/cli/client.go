package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"banktycoon/internal/game"
	"banktycoon/internal/runner"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   strings.TrimSpace(token),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a response the server understood and refused.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsAPIError reports whether err came back from the server rather than the
// network.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

type Objective struct {
	game.Objective
	Progress float64 `json:"progress"`
}

func (c *Client) State(ctx context.Context) (*game.BankState, error) {
	var out game.BankState
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out, "")
	return &out, err
}

func (c *Client) Analytics(ctx context.Context) (game.Analytics, error) {
	var out game.Analytics
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/analytics", nil, &out, "")
	return out, err
}

func (c *Client) Objectives(ctx context.Context) ([]Objective, error) {
	var out struct {
		Objectives []Objective `json:"objectives"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/objectives", nil, &out, "")
	return out.Objectives, err
}

// Decide approves or denies a queued customer ("customers") or loan ("loans").
func (c *Client) Decide(ctx context.Context, queue, id string, approve bool, idem string) (*game.BankState, error) {
	return c.Command(ctx, http.MethodPost, DecidePath(queue, id, approve), nil, idem)
}

func DecidePath(queue, id string, approve bool) string {
	verb := "deny"
	if approve {
		verb = "approve"
	}
	return fmt.Sprintf("/v1/%s/%s/%s", queue, url.PathEscape(id), verb)
}

func StaffPath(role game.Role, hire bool) string {
	verb := "fire"
	if hire {
		verb = "hire"
	}
	return fmt.Sprintf("/v1/staff/%s/%s", url.PathEscape(string(role)), verb)
}

func ResearchPath(cat game.TechCategory, id string) string {
	return fmt.Sprintf("/v1/tech/%s/%s/research", url.PathEscape(string(cat)), url.PathEscape(id))
}

// Command posts body to path and decodes the returned state.
func (c *Client) Command(ctx context.Context, method, path string, body any, idem string) (*game.BankState, error) {
	var out game.BankState
	if err := c.jsonRequest(ctx, method, path, body, &out, idem); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResolveEvent(ctx context.Context, choice int, idem string) (game.EventRecord, error) {
	var out game.EventRecord
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/event/resolve", map[string]any{"choice": choice}, &out, idem)
	return out, err
}

func (c *Client) Clock(ctx context.Context) (runner.Status, error) {
	var out runner.Status
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/clock", nil, &out, "")
	return out, err
}

func (c *Client) ToggleClock(ctx context.Context) (runner.Status, error) {
	var out runner.Status
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clock/toggle", nil, &out, "")
	return out, err
}

func (c *Client) SetSpeed(ctx context.Context, speed runner.Speed) (runner.Status, error) {
	var out runner.Status
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clock/speed", map[string]any{"speed": speed}, &out, "")
	return out, err
}

func (c *Client) Advance(ctx context.Context, days int) (game.TickReport, error) {
	var out game.TickReport
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/clock/advance", map[string]any{"days": days}, &out, "")
	return out, err
}

func (c *Client) Save(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/save", nil, nil, "")
}

func (c *Client) DeleteSave(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodDelete, "/v1/save", nil, nil, "")
}

func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.rawRequest(ctx, http.MethodGet, "/v1/export", nil)
}

func (c *Client) Import(ctx context.Context, data []byte) (*game.BankState, error) {
	raw, err := c.rawRequest(ctx, http.MethodPost, "/v1/import", data)
	if err != nil {
		return nil, err
	}
	var out game.BankState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Do sends a JSON request and returns the decoded body. Queued offline
// commands are replayed through it.
func (c *Client) Do(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	var in any
	if body != nil {
		in = body
	}
	err := c.jsonRequest(ctx, method, path, in, &out, idem)
	return out, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) rawRequest(ctx context.Context, method, path string, data []byte) ([]byte, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
