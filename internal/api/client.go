package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TransportError wraps a fetch or submit failure. It is shown as a
// dismissible notice and never retried automatically.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the game server's JSON endpoints on behalf of one team
// member. Team identity rides on headers; the server performs admission
// control.
type Client struct {
	baseURL    string
	teamID     string
	playerName string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a REST client for the given server and identity.
func NewClient(baseURL, teamID, playerName string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		teamID:     teamID,
		playerName: playerName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.teamID != "" {
		req.Header.Set("X-Team-ID", c.teamID)
	}
	if c.playerName != "" {
		req.Header.Set("X-Player-Name", c.playerName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("server returned %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return fmt.Errorf("%s", body.Message)
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
