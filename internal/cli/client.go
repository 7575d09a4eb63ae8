package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/middleware"
)

// Client is an HTTP client for the API. It carries the session cookie value
// and reports changes the server makes to it.
type Client struct {
	baseURL    string
	cookie     string
	httpClient *http.Client

	// OnCookie is called with the new cookie value whenever a response sets
	// the session cookie, and with "" when the server clears it
	OnCookie func(value string) error
}

// NewClient creates a new API client
func NewClient(baseURL, cookie string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cookie:  cookie,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Cookie returns the session cookie value the client currently sends
func (c *Client) Cookie() string {
	return c.cookie
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: c.cookie})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.trackCookie(resp); err != nil {
		return err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s (%s)", errResp.Error.Message, errResp.Error.Code)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) trackCookie(resp *http.Response) error {
	for _, ck := range resp.Cookies() {
		if ck.Name != middleware.SessionCookieName {
			continue
		}
		value := ck.Value
		if ck.MaxAge < 0 {
			value = ""
		}
		c.cookie = value
		if c.OnCookie != nil {
			if err := c.OnCookie(value); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}
		}
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(path string, body, result any) error {
	return c.Do(http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string, result any) error {
	return c.Do(http.MethodDelete, path, nil, result)
}
