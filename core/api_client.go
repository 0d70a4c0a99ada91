package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes caps how much of an API response body is read.
const maxResponseBytes = 1 << 20

// ErrAPIUnreachable wraps transport failures (DNS, refused, timeout).
var ErrAPIUnreachable = errors.New("upfi api unreachable")

// APIClient abstracts the upfi JSON API.
type APIClient interface {
	Submit(ctx context.Context, mode Mode, creds Credentials) (*APIResponse, error)
	Me(ctx context.Context, cookies []*http.Cookie) (*Account, *APIResponse, error)
}

// APIResponse is what came back from the API, successful or not.
type APIResponse struct {
	StatusCode int
	// Body is the response JSON; non-JSON bodies are stored as a JSON string.
	Body json.RawMessage
	// SetCookies holds the raw Set-Cookie header values.
	SetCookies []string
}

// Cookies parses SetCookies.
func (r *APIResponse) Cookies() []*http.Cookie {
	if r == nil || len(r.SetCookies) == 0 {
		return nil
	}
	h := http.Header{}
	for _, v := range r.SetCookies {
		h.Add("Set-Cookie", v)
	}
	return (&http.Response{Header: h}).Cookies()
}

// Account is the subset of /api/me the client cares about.
type Account struct {
	Username string `json:"username"`
	UUID     string `json:"uuid"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode  int
	Message     string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("api returned status %d: %s: %s", e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// Outcome classifies the result of one API call.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeFailed      Outcome = "failed"
)

// ClassifyAPIError separates "the API said no" from "we could not talk to it".
func ClassifyAPIError(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return OutcomeRejected
	}
	if errors.Is(err, ErrAPIUnreachable) {
		return OutcomeUnreachable
	}
	return OutcomeFailed
}

// HTTPAPIClient calls the upfi API over HTTP.
type HTTPAPIClient struct {
	client *http.Client
	base   string
}

func NewHTTPAPIClient(baseURL string, timeout time.Duration) *HTTPAPIClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAPIClient{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the API base the client targets.
func (c *HTTPAPIClient) BaseURL() string { return c.base }

// Login posts {username, password} to /api/login.
func (c *HTTPAPIClient) Login(ctx context.Context, creds Credentials) (*APIResponse, error) {
	return c.Submit(ctx, ModeLogin, creds)
}

// Register posts {username, password, master} to /api/register.
func (c *HTTPAPIClient) Register(ctx context.Context, creds Credentials) (*APIResponse, error) {
	return c.Submit(ctx, ModeRegister, creds)
}

// Submit posts the mode's request body to the mode's endpoint. A non-2xx
// status returns both the response and an *APIError.
func (c *HTTPAPIClient) Submit(ctx context.Context, mode Mode, creds Credentials) (*APIResponse, error) {
	body, err := creds.RequestBody(mode)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+mode.Endpoint(), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("Accept", "application/json")

	log.Printf("api %s user=%s request_id=%s", mode, creds.Username, RequestIDFrom(ctx))
	return c.do(req)
}

// Me asks the API who the owner of cookies is.
func (c *HTTPAPIClient) Me(ctx context.Context, cookies []*http.Cookie) (*Account, *APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/me", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, resp, err
	}

	var acct Account
	if len(resp.Body) > 0 {
		// /api/me may answer with an object or an empty body; both count as authenticated.
		if err := json.Unmarshal(resp.Body, &acct); err != nil {
			log.Printf("decode /api/me body failed request_id=%s: %v", RequestIDFrom(ctx), err)
		}
	}
	return &acct, resp, nil
}

func (c *HTTPAPIClient) do(req *http.Request) (*APIResponse, error) {
	if c.base == "" {
		return nil, errors.New("upfi api url not configured")
	}
	if id := RequestIDFrom(req.Context()); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrAPIUnreachable, err)
	}

	out := &APIResponse{
		StatusCode: resp.StatusCode,
		Body:       normalizeBody(raw),
		SetCookies: resp.Header.Values("Set-Cookie"),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, decodeAPIError(resp.StatusCode, raw)
	}
	return out, nil
}

func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return json.RawMessage(quoted)
}

// decodeAPIError understands the upfi error page payload
// {"status","message","description"} and the {"error": ...} shapes.
func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var page struct {
		Message     string          `json:"message"`
		Description string          `json:"description"`
		Error       json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 {
			apiErr.Description = text
		}
		return apiErr
	}
	if page.Message != "" {
		apiErr.Message = page.Message
	}
	apiErr.Description = page.Description

	if len(page.Error) > 0 {
		var s string
		if json.Unmarshal(page.Error, &s) == nil && s != "" {
			apiErr.Description = s
		}
		var obj struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(page.Error, &obj) == nil && obj.Message != "" {
			apiErr.Description = obj.Message
		}
	}
	return apiErr
}
