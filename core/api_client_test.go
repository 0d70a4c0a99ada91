package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method      string
	path        string
	body        string
	contentType string
	requestID   string
	cookie      string

	statusCode   int
	responseBody string
	setCookie    string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.contentType = r.Header.Get("Content-Type")
	h.requestID = r.Header.Get(RequestIDHeader)
	if ck, err := r.Cookie("token"); err == nil {
		h.cookie = ck.Value
	}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	if h.setCookie != "" {
		w.Header().Add("Set-Cookie", h.setCookie)
	}
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

func newTestAPIClient(t *testing.T, h http.Handler) *HTTPAPIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPAPIClient(srv.URL+"/", 2*time.Second)
}

func TestHTTPAPIClient_Login(t *testing.T) {
	h := &testHandler{setCookie: "token=abc123; Path=/; HttpOnly"}
	c := newTestAPIClient(t, h)

	ctx := WithRequestID(context.Background(), "req-test")
	resp, err := c.Login(ctx, Credentials{Username: "alice", Password: "hunter22", Master: "ignored"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/api/login" {
		t.Fatalf("got %s %s", h.method, h.path)
	}
	if h.contentType != "application/json;charset=utf-8" {
		t.Fatalf("content type = %q", h.contentType)
	}
	if h.requestID != "req-test" {
		t.Fatalf("request id = %q", h.requestID)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(h.body), &sent); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if len(sent) != 2 || sent["username"] != "alice" || sent["password"] != "hunter22" {
		t.Fatalf("login body = %s", h.body)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != nil {
		t.Fatalf("resp = %+v", resp)
	}
	cookies := resp.Cookies()
	if len(cookies) != 1 || cookies[0].Name != "token" || cookies[0].Value != "abc123" {
		t.Fatalf("cookies = %v", cookies)
	}
}

func TestHTTPAPIClient_Register(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"username":"alice"}`}
	c := newTestAPIClient(t, h)

	resp, err := c.Register(context.Background(), Credentials{Username: "alice", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if h.path != "/api/register" {
		t.Fatalf("path = %q", h.path)
	}
	if !strings.Contains(h.body, `"master":""`) {
		t.Fatalf("register body must carry empty master: %s", h.body)
	}
	if string(resp.Body) != `{"username":"alice"}` {
		t.Fatalf("body = %s", resp.Body)
	}
}

func TestHTTPAPIClient_RejectedDecodesErrorPage(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusForbidden,
		responseBody: `{"status":403,"message":"Forbidden","description":"You're not allowed to view the content on this page."}`,
	}
	c := newTestAPIClient(t, h)

	resp, err := c.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "Forbidden" || !strings.HasPrefix(apiErr.Description, "You're not allowed") {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response must be returned alongside the error: %+v", resp)
	}
	if ClassifyAPIError(err) != OutcomeRejected {
		t.Fatalf("outcome = %s", ClassifyAPIError(err))
	}
}

func TestHTTPAPIClient_RejectedPlainText(t *testing.T) {
	h := &testHandler{statusCode: http.StatusBadRequest, responseBody: "bad input"}
	c := newTestAPIClient(t, h)

	resp, err := c.Login(context.Background(), Credentials{Username: "a", Password: "b"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Description != "bad input" || apiErr.Message != "Bad Request" {
		t.Fatalf("err = %v", err)
	}
	if string(resp.Body) != `"bad input"` {
		t.Fatalf("non-json body must be kept as a json string, got %s", resp.Body)
	}
}

func TestHTTPAPIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewHTTPAPIClient(base, time.Second)
	_, err := c.Login(context.Background(), Credentials{Username: "a", Password: "b"})
	if !errors.Is(err, ErrAPIUnreachable) {
		t.Fatalf("expected ErrAPIUnreachable, got %v", err)
	}
	if ClassifyAPIError(err) != OutcomeUnreachable {
		t.Fatalf("outcome = %s", ClassifyAPIError(err))
	}
}

func TestHTTPAPIClient_Me(t *testing.T) {
	h := &testHandler{responseBody: `{"Username":"alice","UUID":"u-1"}`}
	c := newTestAPIClient(t, h)

	acct, resp, err := c.Me(context.Background(), []*http.Cookie{{Name: "token", Value: "abc123"}})
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/api/me" || h.body != "" {
		t.Fatalf("got %s %s body=%q", h.method, h.path, h.body)
	}
	if h.cookie != "abc123" {
		t.Fatalf("token cookie not forwarded: %q", h.cookie)
	}
	if acct.Username != "alice" || acct.UUID != "u-1" || resp.StatusCode != http.StatusOK {
		t.Fatalf("acct=%+v resp=%+v", acct, resp)
	}
}

func TestHTTPAPIClient_MeUnauthorized(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized}
	c := newTestAPIClient(t, h)

	acct, _, err := c.Me(context.Background(), nil)
	if acct != nil || ClassifyAPIError(err) != OutcomeRejected {
		t.Fatalf("acct=%v err=%v", acct, err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	if ClassifyAPIError(nil) != OutcomeOK {
		t.Fatalf("nil must be ok")
	}
	if ClassifyAPIError(errors.New("boom")) != OutcomeFailed {
		t.Fatalf("unknown errors must be failed")
	}
}

func TestMeLogsUndecodableAccount(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := &testHandler{responseBody: `{"username":5}`}
	client := newTestAPIClient(t, h)

	ctx := WithRequestID(context.Background(), "req-me-1")
	acct, _, err := client.Me(ctx, nil)
	if err != nil {
		t.Fatalf("a 2xx /api/me is authenticated: %v", err)
	}
	if acct == nil || acct.Username != "" {
		t.Fatalf("account = %+v", acct)
	}
	if !strings.Contains(buf.String(), "decode /api/me body failed request_id=req-me-1") {
		t.Fatalf("decode failure not logged: %q", buf.String())
	}
}
