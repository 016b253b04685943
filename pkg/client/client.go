package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/conversation"
	"knowledge-workspace/pkg/store"
)

const module = "WorkspaceClient"

var ErrNotLoggedIn = errors.New("not logged in, run `assistant login` first")

// APIError is a non-2xx answer from the server. Message is the server's
// own text and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Session is what the server reports about the signed-in user.
type Session struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Client talks to the workspace server on behalf of one install. The session
// cookie is mirrored into the KV store so it survives restarts.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	kv         store.KV
	sessionKey string
	logger     logger.ILogger
}

var _ conversation.Backend = (*Client)(nil)

func New(baseURL string, kv store.KV, sessionKey string, log logger.ILogger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Jar: jar},
		jar:        jar,
		kv:         kv,
		sessionKey: sessionKey,
		logger:     log,
	}
	c.restoreSession()
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) restoreSession() {
	raw, ok, err := c.kv.Get(c.sessionKey)
	if err != nil {
		c.logger.Warn(module, "Failed to read stored session", map[string]interface{}{"error": err.Error()})
		return
	}
	if !ok || raw == "" {
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.logger.Warn(module, "Stored session is corrupt, ignoring it", map[string]interface{}{"error": err.Error()})
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Expires: s.Expires, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

func (c *Client) saveSession() {
	cookies := c.jar.Cookies(c.baseURL)
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := c.kv.Set(c.sessionKey, string(data)); err != nil {
		c.logger.Warn(module, "Failed to persist session", map[string]interface{}{"error": err.Error()})
	}
}

// HasSession reports whether a session cookie is held locally. The server
// may still reject it.
func (c *Client) HasSession() bool {
	return len(c.jar.Cookies(c.baseURL)) > 0
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// readError turns a non-2xx response into an APIError. Envelope bodies are
// unwrapped to their message; anything else is used as plain text.
func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	text := strings.TrimSpace(string(raw))

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		text = env.Message
	}
	return &APIError{Status: resp.StatusCode, Message: text}
}

func decodeEnvelope[T any](resp *http.Response) (T, error) {
	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Data, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readError(resp)
	}

	session, err := decodeEnvelope[Session](resp)
	if err != nil {
		return nil, err
	}
	c.saveSession()
	c.logger.Info(module, "Logged in", map[string]interface{}{"email": session.Email})
	return &session, nil
}

// Logout forgets the local session even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err == nil {
		resp.Body.Close()
	}

	if jar, jerr := cookiejar.New(nil); jerr == nil {
		c.jar = jar
		c.httpClient.Jar = jar
	}
	if serr := c.kv.Set(c.sessionKey, ""); serr != nil {
		c.logger.Warn(module, "Failed to clear stored session", map[string]interface{}{"error": serr.Error()})
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*Session, error) {
	if !c.HasSession() {
		return nil, ErrNotLoggedIn
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNotLoggedIn
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readError(resp)
	}

	session, err := decodeEnvelope[Session](resp)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListDocuments fetches the whole workspace corpus.
func (c *Client) ListDocuments(ctx context.Context) ([]rag.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/documents", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNotLoggedIn
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readError(resp)
	}

	docs, err := decodeEnvelope[[]rag.Document](resp)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []rag.Document{}
	}
	return docs, nil
}

// Ask sends one chat turn. The request carries no timeout of its own.
func (c *Client) Ask(ctx context.Context, req rag.ChatRequest) (*rag.ChatResponse, error) {
	if req.Context == nil {
		req.Context = []rag.ContextDocument{}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/chat", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readError(resp)
	}

	var out rag.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &out, nil
}
