// Package api is the typed HTTP client studentctl uses to reach the gateway.
package api

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

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/middleware/requestid"
)

// CodeTransport marks failures that never produced a gateway response.
const CodeTransport = "TRANSPORT_ERROR"

// TokenSource supplies the bearer token for each request. An empty token sends no header.
type TokenSource interface {
	Token() string
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Token string
	User  map[string]any
}

// UserID returns the account id carried by the response, if any.
func (r AuthResult) UserID() string {
	if r.User == nil {
		return ""
	}
	switch v := r.User["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Client talks to the gateway's /auth and /student routes.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// New builds a client for baseURL, e.g. http://localhost:3000/api.
func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

type authBody struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

// Register creates an account. The gateway does not sign the caller in.
func (c *Client) Register(ctx context.Context, payload map[string]any) (AuthResult, error) {
	var body authBody
	if err := c.do(ctx, http.MethodPost, "/auth/register", payload, &body); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: body.Token, User: body.User}, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	payload := map[string]any{"email": email, "password": password}
	var body authBody
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &body); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: body.Token, User: body.User}, nil
}

// ListStudents returns the raw student bodies in gateway order.
func (c *Client) ListStudents(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.do(ctx, http.MethodGet, "/student", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// GetStudent returns one raw student body.
func (c *Client) GetStudent(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, studentPath(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStudent sends payload as a partial update and returns the stored record.
func (c *Client) UpdateStudent(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPut, studentPath(id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStudent removes a student.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, studentPath(id), nil, nil)
}

func studentPath(id string) string {
	return "/student/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, CodeTransport, 0, "failed to encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return appErrors.Wrap(err, CodeTransport, 0, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := requestid.NewID()
	req.Header.Set(requestid.Header, reqID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return transportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return appErrors.Wrap(err, CodeTransport, resp.StatusCode, "gateway returned malformed JSON")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return appErrors.Wrap(err, CodeTransport, resp.StatusCode, "gateway returned an unexpected body")
	}
	return nil
}

func transportError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, CodeTransport, 0, "request timed out")
	case errors.Is(err, context.Canceled):
		return appErrors.Wrap(err, CodeTransport, 0, "request cancelled")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return appErrors.Wrap(err, CodeTransport, 0, "request timed out")
	}
	return appErrors.Wrap(err, CodeTransport, 0, "network error")
}

// statusError turns a non-2xx response into an error carrying the gateway's code and details.
func statusError(status int, raw []byte) *appErrors.Error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		e := *env.Error
		e.Status = status
		return &e
	}
	message := http.StatusText(status)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return appErrors.New("HTTP_"+fmt.Sprint(status), status, message)
}
