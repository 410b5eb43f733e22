// Package backend is a thin typed client for the Experience by Locals REST
// backend. Every call takes the caller's context so a disconnected client
// cancels its in-flight upstream requests.
//
// A base [Client] is shared by the whole process. Per-request state (the
// caller's session cookies) lives on the bound copy returned by
// [Client.WithCookies]; handlers never share a bound client across requests.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Query is anything that renders an already-escaped query string,
// such as url.Values or filter.Params.
type Query interface {
	Encode() string
}

// Client calls the REST backend on behalf of one caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	jar        *cookieJar
}

// NewClient creates a client for baseURL, e.g. "http://localhost:5000/api".
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithCookies returns a copy of c bound to the caller's session cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	bound := *c
	bound.jar = newCookieJar(cookies)
	return &bound
}

// SessionID is the backend session cookie currently held for the caller.
func (c *Client) SessionID() string {
	return c.jar.value(SessionCookie)
}

// DrainCookies returns, and forgets, the cookies the backend set since the
// last drain so the caller can relay them to the browser.
func (c *Client) DrainCookies() []*http.Cookie {
	return c.jar.drain()
}

// FilePart is one file of a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

func (c *Client) newRequest(ctx context.Context, method, path string, query Query, body io.Reader, contentType string) (*http.Request, error) {
	target := c.baseURL + path
	if query != nil {
		if encoded := query.Encode(); encoded != "" {
			target += "?" + encoded
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.jar.apply(req)
	return req, nil
}

// doJSON sends body (if any) as JSON and decodes a 2xx answer into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query Query, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, query, reader, contentType)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

// doMultipart sends fields and files as multipart/form-data.
func (c *Client) doMultipart(ctx context.Context, method, path string, query Query, fields map[string]string, files []FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("backend: failed to write field %s: %w", name, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return fmt.Errorf("backend: failed to create form file %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("backend: failed to read %s: %w", f.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("backend: failed to finish multipart body: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, query, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &TransportError{Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.jar.update(resp)

	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Method: req.Method, Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &TransportError{Method: req.Method, Path: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// Health calls the backend's health check.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/general/health", nil, nil, nil)
}

func idPath(format string, id int) string {
	return fmt.Sprintf(format, url.PathEscape(fmt.Sprint(id)))
}
