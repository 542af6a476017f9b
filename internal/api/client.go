package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// maxResponseSize bounds how much of a backend response body is read.
const maxResponseSize = 10 * 1024 * 1024

// Envelope is the wrapper every backend response uses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Observer receives one call per backend round trip. Status is 0 when the
// request never got a response.
type Observer interface {
	ObserveBackendCall(method, path string, status int, elapsed time.Duration)
}

// File is one part of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	observer Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a JSON request and decodes the envelope's data into out (which may
// be nil). A non-empty token is sent as a bearer credential.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string, out any) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "invalid request body", Err: err}
		}
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, token, out)
}

// Upload submits files as multipart form data under field. No JSON content
// type is set; the multipart boundary header is used instead.
func (c *Client) Upload(ctx context.Context, path, field string, files []File, token string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "invalid upload", Err: err}
		}
		if _, err := part.Write(f.Data); err != nil {
			return &Error{Kind: KindValidation, Message: "invalid upload", Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return &Error{Kind: KindValidation, Message: "invalid upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, token, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) send(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(req, 0, start)
		c.logger.Warn("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close backend response body", "error", err)
		}
	}()
	c.observe(req, resp.StatusCode, start)

	c.logger.Debug("backend request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return decode(resp, out)
}

func (c *Client) observe(req *http.Request, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(req.Method, req.URL.Path, status, time.Since(start))
}

type rawEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decode(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Kind: KindNetwork, Message: networkMessage, Status: resp.StatusCode, Err: err}
	}

	var env rawEnvelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallbackMessage
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return &Error{Kind: kindForStatus(resp.StatusCode), Message: msg, Status: resp.StatusCode}
	}
	if decodeErr != nil {
		return &Error{Kind: KindServer, Message: "invalid response from server", Status: resp.StatusCode, Err: decodeErr}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fallbackMessage
		}
		return &Error{Kind: KindServer, Message: msg, Status: resp.StatusCode}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Message: "invalid response from server", Status: resp.StatusCode, Err: err}
	}
	return nil
}
