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

	"github.com/fjod/shopease/internal/domain"
	"github.com/fjod/shopease/pkg/circuitbreaker"
	"github.com/fjod/shopease/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://shopeasebackend-production.up.railway.app/api/v1"
	headerRequestID   = "X-Request-ID"
	headerIdempotency = "Idempotency-Key"
	refreshCookieName = "refreshToken"
)

// Client is a typed client for the ShopEase backend REST API.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	breaker  *circuitbreaker.Breaker
	settings circuitbreaker.Settings
	logger   *zap.Logger
	observe  func(method string, status int)
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBreaker(s circuitbreaker.Settings) Option {
	return func(cl *Client) { cl.settings = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithObserver is called once per backend round trip with the response
// status, or 0 when no response arrived.
func WithObserver(fn func(method string, status int)) Option {
	return func(cl *Client) { cl.observe = fn }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		settings: circuitbreaker.DefaultSettings("backend"),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.settings.IsSuccessful = countsAsSuccess
	c.breaker = circuitbreaker.New(c.settings, c.logger)
	return c, nil
}

type envelope struct {
	Success       *bool            `json:"success"`
	Message       string           `json:"message"`
	Data          json.RawMessage  `json:"data"`
	Meta          *domain.PageMeta `json:"meta"`
	ErrorMessages []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"errorMessages"`
}

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

type call struct {
	method       string
	path         string
	query        url.Values
	token        string
	refreshToken string
	idempotency  string
	body         any
	form         map[string][]string
	files        []formFile
}

// do sends req and decodes the envelope's data into out when out is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) (*domain.PageMeta, error) {
	var env envelope
	err := c.breaker.Do(func() error {
		var err error
		env, err = c.roundTrip(ctx, req)
		return err
	})
	if err != nil {
		logger.FromContext(ctx, c.logger).Debug("backend call failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err))
		return nil, err
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
		}
	}
	return env.Meta, nil
}

func (c *Client) roundTrip(ctx context.Context, req call) (envelope, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return envelope{}, err
	}

	rel := &url.URL{Path: strings.TrimLeft(req.path, "/")}
	if len(req.query) > 0 {
		rel.RawQuery = req.query.Encode()
	}
	u := c.baseURL.ResolveReference(rel)

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.refreshToken != "" {
		httpReq.AddCookie(&http.Cookie{Name: refreshCookieName, Value: req.refreshToken})
	}
	if req.idempotency != "" {
		httpReq.Header.Set(headerIdempotency, req.idempotency)
	}
	if id := logger.RequestID(ctx); id != "" {
		httpReq.Header.Set(headerRequestID, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.record(req.method, 0)
		return envelope{}, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()
	c.record(req.method, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return envelope{}, fmt.Errorf("decode envelope: %w", err)
		}
	}

	failed := resp.StatusCode < 200 || resp.StatusCode >= 300
	if !failed && env.Success != nil && !*env.Success {
		failed = true
	}
	if failed {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if apiErr.Status < 300 {
			// 2xx with success=false carries a business error
			apiErr.Status = http.StatusUnprocessableEntity
		}
		for _, m := range env.ErrorMessages {
			if m.Message != "" {
				apiErr.Messages = append(apiErr.Messages, m.Message)
			}
		}
		return envelope{}, apiErr
	}

	return env, nil
}

func (c *Client) record(method string, status int) {
	if c.observe != nil {
		c.observe(method, status)
	}
}

func encodeBody(req call) (io.Reader, string, error) {
	if req.form != nil || len(req.files) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for field, values := range req.form {
			for _, v := range values {
				if err := w.WriteField(field, v); err != nil {
					return nil, "", fmt.Errorf("write form field %s: %w", field, err)
				}
			}
		}
		for _, f := range req.files {
			part, err := w.CreateFormFile(f.field, f.filename)
			if err != nil {
				return nil, "", fmt.Errorf("create form file: %w", err)
			}
			if _, err := io.Copy(part, f.content); err != nil {
				return nil, "", fmt.Errorf("copy form file %s: %w", f.filename, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}

	if req.body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(req.body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}
