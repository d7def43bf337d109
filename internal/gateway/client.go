// Package gateway реализует единый HTTP-клиент к REST API салона.
//
// Каждый запрос проходит цепочку перехватчиков (статический токен API,
// Bearer-токен сессии, branch_id текущего филиала), ограничитель частоты и
// политику обработки 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
)

// Options содержит настройки клиента.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSec <= 0 отключает ограничение частоты.
	RequestsPerSec float64
	Burst          int
	Policy         *UnauthorizedPolicy
	Metrics        *Metrics
	Log            *slog.Logger
	// HTTPClient заменяет стандартный клиент, например в тестах.
	HTTPClient *http.Client
}

// Client выполняет запросы к API салона.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	policy       *UnauthorizedPolicy
	metrics      *Metrics
	log          *slog.Logger
	interceptors []Interceptor
}

// New создаёт клиент. Перехватчики подключаются через Use.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		policy:     opts.Policy,
		metrics:    opts.Metrics,
		log:        sl.OrDiscard(opts.Log),
	}
}

// Use добавляет перехватчики в конец цепочки.
func (c *Client) Use(interceptors ...Interceptor) {
	c.interceptors = append(c.interceptors, interceptors...)
}

// Get выполняет GET и декодирует ответ в out.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, out any) error {
	req := &Request{Method: http.MethodGet, Path: path}
	for k, v := range query {
		req.query().Set(k, v)
	}
	return c.Do(ctx, req, out)
}

// Post выполняет POST с JSON-телом.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put выполняет PUT с JSON-телом.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch выполняет PATCH с JSON-телом.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete выполняет DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

// Upload отправляет multipart/form-data тело.
func (c *Client) Upload(ctx context.Context, path string, body io.Reader, contentType string, out any) error {
	return c.Do(ctx, &Request{
		Method:    http.MethodPost,
		Path:      path,
		Multipart: &Multipart{Body: body, ContentType: contentType},
	}, out)
}

// Do применяет перехватчики, отправляет запрос и декодирует ответ в out.
// Ответ вне 2xx возвращается как *APIError; для 401 до возврата
// применяется UnauthorizedPolicy.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	const op = "gateway.Client.Do"
	log := c.log.With(sl.Op(op), slog.String("method", req.Method), slog.String("path", req.Path))

	for _, intercept := range c.interceptors {
		if err := intercept(ctx, req); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.metrics != nil {
		c.metrics.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.requests.WithLabelValues(req.Method, "error").Inc()
		}
		log.Error("request failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.requests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, req.Path, raw)
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr.Class = Classify(req.Path, nil)
			if c.policy != nil {
				apiErr.Class = c.policy.Handle(ctx, req.Path, req.Header.Get("Authorization") != "")
			}
			if c.metrics != nil {
				c.metrics.unauthorized.WithLabelValues(string(apiErr.Class)).Inc()
			}
		}
		log.Warn("api returned error status", slog.Int("status", resp.StatusCode), slog.String("message", apiErr.Message))
		return apiErr
	}

	log.Debug("request completed", slog.Int("status", resp.StatusCode))
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	url := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Multipart != nil:
		body = req.Multipart.Body
		contentType = req.Multipart.ContentType
	case req.Body != nil:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(req.Body); err != nil {
			return nil, err
		}
		body = &buf
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}
