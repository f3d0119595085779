package apiclient

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

	"github.com/shopspring/decimal"

	"github.com/forgo/storefront-e2e/internal/model"
)

// DefaultTimeout bounds each request when Config.Timeout is zero
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnauthorized is returned for a 401 response
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for a 404 response
	ErrNotFound = errors.New("not found")
	// ErrKeyRejected is returned when the backend refuses an activation or
	// reset key (400 or 410)
	ErrKeyRejected = errors.New("key rejected")
)

// Problem is an RFC 9457 problem details body
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

// StatusError is any non-2xx response. It unwraps to the sentinel for its
// status where one exists.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Problem *Problem
	kind    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
	if e.Problem != nil {
		if e.Problem.Detail != "" {
			return msg + ": " + e.Problem.Detail
		}
		if e.Problem.Title != "" {
			return msg + ": " + e.Problem.Title
		}
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// Config holds client settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the storefront backend directly, for arranging and checking
// state that the browser flow does not expose
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	http    *http.Client
	token   string
}

// New creates a client for cfg.BaseURL
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: u, timeout: timeout, http: hc}, nil
}

// WithToken returns a copy of c that sends token as a bearer credential
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do sends one JSON request. keyAction maps 400 and 410 to ErrKeyRejected.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, keyAction bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, raw, keyAction)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s response: missing data", path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

func statusError(method, path string, status int, raw []byte, keyAction bool) error {
	se := &StatusError{Method: method, Path: path, Status: status}
	var p Problem
	if len(raw) > 0 && json.Unmarshal(raw, &p) == nil && (p.Title != "" || p.Detail != "") {
		se.Problem = &p
	}
	switch {
	case status == http.StatusUnauthorized:
		se.kind = ErrUnauthorized
	case status == http.StatusNotFound:
		se.kind = ErrNotFound
	case keyAction && (status == http.StatusBadRequest || status == http.StatusGone):
		se.kind = ErrKeyRejected
	}
	return se
}

// Session is the result of a successful login
type Session struct {
	Token string         `json:"token"`
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &s, false)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivateAccount redeems an activation key
func (c *Client) ActivateAccount(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/activate", map[string]string{"key": key}, nil, true)
}

// ResetPassword redeems a password reset key and sets a new password
func (c *Client) ResetPassword(ctx context.Context, key, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"key":      key,
		"password": newPassword,
	}, nil, true)
}

// CartLine is one line of a cart quote request
type CartLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// CartTotal is the backend's price breakdown for a cart
type CartTotal struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   string          `json:"coupon,omitempty"`
}

// CartTotal asks the backend to price lines with an optional coupon code
func (c *Client) CartTotal(ctx context.Context, lines []CartLine, coupon string) (*CartTotal, error) {
	body := struct {
		Items  []CartLine `json:"items"`
		Coupon string     `json:"coupon,omitempty"`
	}{Items: lines, Coupon: coupon}

	var t CartTotal
	if err := c.do(ctx, http.MethodPost, "/api/cart/total", body, &t, false); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOrder fetches an order by number. It requires a token.
func (c *Client) GetOrder(ctx context.Context, number string) (*model.Order, error) {
	var o model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(number), nil, &o, false); err != nil {
		return nil, err
	}
	return &o, nil
}
