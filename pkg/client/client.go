// Package client talks to the burger HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/latchjack/burger/pkg/auth"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/models"
	"github.com/shopspring/decimal"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status code %d: %s", e.Status, e.Message)
}

// RequestInterceptor runs before each request is sent. Returning an error
// aborts the request.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor sees every outcome. err is the transport error or an
// *APIError; whatever it returns replaces err.
type ResponseInterceptor func(resp *http.Response, err error) error

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	mu       sync.RWMutex
	nextID   int
	requests map[int]RequestInterceptor
	reqOrder []int
	response map[int]ResponseInterceptor
	resOrder []int
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		requests:   make(map[int]RequestInterceptor),
		response:   make(map[int]ResponseInterceptor),
	}
}

// UseRequest registers f and returns an id for Eject.
func (c *Client) UseRequest(f RequestInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.requests[c.nextID] = f
	c.reqOrder = append(c.reqOrder, c.nextID)
	return c.nextID
}

// UseResponse registers f and returns an id for Eject.
func (c *Client) UseResponse(f ResponseInterceptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.response[c.nextID] = f
	c.resOrder = append(c.resOrder, c.nextID)
	return c.nextID
}

// Eject removes the interceptor registered under id.
func (c *Client) Eject(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.requests, id)
	delete(c.response, id)
}

func (c *Client) requestInterceptors() []RequestInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RequestInterceptor, 0, len(c.requests))
	for _, id := range c.reqOrder {
		if f, ok := c.requests[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Client) responseInterceptors() []ResponseInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ResponseInterceptor, 0, len(c.response))
	for _, id := range c.resOrder {
		if f, ok := c.response[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

type Menu struct {
	BasePrice decimal.Decimal            `json:"basePrice"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Order     []string                   `json:"order"`
}

type Checkout struct {
	Ingredients burger.Ingredients `json:"ingredients"`
	Price       decimal.Decimal    `json:"price"`
	Purchasable bool               `json:"purchasable"`
}

type OrderRequest struct {
	Ingredients burger.Ingredients `json:"ingredients"`
	Price       decimal.Decimal    `json:"price"`
	OrderData   burger.ContactData `json:"orderData"`
}

type PlacedOrder struct {
	Name  string       `json:"name"`
	Order models.Order `json:"order"`
}

func (c *Client) Ingredients(ctx context.Context) (burger.Ingredients, error) {
	var out burger.Ingredients
	err := c.do(ctx, http.MethodGet, "/api/v1/ingredients", nil, &out)
	return out, err
}

func (c *Client) Menu(ctx context.Context) (*Menu, error) {
	var out Menu
	if err := c.do(ctx, http.MethodGet, "/api/v1/menu", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignUp creates an account and keeps the returned token.
func (c *Client) SignUp(ctx context.Context, email, password string) (auth.Token, error) {
	return c.authenticate(ctx, "/api/v1/auth/signup", email, password)
}

// Login keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Token, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (auth.Token, error) {
	var tok auth.Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &tok); err != nil {
		return auth.Token{}, err
	}
	c.Token = tok.IDToken
	return tok, nil
}

func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (*PlacedOrder, error) {
	var out PlacedOrder
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var out struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// Checkout resolves a query such as salad=1&price=4.5.
func (c *Client) Checkout(ctx context.Context, query string) (*Checkout, error) {
	var out Checkout
	path := "/api/v1/checkout?" + strings.TrimPrefix(query, "?")
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	for _, f := range c.requestInterceptors() {
		if err := f(req); err != nil {
			return err
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err == nil {
		err = decodeResponse(resp, out)
	}
	for _, f := range c.responseInterceptors() {
		err = f(resp, err)
	}
	return err
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
