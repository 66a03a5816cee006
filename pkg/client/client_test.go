package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ingredients", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(burger.Ingredients{"salad": 1, "meat": 2})
	})
	mux.HandleFunc("/api/v1/menu", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"basePrice":"4","prices":{"salad":"0.5"},"order":["salad"]}`))
	})
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"idToken":"tok-1","localId":"user-1","expiresIn":3600}`))
	})
	mux.HandleFunc("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing auth token"}`))
			return
		}
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"order-1","order":{"id":"order-1"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"orders":[{"id":"order-1"}],"total":1}`))
	})
	mux.HandleFunc("/api/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("salad") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid checkout query"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ingredients":{"salad":1},"price":"4.5","purchasable":true}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCalls(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	ingredients, err := c.Ingredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, burger.Ingredients{"salad": 1, "meat": 2}, ingredients)

	menu, err := c.Menu(ctx)
	require.NoError(t, err)
	assert.True(t, menu.BasePrice.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, []string{"salad"}, menu.Order)

	_, err = c.Orders(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	tok, err := c.Login(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.LocalID)
	assert.Equal(t, "tok-1", c.Token)

	placed, err := c.PlaceOrder(ctx, OrderRequest{
		Ingredients: burger.Ingredients{"salad": 1},
		Price:       decimal.RequireFromString("4.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", placed.Name)

	orders, err := c.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].ID)

	checkout, err := c.Checkout(ctx, "?salad=1&price=4.5")
	require.NoError(t, err)
	assert.True(t, checkout.Purchasable)
	assert.True(t, checkout.Price.Equal(decimal.RequireFromString("4.5")))
}

func TestAPIErrorMessage(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, "jane@example.com", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid email or password", apiErr.Message)
	assert.Empty(t, c.Token)

	err = c.do(ctx, http.MethodGet, "/broken", nil, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestInterceptors(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	var seen []string
	reqID := c.UseRequest(func(r *http.Request) error {
		seen = append(seen, "req "+r.URL.Path)
		return nil
	})
	c.UseResponse(func(resp *http.Response, err error) error {
		seen = append(seen, "res")
		return err
	})

	_, err := c.Ingredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"req /api/v1/ingredients", "res"}, seen)

	c.Eject(reqID)
	seen = nil
	_, err = c.Ingredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"res"}, seen)

	blocked := errors.New("offline")
	c.UseRequest(func(*http.Request) error { return blocked })
	_, err = c.Ingredients(ctx)
	assert.ErrorIs(t, err, blocked)
}

func TestErrorHandler(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	var h ErrorHandler
	h.Attach(c)
	h.Attach(c)

	_, err := c.Checkout(ctx, "salad=2")
	require.Error(t, err)
	assert.Equal(t, "invalid checkout query", h.Message())

	h.Confirm()
	assert.NoError(t, h.Err())
	assert.Empty(t, h.Message())

	_, err = c.Checkout(ctx, "salad=2")
	require.Error(t, err)
	_, err = c.Ingredients(ctx)
	require.NoError(t, err)
	assert.NoError(t, h.Err(), "a new request clears the previous error")

	h.Detach()
	_, err = c.Checkout(ctx, "salad=2")
	require.Error(t, err)
	assert.NoError(t, h.Err())

	down := New("http://127.0.0.1:1")
	var h2 ErrorHandler
	h2.Attach(down)
	_, err = down.Menu(ctx)
	require.Error(t, err)
	assert.NotEmpty(t, h2.Message())
}
