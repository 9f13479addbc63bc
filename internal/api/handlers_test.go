package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-order-pipeline/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	orders    map[uuid.UUID]*models.Order
	submitErr error
}

func (s *fakeStore) SubmitOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Order, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	// Mirror the real store: validation happens inside the submit path.
	order, err := models.NewOrder(userID, amount)
	if err != nil {
		return nil, err
	}
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	if s.orders == nil {
		s.orders = map[uuid.UUID]*models.Order{}
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *fakeStore) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

type fakeCache struct {
	orders map[string]*models.Order
}

func (c *fakeCache) SetOrder(ctx context.Context, order *models.Order) error {
	if !order.State.Terminal() {
		return nil
	}
	if c.orders == nil {
		c.orders = map[string]*models.Order{}
	}
	c.orders[order.ID.String()] = order
	return nil
}

func (c *fakeCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if o, ok := c.orders[id]; ok {
		return o, nil
	}
	return nil, errors.New("cache: key not found")
}

func newServer(store *fakeStore, cache *fakeCache) *httptest.Server {
	h := &Handler{Store: store, Cache: cache}
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func postOrder(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

// ---------------------------------------------------------------------------
// POST /orders
// ---------------------------------------------------------------------------

func TestCreateOrder(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store, &fakeCache{})
	defer srv.Close()

	resp := postOrder(t, srv, `{"userId":"`+uuid.NewString()+`","amount":99.99}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		OrderID uuid.UUID    `json:"orderId"`
		State   models.State `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.StateCreated, body.State)
	assert.Contains(t, store.orders, body.OrderID)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	srv := newServer(&fakeStore{}, &fakeCache{})
	defer srv.Close()

	cases := map[string]string{
		"malformed JSON":  `{"userId":`,
		"missing user":    `{"amount":10}`,
		"bad user id":     `{"userId":"not-a-uuid","amount":10}`,
		"zero amount":     `{"userId":"` + uuid.NewString() + `","amount":0}`,
		"negative amount": `{"userId":"` + uuid.NewString() + `","amount":-5}`,
		"three decimals":  `{"userId":"` + uuid.NewString() + `","amount":1.999}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postOrder(t, srv, body)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateOrderStorageFailure(t *testing.T) {
	srv := newServer(&fakeStore{submitErr: errors.New("db down")}, &fakeCache{})
	defer srv.Close()

	resp := postOrder(t, srv, `{"userId":"`+uuid.NewString()+`","amount":10}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Failed to create order", body["error"])
}

// Identical bodies create distinct orders — there is no request-id dedup.
func TestCreateOrderNoRequestDedup(t *testing.T) {
	store := &fakeStore{}
	srv := newServer(store, &fakeCache{})
	defer srv.Close()

	body := `{"userId":"` + uuid.NewString() + `","amount":25.00}`
	for i := 0; i < 2; i++ {
		resp := postOrder(t, srv, body)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	assert.Len(t, store.orders, 2)
}

// ---------------------------------------------------------------------------
// GET /orders/{id}
// ---------------------------------------------------------------------------

func TestGetOrder(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}
	srv := newServer(store, cache)
	defer srv.Close()

	order, err := store.SubmitOrder(context.Background(), uuid.New(), decimal.RequireFromString("15.50"))
	require.NoError(t, err)

	t.Run("miss falls through to store", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/orders/" + order.ID.String())
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	})

	t.Run("non-terminal orders are never cached", func(t *testing.T) {
		assert.NotContains(t, cache.orders, order.ID.String())
	})

	t.Run("terminal orders are back-filled and hit", func(t *testing.T) {
		order.State = models.StatePaid
		order.Version = 3

		resp, err := http.Get(srv.URL + "/orders/" + order.ID.String())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

		resp, err = http.Get(srv.URL + "/orders/" + order.ID.String())
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

		var got models.Order
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, models.StatePaid, got.State)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/orders/" + uuid.NewString())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/orders/not-a-uuid")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthz(t *testing.T) {
	srv := newServer(&fakeStore{}, &fakeCache{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
