package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-order-pipeline/internal/metrics"
	"go-order-pipeline/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Dependency interfaces
//
// Each interface captures exactly the methods this package needs.
// Callers (main, tests) inject the real implementations or fakes.
// ---------------------------------------------------------------------------

// OrderStore is the transactional write/read contract of the data layer.
type OrderStore interface {
	SubmitOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// OrderCache is the read-through cache contract for terminal orders.
type OrderCache interface {
	SetOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

// Handler holds every dependency the HTTP layer needs.
// All fields are interfaces — the real implementations are injected by main,
// fakes can be injected in tests.
type Handler struct {
	Store OrderStore
	Cache OrderCache
}

type createOrderRequest struct {
	UserID uuid.UUID       `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type createOrderResponse struct {
	OrderID uuid.UUID    `json:"orderId"`
	State   models.State `json:"state"`
}

// CreateOrder — POST /orders
//
// Writes the order and its OrderCreated outbox event in one transaction and
// returns 201 immediately. The relay and worker take it from there — the
// caller never waits for the broker or the payment.
//
// Note: there is no request-id dedup. Two identical POSTs create two
// distinct orders by design.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := h.Store.SubmitOrder(r.Context(), req.UserID, req.Amount)
	if errors.Is(err, models.ErrInvalidAmount) || errors.Is(err, models.ErrInvalidUserID) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("order submit failed",
			"component", "api",
			"user_id", req.UserID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to create order",
		})
		return
	}

	metrics.OrdersCreated.Inc()
	slog.Info("order created",
		"component", "api",
		"order_id", order.ID,
		"user_id", order.UserID,
		"amount", order.Amount,
	)
	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID: order.ID,
		State:   order.State,
	})
}

// GetOrder — GET /orders/{id}
//
// Read path:
//   - Redis HIT  → return instantly (only terminal orders are ever cached)
//   - Redis MISS → Postgres lookup → back-fill if terminal
//   - sql.ErrNoRows → 404   (genuine not-found)
//   - any other DB error → 500  (infra failure, not a 404)
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid order ID", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	if order, err := h.Cache.GetOrder(ctx, id.String()); err == nil {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, order)
		return
	}

	order, err := h.Store.GetOrderByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("postgres read failed",
			"component", "api",
			"order_id", id,
			"error", err,
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_ = h.Cache.SetOrder(ctx, order) // back-fill; failure is non-fatal

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, order)
}

// Healthz — GET /healthz liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
