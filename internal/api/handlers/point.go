package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/point-ledger/internal/api/httpx"
	"github.com/baharkarakas/point-ledger/internal/api/validate"
	"github.com/baharkarakas/point-ledger/internal/middleware"
	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/services"
)

// Ledger is the part of services.PointService the HTTP layer calls.
type Ledger interface {
	GetBalance(ctx context.Context, userID int64) (models.Balance, error)
	CreditIdem(ctx context.Context, userID, amount int64, idemKey string) (models.Balance, error)
	DebitIdem(ctx context.Context, userID, amount int64, idemKey string) (models.Balance, error)
	GetHistory(ctx context.Context, userID int64) []models.TransactionRecord
	Reset(ctx context.Context)
}

// IdempotencyKeyHeader lets a client retry charge/use without applying it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

type PointHandler struct {
	Svc       Ledger
	MinCharge int64
	MinUse    int64
}

// NewPointHandler falls back to the service floors when a minimum is not positive.
func NewPointHandler(svc Ledger, minCharge, minUse int64) *PointHandler {
	if minCharge <= 0 {
		minCharge = services.MinChargeAmount
	}
	if minUse <= 0 {
		minUse = services.MinUseAmount
	}
	return &PointHandler{Svc: svc, MinCharge: minCharge, MinUse: minUse}
}

func (h *PointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	b, err := h.Svc.GetBalance(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.Svc.GetHistory(r.Context(), id))
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.MinCharge, h.Svc.CreditIdem)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.MinUse, h.Svc.DebitIdem)
}

func (h *PointHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Svc.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, floor int64,
	op func(context.Context, int64, int64, string) (models.Balance, error)) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	amount, err := decodeAmount(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid amount body", err.Error())
		return
	}
	if err := validate.Collect(validate.MinInt("amount", amount, floor)); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "amount below minimum", err)
		return
	}

	b, err := op(r.Context(), id, amount, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ef := validate.ID("id", chi.URLParam(r, "id"))
	if ef != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid user id", validate.Errs{*ef})
		return 0, false
	}
	return id, true
}

type amountReq struct {
	Amount *int64 `json:"amount"`
}

// decodeAmount accepts either a bare JSON integer or {"amount": n}.
func decodeAmount(r *http.Request) (int64, error) {
	var raw json.RawMessage
	if err := httpx.Decode(r, &raw); err != nil {
		return 0, err
	}
	if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return n, nil
	}
	var req amountReq
	if err := json.Unmarshal(raw, &req); err != nil || req.Amount == nil {
		return 0, errors.New(`expected an integer or {"amount": <integer>}`)
	}
	return *req.Amount, nil
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reason := services.Reason(err)
	switch reason {
	case "invalid_amount", "limit_exceeded", "insufficient_balance":
		httpx.WriteError(w, http.StatusBadRequest, reason, err.Error(), nil)
	case "idempotency_key_reused":
		httpx.WriteError(w, http.StatusConflict, reason, err.Error(), nil)
	case "timeout":
		httpx.WriteError(w, http.StatusServiceUnavailable, reason, "request timed out", nil)
	default:
		slog.ErrorContext(r.Context(), "point handler", "err", err,
			"request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
