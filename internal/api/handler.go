package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"paper-trader/config"
	"paper-trader/internal/app"
	"paper-trader/ledger"
	"paper-trader/observability"
	"paper-trader/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// DepositRequest is the body of POST /api/ledger/{userID}/deposit
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BuyRequest is the body of POST /api/ledger/{userID}/buy.
// Amount is the cash to spend, in dollars.
type BuyRequest struct {
	AssetID string          `json:"asset_id"`
	Symbol  string          `json:"symbol"`
	Amount  decimal.Decimal `json:"amount"`
}

// PartialSellRequest is the body of POST .../sell/{positionID}/partial
type PartialSellRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"store": "unknown",
		},
	}

	if err := h.app.Store().Health(r.Context()); err == nil {
		status["services"].(map[string]string)["store"] = "connected"
	} else {
		status["services"].(map[string]string)["store"] = "disconnected"
		status["status"] = "degraded"
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetLedger returns the user's portfolio at current prices
func (h *Handler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	portfolio, err := h.app.Portfolio(r.Context(), userID)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	h.jsonResponse(w, portfolio)
}

// HandleGetHistory returns the user's closed trades, newest first
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := h.ParseLimitParam(r, 0)

	history, err := h.app.History(r.Context(), userID, limit)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"trades": history,
		"count":  len(history),
	})
}

// HandleDeposit credits cash to the user's ledger
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	state, err := h.app.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	observability.WithUser(userID).Info("deposit accepted", "amount", req.Amount.String())
	h.jsonResponse(w, state)
}

// HandleBuy opens a position by spending cash on an asset
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	req.AssetID = strings.ToLower(strings.TrimSpace(req.AssetID))
	if req.AssetID == "" {
		h.jsonError(w, "asset_id is required", http.StatusBadRequest)
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		req.Symbol = strings.ToUpper(req.AssetID)
	}

	pos, err := h.app.Buy(r.Context(), userID, req.AssetID, req.Symbol, req.Amount)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	observability.WithUser(userID).Info("position opened",
		"asset_id", req.AssetID, "quantity", pos.Quantity.String(), "entry_price", pos.EntryPrice.String())
	h.jsonResponse(w, pos)
}

// HandleSell fully closes a position
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	positionID, err := uuid.Parse(chi.URLParam(r, "positionID"))
	if err != nil {
		h.jsonError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	trade, err := h.app.Sell(r.Context(), userID, positionID)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	observability.WithUser(userID).Info("position closed",
		"asset_id", trade.AssetID, "realized_pnl", trade.RealizedPnL.String())
	h.jsonResponse(w, trade)
}

// HandleSellPartial closes part of a position
func (h *Handler) HandleSellPartial(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	positionID, err := uuid.Parse(chi.URLParam(r, "positionID"))
	if err != nil {
		h.jsonError(w, "Invalid position ID", http.StatusBadRequest)
		return
	}

	var req PartialSellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	trade, err := h.app.SellPartial(r.Context(), userID, positionID, req.Quantity)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	observability.WithUser(userID).Info("position partially closed",
		"asset_id", trade.AssetID, "quantity", trade.Quantity.String(), "realized_pnl", trade.RealizedPnL.String())
	h.jsonResponse(w, trade)
}

// HandleReset replaces the user's ledger with the default empty state
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	state, err := h.app.Reset(r.Context(), userID)
	if err != nil {
		h.ledgerError(w, err)
		return
	}

	observability.WithUser(userID).Info("ledger reset")
	h.jsonResponse(w, state)
}

// HandleGetPrice returns the current cached price for an asset
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	assetID := strings.ToLower(chi.URLParam(r, "assetID"))

	if err := h.app.Prices().Ensure(r.Context(), assetID); err != nil {
		observability.WithAsset(assetID).Warn("price fetch failed", "error", err)
	}

	price, ok := h.app.Prices().Price(assetID)
	if !ok {
		h.jsonError(w, "Price unavailable for "+assetID, http.StatusServiceUnavailable)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"asset_id": assetID,
		"price":    price,
	})
}

// ledgerError maps domain errors to HTTP status codes
func (h *Handler) ledgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
	}
	h.jsonError(w, err.Error(), status)
}

// ParseLimitParam parses the limit query parameter
func (h *Handler) ParseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
