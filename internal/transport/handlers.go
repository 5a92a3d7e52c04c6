package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripledger/tripledger/internal/auth"
	"github.com/tripledger/tripledger/internal/middleware"
	"github.com/tripledger/tripledger/internal/models"
	"github.com/tripledger/tripledger/internal/service"
	"github.com/tripledger/tripledger/internal/storage"
)

// Handler bundles the services behind the REST API.
type Handler struct {
	trips       *service.TripService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
}

// NewHandler creates a Handler over the given services.
func NewHandler(trips *service.TripService, expenses *service.ExpenseService, settlements *service.SettlementService) *Handler {
	return &Handler{trips: trips, expenses: expenses, settlements: settlements}
}

func (h *Handler) createTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	trip, err := h.trips.Create(r.Context(), req.Name, req.Currency, req.Participants, req.JoinPIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (h *Handler) getTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.trips.Get(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) joinTrip(w http.ResponseWriter, r *http.Request) {
	var req joinTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	token, err := h.trips.Join(r.Context(), chi.URLParam(r, "tripID"), req.ParticipantID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) previewExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	result, err := h.expenses.PreviewItemized(r.Context(), chi.URLParam(r, "tripID"), itemizedInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{
		GrandTotal: result.GrandTotal,
		Amounts:    result.Amounts,
		Breakdowns: result.Breakdowns,
		Warnings:   result.Warnings,
	})
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	if !authorizedForTrip(r, tripID) {
		writeForbidden(w)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	switch req.SplitType {
	case models.SplitItemized, "":
		expense, warnings, err := h.expenses.CreateItemized(r.Context(), tripID, itemizedInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toExpenseResponse(expense, warnings))
	case models.SplitLegacy:
		expense, err := h.expenses.CreateLegacy(r.Context(), tripID, service.LegacyExpenseInput{
			Description: req.Description,
			PayerID:     req.PayerID,
			Amount:      req.Amount,
			Weights:     req.Weights,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toExpenseResponse(expense, nil))
	default:
		writeError(w, models.Validationf("splitType", "unknown split type: %q", req.SplitType))
	}
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	if !authorizedForTrip(r, tripID) {
		writeForbidden(w)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	expense, warnings, err := h.expenses.UpdateItemized(r.Context(), tripID, chi.URLParam(r, "expenseID"), itemizedInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense, warnings))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenses.List(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(e, nil)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	result, err := h.settlements.Settle(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlementResponse{
		NetBalances:      result.NetBalances,
		ActiveTransfers:  result.ActiveTransfers,
		SettledTransfers: result.SettledTransfers,
	})
}

func (h *Handler) recordTransfer(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	if !authorizedForTrip(r, tripID) {
		writeForbidden(w)
		return
	}

	var req recordTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("body", "invalid JSON: %v", err))
		return
	}

	transfer := models.Transfer{From: req.From, To: req.To, Amount: req.Amount}
	recordedBy := middleware.GetParticipantID(r.Context())
	if err := h.settlements.RecordTransfer(r.Context(), tripID, transfer, recordedBy); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemizedInput(req expenseRequest) service.ItemizedExpenseInput {
	return service.ItemizedExpenseInput{
		Description: req.Description,
		PayerID:     req.PayerID,
		Items:       req.Items,
		Extras:      req.Extras,
		Allocation:  req.Allocation,
	}
}

// authorizedForTrip checks that the token's trip matches the path.
func authorizedForTrip(r *http.Request, tripID string) bool {
	return middleware.GetTripID(r.Context()) == tripID
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeForbidden(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, errorResponse{
		Error: errorBody{Message: "token is not valid for this trip"},
	})
}

// writeError maps domain errors onto HTTP statuses. Validation errors are
// the caller's to fix; integrity errors are ours and deliberately opaque.
func writeError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: errorBody{Field: ve.Field, Message: ve.Message},
		})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: errorBody{Message: err.Error()},
		})
	case errors.Is(err, auth.ErrInvalidPIN):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error: errorBody{Message: err.Error()},
		})
	case errors.Is(err, models.ErrDataIntegrity):
		slog.Error("Data integrity error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Message: "internal inconsistency detected; nothing was saved"},
		})
	default:
		slog.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Message: "internal error"},
		})
	}
}
