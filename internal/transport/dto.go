// Package transport exposes the engine and services over a JSON REST API.
// It is deliberately thin: DTOs decode straight into model types (which
// validate themselves) and handlers delegate to the service layer.
package transport

import (
	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/models"
)

type createTripRequest struct {
	Name         string   `json:"name"`
	Currency     string   `json:"currency"`
	Participants []string `json:"participants"`
	JoinPIN      string   `json:"joinPin,omitempty"`
}

type joinTripRequest struct {
	ParticipantID string `json:"participantId"`
	PIN           string `json:"pin,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// expenseRequest covers both split kinds; SplitType selects which fields
// apply.
type expenseRequest struct {
	SplitType   models.SplitKind `json:"splitType"`
	Description string           `json:"description"`
	PayerID     string           `json:"payerId"`

	// Itemized fields.
	Items      []models.LineItem      `json:"items,omitempty"`
	Extras     models.Extras          `json:"extras,omitempty"`
	Allocation *models.AllocationRule `json:"allocation,omitempty"`

	// Legacy fields.
	Amount  decimal.Decimal            `json:"amount,omitempty"`
	Weights map[string]decimal.Decimal `json:"weights,omitempty"`
}

type expenseResponse struct {
	ID          string           `json:"id"`
	TripID      string           `json:"tripId"`
	Description string           `json:"description"`
	Currency    string           `json:"currency"`
	Amount      decimal.Decimal  `json:"amount"`
	PayerID     string           `json:"payerId"`
	SplitType   models.SplitKind `json:"splitType"`
	CreatedAt   int64            `json:"createdAt"`

	ParticipantAmounts map[string]decimal.Decimal             `json:"participantAmounts,omitempty"`
	Breakdowns         map[string]models.ParticipantBreakdown `json:"participantBreakdown,omitempty"`
	Warnings           []models.Warning                       `json:"warnings,omitempty"`
}

func toExpenseResponse(e *models.Expense, warnings []models.Warning) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		TripID:      e.TripID,
		Description: e.Description,
		Currency:    e.Currency,
		Amount:      e.Amount,
		PayerID:     e.PayerID,
		SplitType:   e.Split.Kind(),
		CreatedAt:   e.CreatedAt,
		Warnings:    warnings,
	}
	if itemized, ok := e.Split.(*models.ItemizedSplit); ok {
		resp.ParticipantAmounts = itemized.ParticipantAmounts
		resp.Breakdowns = itemized.Breakdowns
	}
	return resp
}

type previewResponse struct {
	GrandTotal decimal.Decimal                        `json:"grandTotal"`
	Amounts    map[string]decimal.Decimal             `json:"participantAmounts"`
	Breakdowns map[string]models.ParticipantBreakdown `json:"participantBreakdown"`
	Warnings   []models.Warning                       `json:"warnings,omitempty"`
}

type settlementResponse struct {
	NetBalances      map[string]decimal.Decimal `json:"netBalances"`
	ActiveTransfers  []models.Transfer          `json:"activeTransfers"`
	SettledTransfers []models.Transfer          `json:"settledTransfers"`
}

type recordTransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
