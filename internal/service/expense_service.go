package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/calculator"
	"github.com/tripledger/tripledger/internal/currency"
	"github.com/tripledger/tripledger/internal/metrics"
	"github.com/tripledger/tripledger/internal/models"
	"github.com/tripledger/tripledger/internal/storage"
)

// ExpenseService runs the allocation pipeline and persists its output.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// ItemizedExpenseInput is a draft itemized expense from the UI.
type ItemizedExpenseInput struct {
	Description string
	PayerID     string
	Items       []models.LineItem
	Extras      models.Extras
	// Allocation is optional; nil uses the trip currency's default rule.
	Allocation *models.AllocationRule
}

// LegacyExpenseInput is a weight-split expense from the UI (or an import of
// an older record).
type LegacyExpenseInput struct {
	Description string
	PayerID     string
	Amount      decimal.Decimal
	Weights     map[string]decimal.Decimal
}

// PreviewItemized runs the allocation pipeline on a draft without
// persisting. The UI calls this on every edit; each invocation is
// independent and side-effect-free.
func (s *ExpenseService) PreviewItemized(ctx context.Context, tripID string, in ItemizedExpenseInput) (*calculator.Result, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	// Previews are keyed by the trip so the RANDOM remainder mode stays
	// stable while the user edits the draft.
	return s.calculate(trip, "draft:"+tripID, in)
}

// CreateItemized runs the allocation pipeline on the input and persists the
// resulting expense. The returned warnings (if any) were already shown by
// preview; they are echoed for the caller's audit log.
func (s *ExpenseService) CreateItemized(ctx context.Context, tripID string, in ItemizedExpenseInput) (*models.Expense, []models.Warning, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	expenseID := uuid.New().String()
	result, err := s.calculate(trip, expenseID, in)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		ID:          expenseID,
		TripID:      trip.ID,
		Description: in.Description,
		Currency:    trip.Currency,
		Amount:      result.GrandTotal,
		PayerID:     in.PayerID,
		Split: &models.ItemizedSplit{
			Items:              in.Items,
			Extras:             in.Extras,
			Allocation:         s.effectiveRule(trip, in),
			ParticipantAmounts: result.Amounts,
			Breakdowns:         result.Breakdowns,
		},
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, nil, fmt.Errorf("failed to persist expense: %w", err)
	}

	slog.Info("Itemized expense created",
		"expense_id", expense.ID,
		"trip_id", trip.ID,
		"amount", expense.Amount,
		"participants", len(result.Amounts),
	)
	return expense, result.Warnings, nil
}

// UpdateItemized re-runs the whole pipeline for an edited expense and
// replaces the stored record. Itemized expenses are immutable except
// through this full re-save. The expense must belong to tripID; an expense
// from another trip is reported as not found rather than revealed.
func (s *ExpenseService) UpdateItemized(ctx context.Context, tripID, expenseID string, in ItemizedExpenseInput) (*models.Expense, []models.Warning, error) {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if existing.TripID != tripID {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.calculate(trip, existing.ID, in)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		ID:          existing.ID,
		TripID:      trip.ID,
		Description: in.Description,
		Currency:    trip.Currency,
		Amount:      result.GrandTotal,
		PayerID:     in.PayerID,
		CreatedAt:   existing.CreatedAt,
		Split: &models.ItemizedSplit{
			Items:              in.Items,
			Extras:             in.Extras,
			Allocation:         s.effectiveRule(trip, in),
			ParticipantAmounts: result.Amounts,
			Breakdowns:         result.Breakdowns,
		},
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, result.Warnings, nil
}

// CreateLegacy persists a weight-split expense.
func (s *ExpenseService) CreateLegacy(ctx context.Context, tripID string, in LegacyExpenseInput) (*models.Expense, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		TripID:      trip.ID,
		Description: in.Description,
		Currency:    trip.Currency,
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		Split:       &models.LegacySplit{Weights: in.Weights},
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to persist expense: %w", err)
	}
	return expense, nil
}

// List retrieves a trip's expenses, oldest first.
func (s *ExpenseService) List(ctx context.Context, tripID string) ([]*models.Expense, error) {
	return s.store.ListExpensesByTrip(ctx, tripID)
}

// calculate runs the allocation engine with metrics around it.
func (s *ExpenseService) calculate(trip *models.Trip, expenseID string, in ItemizedExpenseInput) (*calculator.Result, error) {
	start := time.Now()
	result, err := calculator.Calculate(calculator.Input{
		ExpenseID:    expenseID,
		Items:        in.Items,
		Extras:       in.Extras,
		Rule:         s.effectiveRule(trip, in),
		PayerID:      in.PayerID,
		Participants: trip.Participants,
	})
	metrics.AllocationDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.AllocationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	case errors.Is(err, models.ErrDataIntegrity):
		metrics.AllocationsTotal.WithLabelValues(metrics.OutcomeIntegrityError).Inc()
		slog.Error("Allocation integrity failure", "trip_id", trip.ID, "expense_id", expenseID, "error", err)
	default:
		metrics.AllocationsTotal.WithLabelValues(metrics.OutcomeValidationError).Inc()
	}
	return result, err
}

// effectiveRule fills in the allocation rule, forcing the precision to the
// trip currency's so a client cannot store a mismatched precision.
func (s *ExpenseService) effectiveRule(trip *models.Trip, in ItemizedExpenseInput) models.AllocationRule {
	rule := models.DefaultAllocationRule(trip.Currency)
	if in.Allocation != nil {
		rule = *in.Allocation
		rule.Rounding.Precision = currency.Precision(trip.Currency)
	}
	return rule
}
