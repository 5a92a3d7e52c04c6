package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tripledger/tripledger/internal/metrics"
	"github.com/tripledger/tripledger/internal/models"
	"github.com/tripledger/tripledger/internal/settlement"
	"github.com/tripledger/tripledger/internal/storage"
)

// SettlementService computes who-pays-whom for a trip and records settled
// transfers.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

// Settle loads a trip's expenses and settled transfers and runs the netting
// engine.
func (s *SettlementService) Settle(ctx context.Context, tripID string) (*settlement.Result, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	settled, err := s.store.ListSettledTransfers(ctx, tripID)
	if err != nil {
		return nil, err
	}

	result, err := settlement.Compute(expenses, settled, trip.Currency)
	if err != nil {
		if errors.Is(err, models.ErrDataIntegrity) {
			metrics.SettlementsTotal.WithLabelValues(metrics.OutcomeIntegrityError).Inc()
			slog.Error("Settlement integrity failure", "trip_id", tripID, "error", err)
		} else {
			metrics.SettlementsTotal.WithLabelValues(metrics.OutcomeValidationError).Inc()
		}
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.SettlementTransfers.Observe(float64(len(result.ActiveTransfers)))
	return result, nil
}

// RecordTransfer marks a transfer as settled outside the app. The active
// transfer list shrinks accordingly on the next Settle call.
func (s *SettlementService) RecordTransfer(ctx context.Context, tripID string, transfer models.Transfer, recordedBy string) error {
	if transfer.From == "" || transfer.To == "" {
		return models.Validationf("transfer", "transfer must name both parties")
	}
	if transfer.From == transfer.To {
		return models.Validationf("transfer", "cannot settle with yourself")
	}
	if !transfer.Amount.IsPositive() {
		return models.Validationf("amount", "settled amount must be positive, got %s", transfer.Amount)
	}

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	for _, id := range []string{transfer.From, transfer.To} {
		if !contains(trip.Participants, id) {
			return models.Validationf("transfer", "%q is not a participant of this trip", id)
		}
	}

	if err := s.store.RecordSettledTransfer(ctx, tripID, transfer, recordedBy); err != nil {
		return fmt.Errorf("failed to record settled transfer: %w", err)
	}
	slog.Info("Transfer settled",
		"trip_id", tripID,
		"from", transfer.From,
		"to", transfer.To,
		"amount", transfer.Amount,
		"recorded_by", recordedBy,
	)
	return nil
}
