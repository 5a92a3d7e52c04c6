package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/models"
)

// RecordSettledTransfer persists a user's decision that a transfer has been
// paid outside the app. Only the decision is stored; the active transfer
// list is always re-derived by the settlement engine.
func (s *SQLiteStore) RecordSettledTransfer(ctx context.Context, tripID string, transfer models.Transfer, recordedBy string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settled_transfers (id, trip_id, from_id, to_id, amount, recorded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), tripID, transfer.From, transfer.To,
		transfer.Amount.String(), recordedBy, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settled transfer: %w", err)
	}
	return nil
}

// ListSettledTransfers retrieves a trip's settled transfers, oldest first.
func (s *SQLiteStore) ListSettledTransfers(ctx context.Context, tripID string) ([]models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id, amount FROM settled_transfers
		 WHERE trip_id = ? ORDER BY created_at, id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settled transfers: %w", err)
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var t models.Transfer
		var amountStr string
		if err := rows.Scan(&t.From, &t.To, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan settled transfer: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settled transfers: %w", err)
	}
	return transfers, nil
}
