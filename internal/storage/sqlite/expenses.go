package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/models"
	"github.com/tripledger/tripledger/internal/storage"
)

// marshalSplit serializes a split variant to its kind tag and JSON payload.
func marshalSplit(split models.Split) (models.SplitKind, []byte, error) {
	if split == nil {
		return "", nil, fmt.Errorf("expense has no split")
	}
	payload, err := json.Marshal(split)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal split: %w", err)
	}
	return split.Kind(), payload, nil
}

// unmarshalSplit deserializes a split payload into the tagged variant.
func unmarshalSplit(kind models.SplitKind, payload []byte) (models.Split, error) {
	switch kind {
	case models.SplitLegacy:
		var s models.LegacySplit
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal legacy split: %w", err)
		}
		return &s, nil
	case models.SplitItemized:
		var s models.ItemizedSplit
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal itemized split: %w", err)
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("unknown split kind: %q", kind)
	}
}

// CreateExpense persists a new expense (legacy or itemized).
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	kind, payload, err := marshalSplit(expense.Split)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, description, currency, amount, payer_id, split_kind, split_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Description, expense.Currency,
		expense.Amount.String(), expense.PayerID, string(kind), string(payload), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// UpdateExpense replaces an existing expense in full.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	kind, payload, err := marshalSplit(expense.Split)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, currency = ?, amount = ?, payer_id = ?, split_kind = ?, split_json = ?
		 WHERE id = ?`,
		expense.Description, expense.Currency, expense.Amount.String(),
		expense.PayerID, string(kind), string(payload), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	return nil
}

// GetExpense retrieves an expense by id.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, description, currency, amount, payer_id, split_kind, split_json, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	)
	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByTrip retrieves all of a trip's expenses, oldest first.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, description, currency, amount, payer_id, split_kind, split_json, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY created_at, id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w", err)
	}
	return expenses, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var amountStr, kindStr, payload string
	err := row.Scan(&expense.ID, &expense.TripID, &expense.Description, &expense.Currency,
		&amountStr, &expense.PayerID, &kindStr, &payload, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	expense.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
	}
	expense.Split, err = unmarshalSplit(models.SplitKind(kindStr), []byte(payload))
	if err != nil {
		return nil, err
	}
	return expense, nil
}
