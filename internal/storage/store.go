// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/tripledger/tripledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for trip and expense storage. This abstraction
// allows swapping storage backends (SQLite, PostgreSQL, etc.) without
// changing the service layer.
type Store interface {
	// CreateTrip persists a new trip. The trip's ID is populated if empty.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by id. Returns ErrNotFound if absent.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// CreateExpense persists a new expense (legacy or itemized). The
	// expense's ID is populated if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by id. Returns ErrNotFound if absent.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an expense in full. Edits re-run the whole
	// allocation pipeline, so partial updates are never needed.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByTrip retrieves all of a trip's expenses, oldest first.
	ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error)

	// RecordSettledTransfer persists a user's decision that a transfer has
	// been paid outside the app.
	RecordSettledTransfer(ctx context.Context, tripID string, transfer models.Transfer, recordedBy string) error

	// ListSettledTransfers retrieves a trip's settled transfers, oldest
	// first.
	ListSettledTransfers(ctx context.Context, tripID string) ([]models.Transfer, error)

	// Close releases any resources held by the store.
	Close() error
}
