// Package models defines the core domain models for tripledger.
//
// # Money
//
// Every monetary value is a shopspring decimal. Binary floating point is
// never used for money: allocation must be reproducible to the exact
// currency minor unit, and float64 arithmetic produces device-dependent
// penny errors.
//
// # Expenses
//
// An Expense is a tagged variant:
//   - Legacy: the participant-weight split used by older records
//   - Itemized: a full receipt (line items, extras, allocation rule) plus
//     the engine's computed per-participant amounts and breakdowns
//
// Both kinds coexist in the same store and the settlement engine consumes
// both through the Split interface instead of nil-checking optional fields.
//
// # Validation
//
// Variant types (ItemAssignment, Tax, Tip, Fee, Discount) are constructed
// through validated factory functions so an invalid combination (say, a
// percent value without a base) is unrepresentable. Validation failures are
// *ValidationError values the UI can render per field; broken invariants
// detected after calculation are data-integrity errors and wrap
// ErrDataIntegrity instead.
package models
