// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

// ErrNotFound is wrapped by store errors for missing groups, members,
// expenses and payments.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group, expense and payment storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	GroupStore
	ExpenseStore
	PaymentStore

	// Close releases any resources held by the store.
	Close() error
}

// GroupStore persists groups and their memberships.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	// ID and CreatedAt are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with all of its members, active or not.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is an active member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddMember adds a member, or reactivates and renames a former one.
	AddMember(ctx context.Context, groupID string, member *models.Member) error

	// DeactivateMember marks a membership inactive.
	DeactivateMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes a group and everything that belongs to it.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses with their payers and splits.
type ExpenseStore interface {
	// CreateExpense persists an expense atomically with its payers and splits.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves a live expense by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the group's live expenses, oldest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// DeleteExpense soft-deletes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error
}

// PaymentStore persists recorded payments between members.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)
	DeletePayment(ctx context.Context, paymentID string) error
}
