package models

// Expense represents money paid by one or more members and allocated across
// members of a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a human-readable label (e.g., "Groceries").
	Description string

	// Amount is the expense total. Payers and splits each add up to it.
	Amount float64

	// Payers lists who paid and how much.
	Payers []ExpensePayer

	// Splits lists who the expense is allocated to and how much.
	Splits []ExpenseSplit

	// CreatedBy is the user ID who recorded this expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// DeletedAt is the Unix timestamp of a soft delete, zero if live.
	DeletedAt int64
}

// ExpensePayer records one payer's contribution.
type ExpensePayer struct {
	UserID     string
	AmountPaid float64
}

// ExpenseSplit records one member's allocated share.
type ExpenseSplit struct {
	UserID string
	Amount float64
}
