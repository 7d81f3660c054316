package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Member identifies one participant of a group.
type Member struct {
	UserID string
	Name   string
}

// Payer records how much one user paid towards an expense.
type Payer struct {
	UserID     string
	AmountPaid float64
}

// Split records how much of an expense is allocated to one user.
type Split struct {
	UserID string
	Amount float64
}

// Expense is the minimal view of an expense needed for balance calculations.
type Expense struct {
	Payers []Payer
	Splits []Split
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID     string
	Name       string
	TotalPaid  float64 // Total amount paid across all expenses
	TotalOwed  float64 // Total amount allocated to this member
	NetBalance float64 // Positive = owed money, Negative = owes money
}

type runningBalance struct {
	paid decimal.Decimal
	owed decimal.Decimal
}

// AggregateBalances folds expenses into one balance per member.
//
// The result has one entry per member, in the order members were given.
// Payer and split entries that reference users outside members are ignored.
// Totals are accumulated in fixed-point decimal so the result does not depend
// on the order of expenses.
//
// The function does not check that an expense's payers and splits add up to
// the same amount; see CheckConservation.
func AggregateBalances(members []Member, expenses []Expense) []MemberBalance {
	order := make([]Member, 0, len(members))
	running := make(map[string]*runningBalance, len(members))

	for _, m := range members {
		if _, dup := running[m.UserID]; dup {
			continue
		}
		running[m.UserID] = &runningBalance{}
		order = append(order, m)
	}

	for _, expense := range expenses {
		for _, p := range expense.Payers {
			if rb, ok := running[p.UserID]; ok {
				rb.paid = rb.paid.Add(toDecimal(p.AmountPaid))
			}
		}
		for _, s := range expense.Splits {
			if rb, ok := running[s.UserID]; ok {
				rb.owed = rb.owed.Add(toDecimal(s.Amount))
			}
		}
	}

	balances := make([]MemberBalance, 0, len(order))
	for _, m := range order {
		rb := running[m.UserID]
		balances = append(balances, MemberBalance{
			UserID:     m.UserID,
			Name:       m.Name,
			TotalPaid:  rb.paid.InexactFloat64(),
			TotalOwed:  rb.owed.InexactFloat64(),
			NetBalance: rb.paid.Sub(rb.owed).InexactFloat64(),
		})
	}
	return balances
}

// CheckConservation verifies that an expense's payer total matches its split
// total within Epsilon. Expense creation calls it before anything is stored.
func CheckConservation(expense Expense) error {
	paid := decimal.Zero
	for _, p := range expense.Payers {
		if p.AmountPaid < 0 {
			return fmt.Errorf("payer %s has negative amount %.2f", p.UserID, p.AmountPaid)
		}
		paid = paid.Add(toDecimal(p.AmountPaid))
	}
	owed := decimal.Zero
	for _, s := range expense.Splits {
		if s.Amount < 0 {
			return fmt.Errorf("split for %s has negative amount %.2f", s.UserID, s.Amount)
		}
		owed = owed.Add(toDecimal(s.Amount))
	}
	if paid.Sub(owed).Abs().GreaterThanOrEqual(epsilon) {
		return fmt.Errorf("payers total %s does not match splits total %s",
			paid.StringFixed(2), owed.StringFixed(2))
	}
	return nil
}
