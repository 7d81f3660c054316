package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Settlement is a suggested payment from a debtor to a creditor.
type Settlement struct {
	FromUserID   string
	FromUserName string
	ToUserID     string
	ToUserName   string
	Amount       float64 // Always > 0, rounded to cents
	Currency     string
}

type party struct {
	userID    string
	name      string
	remaining decimal.Decimal
}

// OptimizeSettlements computes the payments that settle all balances.
//
// Algorithm:
//   - Creditors have NetBalance > Epsilon, debtors NetBalance < -Epsilon;
//     everyone else is already settled.
//   - Both lists are sorted by amount, largest first.
//   - Greedy matching: the current debtor pays the current creditor the smaller
//     of their two remainders, and whichever side drops below Epsilon moves on.
//
// The sweep emits at most creditors+debtors-1 payments. It is a heuristic and
// does not always find the minimum number of transactions. Payments are
// returned in the order they were produced.
func OptimizeSettlements(balances []MemberBalance, currency string) []Settlement {
	var creditors, debtors []*party
	for _, b := range balances {
		net := toDecimal(b.NetBalance)
		switch {
		case net.GreaterThan(epsilon):
			creditors = append(creditors, &party{userID: b.UserID, name: b.Name, remaining: net})
		case net.LessThan(epsilon.Neg()):
			debtors = append(debtors, &party{userID: b.UserID, name: b.Name, remaining: net.Neg()})
		}
	}

	sortDescending(creditors)
	sortDescending(debtors)

	settlements := make([]Settlement, 0)
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor, debtor := creditors[i], debtors[j]

		transfer := decimal.Min(creditor.remaining, debtor.remaining)
		if transfer.GreaterThan(epsilon) {
			settlements = append(settlements, Settlement{
				FromUserID:   debtor.userID,
				FromUserName: debtor.name,
				ToUserID:     creditor.userID,
				ToUserName:   creditor.name,
				Amount:       transfer.Round(2).InexactFloat64(),
				Currency:     currency,
			})
		}

		creditor.remaining = creditor.remaining.Sub(transfer)
		debtor.remaining = debtor.remaining.Sub(transfer)

		if creditor.remaining.LessThan(epsilon) {
			i++
		}
		if debtor.remaining.LessThan(epsilon) {
			j++
		}
	}

	return settlements
}

func sortDescending(parties []*party) {
	sort.SliceStable(parties, func(a, b int) bool {
		return parties[a].remaining.GreaterThan(parties[b].remaining)
	})
}
