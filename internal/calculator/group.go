package calculator

// GroupSettlements is the full settlement picture for one group.
type GroupSettlements struct {
	GroupID              string
	Currency             string
	Balances             []MemberBalance
	SuggestedSettlements []Settlement
	TotalTransactions    int
}

// CalculateGroupSettlements aggregates balances and optimizes settlements for a group.
func CalculateGroupSettlements(groupID, currency string, members []Member, expenses []Expense) GroupSettlements {
	balances := AggregateBalances(members, expenses)
	settlements := OptimizeSettlements(balances, currency)

	return GroupSettlements{
		GroupID:              groupID,
		Currency:             currency,
		Balances:             balances,
		SuggestedSettlements: settlements,
		TotalTransactions:    len(settlements),
	}
}
