package calculator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomGroup builds a group whose expenses conserve money. Amounts are
// multiples of a quarter, and a few entries reference users outside the group.
func randomGroup(rng *rand.Rand) ([]Member, []Expense) {
	n := 1 + rng.IntN(8)
	members := make([]Member, n)
	for i := range members {
		members[i] = Member{UserID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("User %d", i)}
	}

	pick := func() string {
		if rng.IntN(20) == 0 {
			return "stranger"
		}
		return members[rng.IntN(n)].UserID
	}

	expenses := make([]Expense, rng.IntN(25))
	for i := range expenses {
		var e Expense
		quarters := 1 + rng.IntN(2000)

		for remaining := quarters; remaining > 0; {
			part := 1 + rng.IntN(remaining)
			e.Payers = append(e.Payers, Payer{UserID: pick(), AmountPaid: float64(part) / 4})
			remaining -= part
		}
		for remaining := quarters; remaining > 0; {
			part := 1 + rng.IntN(remaining)
			e.Splits = append(e.Splits, Split{UserID: pick(), Amount: float64(part) / 4})
			remaining -= part
		}
		expenses[i] = e
	}
	return members, expenses
}

// stripStrangers removes entries for users outside the group so the
// remaining expenses conserve money among members.
func stripStrangers(expenses []Expense) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		var paid, owed float64
		var kept Expense
		for _, p := range e.Payers {
			if p.UserID != "stranger" {
				kept.Payers = append(kept.Payers, p)
				paid += p.AmountPaid
			}
		}
		for _, s := range e.Splits {
			if s.UserID != "stranger" {
				kept.Splits = append(kept.Splits, s)
				owed += s.Amount
			}
		}
		if paid == owed {
			out = append(out, kept)
		}
	}
	return out
}

func TestSettlementProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))

	for iter := 0; iter < 500; iter++ {
		members, raw := randomGroup(rng)
		expenses := stripStrangers(raw)

		t.Run(fmt.Sprintf("case %d", iter), func(t *testing.T) {
			checkSettlementProperties(t, members, expenses, Epsilon)
		})
	}
}

func TestSettlementProperties_CentAmounts(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))

	for iter := 0; iter < 500; iter++ {
		members, expenses := randomCentGroup(t, rng)

		// A one-cent leftover is never emitted, so each member may be off by
		// up to one cent per participant.
		tolerance := Epsilon*float64(len(members)) + 1e-9

		t.Run(fmt.Sprintf("case %d", iter), func(t *testing.T) {
			checkSettlementProperties(t, members, expenses, tolerance)
		})
	}
}

// randomCentGroup builds a group from arbitrary cent amounts, such as 0.07 or
// 13.33, that are not exact in binary. Splits come from SplitByShares, so every
// expense conserves money to the cent.
func randomCentGroup(t *testing.T, rng *rand.Rand) ([]Member, []Expense) {
	t.Helper()

	n := 2 + rng.IntN(7)
	members := make([]Member, n)
	for i := range members {
		members[i] = Member{UserID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("User %d", i)}
	}

	expenses := make([]Expense, 1+rng.IntN(25))
	for i := range expenses {
		amount := float64(1+rng.IntN(100000)) / 100

		shares := make([]Share, 0, n)
		for _, perm := range rng.Perm(n)[:1+rng.IntN(n)] {
			shares = append(shares, Share{UserID: members[perm].UserID, Weight: int64(1 + rng.IntN(5))})
		}
		splits, err := SplitByShares(amount, shares)
		require.NoError(t, err)

		expenses[i] = Expense{
			Payers: []Payer{{UserID: members[rng.IntN(n)].UserID, AmountPaid: amount}},
			Splits: splits,
		}
		require.NoError(t, CheckConservation(expenses[i]))
	}
	return members, expenses
}

// checkSettlementProperties asserts conservation, the transaction bound,
// positivity and reconstruction within tolerance.
func checkSettlementProperties(t *testing.T, members []Member, expenses []Expense, tolerance float64) {
	t.Helper()

	balances := AggregateBalances(members, expenses)
	require.Len(t, balances, len(members))

	// Idempotence.
	require.Equal(t, balances, AggregateBalances(members, expenses))

	// Conservation.
	var sum float64
	creditors, debtors := 0, 0
	for _, b := range balances {
		sum += b.NetBalance
		if b.NetBalance > Epsilon {
			creditors++
		} else if b.NetBalance < -Epsilon {
			debtors++
		}
	}
	assert.InDelta(t, 0, sum, Epsilon)

	settlements := OptimizeSettlements(balances, "USD")

	// Transaction bound.
	bound := creditors + debtors - 1
	if bound < 0 {
		bound = 0
	}
	assert.LessOrEqual(t, len(settlements), bound)

	// Positivity and cent rounding.
	for _, s := range settlements {
		assert.Greater(t, s.Amount, 0.0)
		assert.InDelta(t, s.Amount, math.Round(s.Amount*100)/100, 1e-9)
		assert.NotEqual(t, s.FromUserID, s.ToUserID)
	}

	// Reconstruction.
	received := map[string]float64{}
	for _, s := range settlements {
		received[s.ToUserID] += s.Amount
		received[s.FromUserID] -= s.Amount
	}
	for _, b := range balances {
		assert.InDelta(t, b.NetBalance, received[b.UserID], tolerance, "member %s", b.UserID)
	}
}

func TestSettlementProperties_SettledGroupsProduceNothing(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for iter := 0; iter < 100; iter++ {
		n := 1 + rng.IntN(10)
		balances := make([]MemberBalance, n)
		for i := range balances {
			balances[i] = MemberBalance{
				UserID:     fmt.Sprintf("u%d", i),
				NetBalance: (rng.Float64()*2 - 1) * Epsilon * 0.99,
			}
		}
		assert.Empty(t, OptimizeSettlements(balances, "USD"))
	}
}

func TestAggregateBalances_UnknownUsersNeverAppear(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for iter := 0; iter < 100; iter++ {
		members, expenses := randomGroup(rng)
		for _, b := range AggregateBalances(members, expenses) {
			assert.NotEqual(t, "stranger", b.UserID)
		}
	}
}
