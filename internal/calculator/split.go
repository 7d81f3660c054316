package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount the splitting helpers accept.
const MaxAmount = 1e12

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrAmountTooLarge = fmt.Errorf("amount cannot exceed %.0f", MaxAmount)
)

// Share assigns a relative weight to one participant of a split.
type Share struct {
	UserID string
	Weight int64
}

// SplitEqually divides amount among userIDs in whole cents.
// Leftover cents go to the first participants, one cent each, so the splits
// always add up to the rounded amount.
func SplitEqually(amount float64, userIDs []string) ([]Split, error) {
	shares := make([]Share, len(userIDs))
	for i, id := range userIDs {
		shares[i] = Share{UserID: id, Weight: 1}
	}
	return SplitByShares(amount, shares)
}

// SplitByShares divides amount proportionally to each participant's weight.
// Based on the algorithm: person_cents = floor(total_cents × weight / total_weight),
// with the remaining cents handed out by largest remainder (ties keep input order).
// The arithmetic is done in decimal, so any int64 weights are safe.
func SplitByShares(amount float64, shares []Share) ([]Split, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	if math.IsNaN(amount) {
		return nil, fmt.Errorf("amount is not a number")
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	if amount > MaxAmount {
		return nil, ErrAmountTooLarge
	}

	totalWeight := decimal.Zero
	for _, s := range shares {
		if s.Weight < 0 {
			return nil, fmt.Errorf("share for %s has negative weight %d", s.UserID, s.Weight)
		}
		totalWeight = totalWeight.Add(decimal.NewFromInt(s.Weight))
	}
	if totalWeight.IsZero() {
		return nil, fmt.Errorf("total share weight cannot be zero")
	}

	cents := toDecimal(amount).Round(2).Shift(2)

	type portion struct {
		cents     decimal.Decimal
		remainder decimal.Decimal
	}
	portions := make([]portion, len(shares))
	allocated := decimal.Zero
	for i, s := range shares {
		q, r := cents.Mul(decimal.NewFromInt(s.Weight)).QuoRem(totalWeight, 0)
		portions[i] = portion{cents: q, remainder: r}
		allocated = allocated.Add(q)
	}

	byRemainder := make([]int, len(portions))
	for i := range byRemainder {
		byRemainder[i] = i
	}
	sort.SliceStable(byRemainder, func(a, b int) bool {
		return portions[byRemainder[a]].remainder.GreaterThan(portions[byRemainder[b]].remainder)
	})
	// Each remainder is below totalWeight, so fewer than len(shares) cents are left.
	leftover := cents.Sub(allocated).IntPart()
	one := decimal.NewFromInt(1)
	for k := int64(0); k < leftover; k++ {
		p := &portions[byRemainder[k]]
		p.cents = p.cents.Add(one)
	}

	splits := make([]Split, len(shares))
	for i, s := range shares {
		splits[i] = Split{
			UserID: s.UserID,
			Amount: portions[i].cents.Shift(-2).InexactFloat64(),
		}
	}
	return splits, nil
}
