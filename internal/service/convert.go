package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/format"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{
			UserID:   m.UserID,
			Name:     m.Name,
			Email:    m.Email,
			Active:   m.Active,
			JoinedAt: m.JoinedAt,
		}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		Members:   members,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	payers := make([]api.Payer, len(e.Payers))
	for i, p := range e.Payers {
		payers[i] = api.Payer{UserID: p.UserID, AmountPaid: p.AmountPaid}
	}
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{UserID: s.UserID, Amount: s.Amount}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		Payers:      payers,
		Splits:      splits,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func toAPIPayment(p *models.Payment) *api.Payment {
	return &api.Payment{
		ID:         p.ID,
		GroupID:    p.GroupID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount,
		Note:       p.Note,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
	}
}

// toCalculatorExpense drops everything the balance math does not need.
func toCalculatorExpense(e *models.Expense) calculator.Expense {
	payers := make([]calculator.Payer, len(e.Payers))
	for i, p := range e.Payers {
		payers[i] = calculator.Payer{UserID: p.UserID, AmountPaid: p.AmountPaid}
	}
	splits := make([]calculator.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = calculator.Split{UserID: s.UserID, Amount: s.Amount}
	}
	return calculator.Expense{Payers: payers, Splits: splits}
}

// paymentAsExpense treats a recorded payment as an expense paid by the sender
// and owed entirely by the recipient, which moves both balances towards zero.
func paymentAsExpense(p *models.Payment) calculator.Expense {
	return calculator.Expense{
		Payers: []calculator.Payer{{UserID: p.FromUserID, AmountPaid: p.Amount}},
		Splits: []calculator.Split{{UserID: p.ToUserID, Amount: p.Amount}},
	}
}

func toAPISettlements(gs calculator.GroupSettlements, f *format.Formatter) *api.GroupSettlements {
	balances := make([]api.Balance, len(gs.Balances))
	for i, b := range gs.Balances {
		balances[i] = api.Balance{
			UserID:              b.UserID,
			Name:                b.Name,
			TotalPaid:           b.TotalPaid,
			TotalOwed:           b.TotalOwed,
			NetBalance:          b.NetBalance,
			FormattedNetBalance: f.FormatAmount(b.NetBalance, gs.Currency),
		}
	}
	settlements := make([]api.Settlement, len(gs.SuggestedSettlements))
	for i, s := range gs.SuggestedSettlements {
		settlements[i] = api.Settlement{
			FromUserID:      s.FromUserID,
			FromUserName:    s.FromUserName,
			ToUserID:        s.ToUserID,
			ToUserName:      s.ToUserName,
			Amount:          s.Amount,
			Currency:        s.Currency,
			FormattedAmount: f.FormatAmount(s.Amount, s.Currency),
		}
	}
	return &api.GroupSettlements{
		GroupID:              gs.GroupID,
		Currency:             gs.Currency,
		Locale:               f.Language().String(),
		Balances:             balances,
		SuggestedSettlements: settlements,
		TotalTransactions:    gs.TotalTransactions,
		Summary:              f.Summarize(gs.SuggestedSettlements),
	}
}
