package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// ExpenseService implements the Connect ExpenseService: expenses and the
// payments members record when they settle up.
type ExpenseService struct {
	apiconnect.UnimplementedExpenseServiceHandler
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense records an expense. The split is taken from exactly one of
// splits, split_among or shares; with none of them the amount is divided
// equally among all active members.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"description", msg.Description,
		"amount", msg.Amount,
		"payers_count", len(msg.Payers),
	)

	group, err := groupForMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, invalidArgument("description required")
	}
	amount, err := positiveAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}

	payers := msg.Payers
	if len(payers) == 0 {
		payers = []api.Payer{{UserID: userID, AmountPaid: amount}}
	}
	splits, err := resolveSplits(group, amount, msg)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: description,
		Amount:      amount,
		CreatedBy:   userID,
	}
	for _, p := range payers {
		expense.Payers = append(expense.Payers, models.ExpensePayer{UserID: p.UserID, AmountPaid: calculator.Round2(p.AmountPaid)})
	}
	for _, sp := range splits {
		expense.Splits = append(expense.Splits, models.ExpenseSplit{UserID: sp.UserID, Amount: calculator.Round2(sp.Amount)})
	}
	if err := validateExpense(group, expense); err != nil {
		slog.Warn("CreateExpense rejected", "group_id", group.ID, "error", err)
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// resolveSplits turns the request's split description into explicit splits.
func resolveSplits(group *models.Group, amount float64, msg *api.CreateExpenseRequest) ([]calculator.Split, error) {
	modes := 0
	for _, set := range []bool{len(msg.Splits) > 0, len(msg.SplitAmong) > 0, len(msg.Shares) > 0} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return nil, invalidArgument("only one of splits, split_among and shares may be set")
	}

	var (
		splits []calculator.Split
		err    error
	)
	switch {
	case len(msg.Splits) > 0:
		for _, sp := range msg.Splits {
			splits = append(splits, calculator.Split{UserID: sp.UserID, Amount: sp.Amount})
		}
	case len(msg.SplitAmong) > 0:
		splits, err = calculator.SplitEqually(amount, msg.SplitAmong)
	case len(msg.Shares) > 0:
		shares := make([]calculator.Share, len(msg.Shares))
		for i, sh := range msg.Shares {
			shares[i] = calculator.Share{UserID: sh.UserID, Weight: sh.Weight}
		}
		splits, err = calculator.SplitByShares(amount, shares)
	default:
		var active []string
		for _, m := range group.Members {
			if m.Active {
				active = append(active, m.UserID)
			}
		}
		splits, err = calculator.SplitEqually(amount, active)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return splits, nil
}

// validateExpense checks participants and that payers, splits and the total agree.
func validateExpense(group *models.Group, e *models.Expense) error {
	seen := make(map[string]bool)
	paid := make([]float64, 0, len(e.Payers))
	for _, p := range e.Payers {
		if err := checkParticipant(group, "payer", p.UserID, seen); err != nil {
			return err
		}
		paid = append(paid, p.AmountPaid)
	}
	clear(seen)
	for _, sp := range e.Splits {
		if err := checkParticipant(group, "split", sp.UserID, seen); err != nil {
			return err
		}
	}

	if sum(paid...).Sub(sum(e.Amount)).Abs().GreaterThanOrEqual(sum(calculator.Epsilon)) {
		return invalidArgument("payers total %s does not match amount %.2f", sum(paid...).StringFixed(2), e.Amount)
	}
	if err := calculator.CheckConservation(toCalculatorExpense(e)); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

func checkParticipant(group *models.Group, role, userID string, seen map[string]bool) error {
	if userID == "" {
		return invalidArgument("%s user_id required", role)
	}
	if seen[userID] {
		return invalidArgument("duplicate %s %s", role, userID)
	}
	seen[userID] = true
	if !group.IsActiveMember(userID) {
		return invalidArgument("%s %s is not an active member of the group", role, userID)
	}
	return nil
}

// GetExpense retrieves an expense from a group the caller belongs to.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, _, err := s.expenseForMember(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns a group's live expenses, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense soft-deletes an expense. Only whoever recorded it or the
// group creator may delete it.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, group, err := s.expenseForMember(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}
	if expense.CreatedBy != userID && group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the expense author or group creator can delete it"))
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", group.ID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

func (s *ExpenseService) expenseForMember(ctx context.Context, expenseID, userID string) (*models.Expense, *models.Group, error) {
	if expenseID == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		slog.Error("Failed to load expense", "expense_id", expenseID, "error", err)
		return nil, nil, storeError(err)
	}
	group, err := groupForMember(ctx, s.store, expense.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return expense, group, nil
}

// RecordPayment marks money as paid from one member to another. Former
// members may take part so that they can settle what they still owe.
func (s *ExpenseService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("RecordPayment request received",
		"group_id", msg.GroupID,
		"from", msg.FromUserID,
		"to", msg.ToUserID,
		"amount", msg.Amount,
	)

	group, err := groupForMember(ctx, s.store, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	from := msg.FromUserID
	if from == "" {
		from = userID
	}
	if msg.ToUserID == "" {
		return nil, invalidArgument("to_user_id required")
	}
	if from == msg.ToUserID {
		return nil, invalidArgument("cannot record a payment to yourself")
	}
	for _, id := range []string{from, msg.ToUserID} {
		if _, ok := group.FindMember(id); !ok {
			return nil, invalidArgument("%s is not a member of the group", id)
		}
	}
	amount, err := positiveAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		GroupID:    group.ID,
		FromUserID: from,
		ToUserID:   msg.ToUserID,
		Amount:     amount,
		CreatedBy:  userID,
		Note:       strings.TrimSpace(msg.Note),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Payment recorded", "payment_id", payment.ID, "group_id", group.ID)

	return connect.NewResponse(&api.RecordPaymentResponse{Payment: toAPIPayment(payment)}), nil
}

// ListPayments returns a group's recorded payments, newest first.
func (s *ExpenseService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("ListPayments failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Payment, len(payments))
	for i, p := range payments {
		out[i] = toAPIPayment(p)
	}

	return connect.NewResponse(&api.ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a recorded payment. Either party, whoever recorded
// it, or the group creator may delete it.
func (s *ExpenseService) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	if req.Msg.PaymentID == "" {
		return nil, invalidArgument("payment_id required")
	}
	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, storeError(err)
	}
	group, err := groupForMember(ctx, s.store, payment.GroupID, userID)
	if err != nil {
		return nil, err
	}
	switch userID {
	case payment.FromUserID, payment.ToUserID, payment.CreatedBy, group.CreatedBy:
	default:
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("cannot delete payment %s", payment.ID))
	}

	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		slog.Error("DeletePayment failed", "payment_id", payment.ID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Payment deleted", "payment_id", payment.ID, "group_id", group.ID)

	return connect.NewResponse(&api.DeletePaymentResponse{}), nil
}
