package api

type Expense struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Payers      []Payer `json:"payers"`
	Splits      []Split `json:"splits"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   int64   `json:"created_at"`
}

type Payer struct {
	UserID     string  `json:"user_id"`
	AmountPaid float64 `json:"amount_paid"`
}

type Split struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Share is a weighted part of an expense; weights are relative to each other.
type Share struct {
	UserID string `json:"user_id"`
	Weight int64  `json:"weight"`
}

// CreateExpenseRequest describes a new expense. Exactly one of Splits,
// SplitAmong or Shares says how it is divided. When Payers is empty the
// caller paid the full amount.
type CreateExpenseRequest struct {
	GroupID     string   `json:"group_id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Payers      []Payer  `json:"payers,omitempty"`
	Splits      []Split  `json:"splits,omitempty"`
	SplitAmong  []string `json:"split_among,omitempty"`
	Shares      []Share  `json:"shares,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type Payment struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"group_id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note,omitempty"`
	CreatedBy  string  `json:"created_by"`
	CreatedAt  int64   `json:"created_at"`
}

// RecordPaymentRequest marks money as paid between two members.
// FromUserID defaults to the caller.
type RecordPaymentRequest struct {
	GroupID    string  `json:"group_id"`
	FromUserID string  `json:"from_user_id,omitempty"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	GroupID string `json:"group_id"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type DeletePaymentResponse struct{}
