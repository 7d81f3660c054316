package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateExpense persists a new expense with its payers and splits in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO expenses (id, group_id, description, amount, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount, expense.CreatedBy, expense.CreatedAt,
	)
	for _, p := range expense.Payers {
		batch.Queue(`INSERT INTO expense_payers (expense_id, user_id, amount_paid) VALUES ($1, $2, $3)`,
			expense.ID, p.UserID, p.AmountPaid)
	}
	for _, sp := range expense.Splits {
		batch.Queue(`INSERT INTO expense_splits (expense_id, user_id, amount) VALUES ($1, $2, $3)`,
			expense.ID, sp.UserID, sp.Amount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves a live expense by ID, including payers and splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e := &models.Expense{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, description, amount, created_by, created_at
		 FROM expenses WHERE id = $1 AND deleted_at IS NULL`,
		expenseID,
	).Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadDetails(ctx, "e.id = $1", expenseID, map[string]*models.Expense{e.ID: e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpensesByGroup returns all live expenses of a group, oldest first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, description, amount, created_by, created_at
		 FROM expenses WHERE group_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		e := &models.Expense{}
		err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.CreatedBy, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}
	if err := s.loadDetails(ctx, "e.group_id = $1 AND e.deleted_at IS NULL", groupID, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense soft-deletes an expense.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE expenses SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// loadDetails fills payers and splits for the expenses matching where.
func (s *Store) loadDetails(ctx context.Context, where string, arg any, byID map[string]*models.Expense) error {
	rows, err := s.pool.Query(ctx,
		`SELECT 'payer', p.expense_id, p.user_id, p.amount_paid
		 FROM expense_payers p JOIN expenses e ON e.id = p.expense_id WHERE `+where+`
		 UNION ALL
		 SELECT 'split', sp.expense_id, sp.user_id, sp.amount
		 FROM expense_splits sp JOIN expenses e ON e.id = sp.expense_id WHERE `+where+`
		 ORDER BY 2, 1, 3`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, expenseID, userID string
		var amount float64
		if err := rows.Scan(&kind, &expenseID, &userID, &amount); err != nil {
			return fmt.Errorf("failed to scan expense detail: %w", err)
		}
		e, ok := byID[expenseID]
		if !ok {
			continue
		}
		if kind == "payer" {
			e.Payers = append(e.Payers, models.ExpensePayer{UserID: userID, AmountPaid: amount})
		} else {
			e.Splits = append(e.Splits, models.ExpenseSplit{UserID: userID, Amount: amount})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense details: %w", err)
	}
	return nil
}
