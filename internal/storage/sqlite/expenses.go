package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateExpense persists a new expense with its payers and splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, p := range expense.Payers {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_payers (expense_id, user_id, amount_paid) VALUES (?, ?, ?)",
			expense.ID, p.UserID, p.AmountPaid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense payer: %w", err)
		}
	}

	for _, sp := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, sp.UserID, sp.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves a live expense by ID, including payers and splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, created_by, created_at
		 FROM expenses WHERE id = ? AND deleted_at IS NULL`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount, &expense.CreatedBy, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	byID := map[string]*models.Expense{expense.ID: expense}
	if err := s.loadPayers(ctx, "e.id = ?", expenseID, byID); err != nil {
		return nil, err
	}
	if err := s.loadSplits(ctx, "e.id = ?", expenseID, byID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup returns all live expenses of a group, oldest first.
// Payers and splits are loaded with one query each rather than per expense.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, created_by, created_at
		 FROM expenses WHERE group_id = ? AND deleted_at IS NULL
		 ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	where := "e.group_id = ? AND e.deleted_at IS NULL"
	if err := s.loadPayers(ctx, where, groupID, byID); err != nil {
		return nil, err
	}
	if err := s.loadSplits(ctx, where, groupID, byID); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense soft-deletes an expense so it no longer counts towards balances.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) loadPayers(ctx context.Context, where string, arg any, byID map[string]*models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.expense_id, p.user_id, p.amount_paid
		 FROM expense_payers p JOIN expenses e ON e.id = p.expense_id
		 WHERE `+where+` ORDER BY p.expense_id, p.user_id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense payers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var p models.ExpensePayer
		if err := rows.Scan(&expenseID, &p.UserID, &p.AmountPaid); err != nil {
			return fmt.Errorf("failed to scan expense payer: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Payers = append(e.Payers, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense payers: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadSplits(ctx context.Context, where string, arg any, byID map[string]*models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.amount
		 FROM expense_splits sp JOIN expenses e ON e.id = sp.expense_id
		 WHERE `+where+` ORDER BY sp.expense_id, sp.user_id`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var sp models.ExpenseSplit
		if err := rows.Scan(&expenseID, &sp.UserID, &sp.Amount); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, sp)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return nil
}
