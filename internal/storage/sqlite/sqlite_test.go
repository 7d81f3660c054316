package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestGroup(t *testing.T, store *SQLiteStore) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:      "Roommates",
		Currency:  "USD",
		CreatedBy: "alice",
		Members: []models.Member{
			{UserID: "alice", Name: "Alice", Active: true},
			{UserID: "bob", Email: "bob@example.com", Active: true},
		},
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and timestamps", func(t *testing.T) {
		group := createTestGroup(t, store)

		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		for _, m := range group.Members {
			if m.JoinedAt != group.CreatedAt {
				t.Errorf("Member %s JoinedAt = %d, want %d", m.UserID, m.JoinedAt, group.CreatedAt)
			}
		}
	})

	t.Run("GetGroup retrieves members", func(t *testing.T) {
		original := createTestGroup(t, store)

		retrieved, err := store.GetGroup(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if retrieved.Name != "Roommates" || retrieved.Currency != "USD" || retrieved.CreatedBy != "alice" {
			t.Errorf("Unexpected group fields: %+v", retrieved)
		}
		if len(retrieved.Members) != 2 {
			t.Fatalf("Members count mismatch: got %d, want 2", len(retrieved.Members))
		}
		bob, ok := retrieved.FindMember("bob")
		if !ok {
			t.Fatal("Expected bob to be a member")
		}
		if bob.Email != "bob@example.com" || !bob.Active {
			t.Errorf("Unexpected member: %+v", bob)
		}
	})

	t.Run("GetGroup returns ErrNotFound for nonexistent group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddMember and DeactivateMember", func(t *testing.T) {
		group := createTestGroup(t, store)

		if err := store.AddMember(ctx, group.ID, &models.Member{UserID: "carol", Name: "Carol"}); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if err := store.DeactivateMember(ctx, group.ID, "carol"); err != nil {
			t.Fatalf("DeactivateMember failed: %v", err)
		}

		retrieved, _ := store.GetGroup(ctx, group.ID)
		if retrieved.IsActiveMember("carol") {
			t.Error("Expected carol to be inactive")
		}
		if _, ok := retrieved.FindMember("carol"); !ok {
			t.Error("Expected inactive carol to remain in members")
		}

		// Re-adding reactivates and renames.
		if err := store.AddMember(ctx, group.ID, &models.Member{UserID: "carol", Name: "Caroline"}); err != nil {
			t.Fatalf("AddMember (rejoin) failed: %v", err)
		}
		retrieved, _ = store.GetGroup(ctx, group.ID)
		carol, _ := retrieved.FindMember("carol")
		if !carol.Active || carol.Name != "Caroline" {
			t.Errorf("Expected reactivated Caroline, got %+v", carol)
		}
	})

	t.Run("AddMember to missing group", func(t *testing.T) {
		err := store.AddMember(ctx, "missing", &models.Member{UserID: "x"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeactivateMember of non-member", func(t *testing.T) {
		group := createTestGroup(t, store)
		err := store.DeactivateMember(ctx, group.ID, "nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsForUser only returns active memberships", func(t *testing.T) {
		other := newTestStore(t)
		g1 := createTestGroup(t, other)
		g2 := createTestGroup(t, other)
		if err := other.DeactivateMember(ctx, g2.ID, "bob"); err != nil {
			t.Fatalf("DeactivateMember failed: %v", err)
		}

		groups, err := other.ListGroupsForUser(ctx, "bob")
		if err != nil {
			t.Fatalf("ListGroupsForUser failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != g1.ID {
			t.Errorf("Expected only group %s, got %d groups", g1.ID, len(groups))
		}
		if len(groups[0].Members) != 2 {
			t.Errorf("Expected members to be loaded, got %d", len(groups[0].Members))
		}

		groups, _ = other.ListGroupsForUser(ctx, "alice")
		if len(groups) != 2 {
			t.Errorf("Expected 2 groups for alice, got %d", len(groups))
		}
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		group := createTestGroup(t, store)
		expense := &models.Expense{
			GroupID: group.ID, Description: "Rent", Amount: 10, CreatedBy: "alice",
			Payers: []models.ExpensePayer{{UserID: "alice", AmountPaid: 10}},
			Splits: []models.ExpenseSplit{{UserID: "bob", Amount: 10}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected expense to be gone, got %v", err)
		}
		if err := store.DeleteGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createTestGroup(t, store)

	dinner := &models.Expense{
		GroupID:     group.ID,
		Description: "Dinner",
		Amount:      90,
		CreatedBy:   "alice",
		CreatedAt:   100,
		Payers:      []models.ExpensePayer{{UserID: "alice", AmountPaid: 60}, {UserID: "bob", AmountPaid: 30}},
		Splits:      []models.ExpenseSplit{{UserID: "alice", Amount: 45}, {UserID: "bob", Amount: 45}},
	}
	taxi := &models.Expense{
		GroupID:     group.ID,
		Description: "Taxi",
		Amount:      20,
		CreatedBy:   "bob",
		CreatedAt:   200,
		Payers:      []models.ExpensePayer{{UserID: "bob", AmountPaid: 20}},
		Splits:      []models.ExpenseSplit{{UserID: "alice", Amount: 20}},
	}

	t.Run("CreateExpense and GetExpense", func(t *testing.T) {
		if err := store.CreateExpense(ctx, dinner); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if dinner.ID == "" {
			t.Fatal("Expected expense ID to be generated")
		}

		retrieved, err := store.GetExpense(ctx, dinner.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if retrieved.Description != "Dinner" || retrieved.Amount != 90 {
			t.Errorf("Unexpected expense: %+v", retrieved)
		}
		if len(retrieved.Payers) != 2 || len(retrieved.Splits) != 2 {
			t.Errorf("Expected 2 payers and 2 splits, got %d and %d", len(retrieved.Payers), len(retrieved.Splits))
		}
	})

	t.Run("CreateExpense rejects unknown group", func(t *testing.T) {
		err := store.CreateExpense(ctx, &models.Expense{GroupID: "missing", Description: "x", Amount: 1, CreatedBy: "alice"})
		if err == nil {
			t.Error("Expected foreign key error, got nil")
		}
	})

	t.Run("ListExpensesByGroup returns oldest first with details", func(t *testing.T) {
		if err := store.CreateExpense(ctx, taxi); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if expenses[0].Description != "Dinner" || expenses[1].Description != "Taxi" {
			t.Errorf("Unexpected order: %s, %s", expenses[0].Description, expenses[1].Description)
		}
		if len(expenses[1].Payers) != 1 || expenses[1].Payers[0].UserID != "bob" {
			t.Errorf("Unexpected taxi payers: %+v", expenses[1].Payers)
		}
	})

	t.Run("DeleteExpense hides the expense", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, taxi.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, taxi.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		expenses, _ := store.ListExpensesByGroup(ctx, group.ID)
		if len(expenses) != 1 {
			t.Errorf("Expected 1 live expense, got %d", len(expenses))
		}
		if err := store.DeleteExpense(ctx, taxi.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup for empty group", func(t *testing.T) {
		empty := createTestGroup(t, store)
		expenses, err := store.ListExpensesByGroup(ctx, empty.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected no expenses, got %d", len(expenses))
		}
	})
}

func TestSQLiteStore_Payments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createTestGroup(t, store)

	payment := &models.Payment{
		GroupID:    group.ID,
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     25,
		CreatedBy:  "bob",
		Note:       "Venmo",
	}
	if err := store.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	noNote := &models.Payment{GroupID: group.ID, FromUserID: "alice", ToUserID: "bob", Amount: 5, CreatedBy: "alice", CreatedAt: payment.CreatedAt + 10}
	if err := store.CreatePayment(ctx, noNote); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	retrieved, err := store.GetPayment(ctx, payment.ID)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if retrieved.Note != "Venmo" || retrieved.Amount != 25 {
		t.Errorf("Unexpected payment: %+v", retrieved)
	}

	payments, err := store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListPaymentsByGroup failed: %v", err)
	}
	if len(payments) != 2 || payments[0].ID != noNote.ID {
		t.Fatalf("Expected newest payment first, got %d payments", len(payments))
	}
	if payments[0].Note != "" {
		t.Errorf("Expected empty note, got %q", payments[0].Note)
	}

	if err := store.DeletePayment(ctx, payment.ID); err != nil {
		t.Fatalf("DeletePayment failed: %v", err)
	}
	if _, err := store.GetPayment(ctx, payment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.DeletePayment(ctx, payment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
