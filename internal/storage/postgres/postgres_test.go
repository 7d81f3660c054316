package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// newTestStore connects to TEST_DATABASE_URL. Tests are skipped when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GroupLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name: "Ski trip", Currency: "CHF", CreatedBy: "alice",
		Members: []models.Member{{UserID: "alice", Name: "Alice", Active: true}},
	}
	require.NoError(t, store.CreateGroup(ctx, group))
	t.Cleanup(func() { _ = store.DeleteGroup(ctx, group.ID) })

	require.NoError(t, store.AddMember(ctx, group.ID, &models.Member{UserID: "bob", Name: "Bob"}))
	require.NoError(t, store.DeactivateMember(ctx, group.ID, "bob"))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	assert.False(t, got.IsActiveMember("bob"))

	require.NoError(t, store.AddMember(ctx, group.ID, &models.Member{UserID: "bob", Name: "Robert"}))
	got, err = store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	bob, ok := got.FindMember("bob")
	require.True(t, ok)
	assert.True(t, bob.Active)
	assert.Equal(t, "Robert", bob.Name)

	groups, err := store.ListGroupsForUser(ctx, "bob")
	require.NoError(t, err)
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	assert.Contains(t, ids, group.ID)

	err = store.AddMember(ctx, "missing-group", &models.Member{UserID: "carol"})
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func TestStore_ExpensesAndPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name: "Flat", Currency: "EUR", CreatedBy: "alice",
		Members: []models.Member{
			{UserID: "alice", Active: true},
			{UserID: "bob", Active: true},
		},
	}
	require.NoError(t, store.CreateGroup(ctx, group))
	t.Cleanup(func() { _ = store.DeleteGroup(ctx, group.ID) })

	expense := &models.Expense{
		GroupID: group.ID, Description: "Groceries", Amount: 42.5, CreatedBy: "alice",
		Payers: []models.ExpensePayer{{UserID: "alice", AmountPaid: 42.5}},
		Splits: []models.ExpenseSplit{
			{UserID: "alice", Amount: 21.25},
			{UserID: "bob", Amount: 21.25},
		},
	}
	require.NoError(t, store.CreateExpense(ctx, expense))

	got, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, got.Amount, 1e-9)
	assert.Len(t, got.Payers, 1)
	assert.Len(t, got.Splits, 2)

	list, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Splits, 2)

	require.NoError(t, store.DeleteExpense(ctx, expense.ID))
	_, err = store.GetExpense(ctx, expense.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	payment := &models.Payment{GroupID: group.ID, FromUserID: "bob", ToUserID: "alice", Amount: 21.25, CreatedBy: "bob"}
	require.NoError(t, store.CreatePayment(ctx, payment))

	p, err := store.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "", p.Note)

	payments, err := store.ListPaymentsByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	require.NoError(t, store.DeletePayment(ctx, payment.ID))
	assert.ErrorIs(t, store.DeletePayment(ctx, payment.ID), storage.ErrNotFound)
}
