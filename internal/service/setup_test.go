package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

type testEnv struct {
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	store    *sqlite.SQLiteStore
	metrics  *metrics.Metrics
	tokens   map[string]string
}

// setupTestServer starts both services behind the auth interceptor, backed by
// a temporary SQLite database, and issues tokens for a few users.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New()
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(m),
	)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, WithMetrics(m)), interceptors)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store), interceptors)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(expensePath, expenseHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env := &testEnv{
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		store:    store,
		metrics:  m,
		tokens:   make(map[string]string),
	}
	for _, user := range []string{"alice", "bob", "carol", "dave"} {
		token, err := jwtManager.Generate(user, user+"@example.com")
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}
		env.tokens[user] = token
	}
	return env
}

// as builds a request authenticated as user.
func as[T any](env *testEnv, user string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+env.tokens[user])
	return req
}

// createGroup creates a group owned by alice with the given extra members.
func createGroup(t *testing.T, env *testEnv, currency string, members ...string) *api.Group {
	t.Helper()

	req := &api.CreateGroupRequest{Name: "Trip", Currency: currency, DisplayName: "Alice"}
	for _, m := range members {
		req.Members = append(req.Members, api.NewMember{UserID: m})
	}
	resp, err := env.groups.CreateGroup(context.Background(), as(env, "alice", req))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func addExpense(t *testing.T, env *testEnv, user string, req *api.CreateExpenseRequest) *api.Expense {
	t.Helper()

	resp, err := env.expenses.CreateExpense(context.Background(), as(env, user, req))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Errorf("code: expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}
