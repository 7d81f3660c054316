// Package service implements the settleup Connect services on top of a
// storage.Store. Handlers translate storage failures into connect codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// callerID returns the authenticated user, or Unauthenticated when the
// request did not pass through the auth interceptor.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	return userID, nil
}

// storeError maps a storage error to a connect error.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// groupForMember loads a group and checks that userID is an active member.
func groupForMember(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, invalidArgument("group_id required")
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("Failed to load group", "group_id", groupID, "error", err)
		return nil, storeError(err)
	}
	if !group.IsActiveMember(userID) {
		slog.Warn("Access denied to group", "group_id", groupID, "user_id", userID)
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("not a member of group %s", groupID))
	}
	return group, nil
}

// positiveAmount validates a user-supplied amount and rounds it to cents.
func positiveAmount(field string, amount float64) (float64, error) {
	rounded := calculator.Round2(amount)
	if rounded <= 0 {
		return 0, invalidArgument("%s must be positive, got %.2f", field, amount)
	}
	if rounded > calculator.MaxAmount {
		return 0, invalidArgument("%s cannot exceed %.0f", field, calculator.MaxAmount)
	}
	return rounded, nil
}

// sum adds amounts exactly in decimal.
func sum(amounts ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total
}
