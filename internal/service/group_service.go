package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/format"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store         storage.Store
	metrics       *metrics.Metrics
	defaultLocale string
}

// GroupOption configures a GroupService.
type GroupOption func(*GroupService)

// WithMetrics records settlement computations in m.
func WithMetrics(m *metrics.Metrics) GroupOption {
	return func(s *GroupService) { s.metrics = m }
}

// WithDefaultLocale sets the locale used when a request has no Accept-Language header.
func WithDefaultLocale(locale string) GroupOption {
	return func(s *GroupService) { s.defaultLocale = locale }
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...GroupOption) *GroupService {
	s := &GroupService{store: store, defaultLocale: "en"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup creates a group with the caller as its first active member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"currency", req.Msg.Currency,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}
	currency, err := normalizeCurrency(req.Msg.Currency)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	group := &models.Group{
		Name:      name,
		Currency:  currency,
		CreatedBy: userID,
		Members: []models.Member{{
			UserID: userID,
			Name:   strings.TrimSpace(req.Msg.DisplayName),
			Email:  middleware.GetEmail(ctx),
			Active: true,
		}},
	}
	seen := map[string]bool{userID: true}
	for _, m := range req.Msg.Members {
		id := strings.TrimSpace(m.UserID)
		if id == "" {
			return nil, invalidArgument("member user_id required")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		group.Members = append(group.Members, models.Member{
			UserID: id,
			Name:   strings.TrimSpace(m.Name),
			Email:  strings.TrimSpace(m.Email),
			Active: true,
		})
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID, "created_by", userID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns the groups the caller is an active member of.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}

	slog.Info("ListGroups successful", "user_id", userID, "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a user to the group, or brings back a former member.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "member", req.Msg.Member.UserID)

	if _, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	memberID := strings.TrimSpace(req.Msg.Member.UserID)
	if memberID == "" {
		return nil, invalidArgument("member user_id required")
	}

	member := &models.Member{
		UserID: memberID,
		Name:   strings.TrimSpace(req.Msg.Member.Name),
		Email:  strings.TrimSpace(req.Msg.Member.Email),
	}
	if err := s.store.AddMember(ctx, req.Msg.GroupID, member); err != nil {
		slog.Error("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "member", memberID, "added_by", userID)

	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group)}), nil
}

// RemoveMember deactivates a membership. Members may leave on their own; the
// group creator may remove anyone but themselves. Past expenses keep counting.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member", req.Msg.UserID)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	target := req.Msg.UserID
	if target == "" {
		target = userID
	}
	if !group.IsActiveMember(target) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%s is not an active member", target))
	}
	if target != userID && group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the group creator can remove other members"))
	}
	if target == group.CreatedBy {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("the group creator cannot leave; delete the group instead"))
	}

	if err := s.store.DeactivateMember(ctx, group.ID, target); err != nil {
		slog.Error("RemoveMember failed", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}

	slog.Info("Member removed", "group_id", group.ID, "member", target, "removed_by", userID)

	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// DeleteGroup removes a group with all of its expenses and payments.
// Only the creator may delete a group.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	group, err := groupForMember(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the group creator can delete the group"))
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group deleted", "group_id", group.ID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupSettlements computes balances and suggested payments for a group.
func (s *GroupService) GetGroupSettlements(ctx context.Context, req *connect.Request[api.GetGroupSettlementsRequest]) (*connect.Response[api.GetGroupSettlementsResponse], error) {
	settlements, err := s.Settlements(ctx, req.Msg.GroupID, req.Header().Get("Accept-Language"))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetGroupSettlementsResponse{Settlements: settlements}), nil
}

// Settlements is the transport-independent core of GetGroupSettlements,
// shared with the REST endpoint. Amounts and the summary are formatted for
// the best match of acceptLanguage.
func (s *GroupService) Settlements(ctx context.Context, groupID, acceptLanguage string) (*api.GroupSettlements, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroupSettlements request received", "group_id", groupID)

	group, err := groupForMember(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, err
	}

	var (
		expenses []*models.Expense
		payments []*models.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpensesByGroup(gctx, group.ID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.ListPaymentsByGroup(gctx, group.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("GetGroupSettlements failed - could not load ledger", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	result := computeSettlements(group, expenses, payments)

	if s.metrics != nil {
		s.metrics.ObserveSettlement(result.TotalTransactions)
	}
	if acceptLanguage == "" {
		acceptLanguage = s.defaultLocale
	}
	f := format.ForAcceptLanguage(acceptLanguage)

	slog.Info("GetGroupSettlements successful",
		"group_id", group.ID,
		"expenses_count", len(expenses),
		"payments_count", len(payments),
		"members_count", len(result.Balances),
		"transactions", result.TotalTransactions,
	)

	return toAPISettlements(result, f), nil
}

// computeSettlements runs the calculator over a group's ledger. Every member,
// current or former, takes part so balances stay conserved; former members
// who are fully settled are then left out of the balance list.
func computeSettlements(group *models.Group, expenses []*models.Expense, payments []*models.Payment) calculator.GroupSettlements {
	members := make([]calculator.Member, len(group.Members))
	for i, m := range group.Members {
		members[i] = calculator.Member{UserID: m.UserID, Name: m.DisplayName()}
	}

	ledger := make([]calculator.Expense, 0, len(expenses)+len(payments))
	for _, e := range expenses {
		ledger = append(ledger, toCalculatorExpense(e))
	}
	for _, p := range payments {
		ledger = append(ledger, paymentAsExpense(p))
	}

	result := calculator.CalculateGroupSettlements(group.ID, group.Currency, members, ledger)

	visible := result.Balances[:0]
	for _, b := range result.Balances {
		if !group.IsActiveMember(b.UserID) && calculator.IsZero(b.TotalPaid) && calculator.IsZero(b.TotalOwed) {
			continue
		}
		visible = append(visible, b)
	}
	result.Balances = visible
	return result
}

// normalizeCurrency upper-cases and validates a three-letter currency code.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency must be a 3-letter code, got %q", code)
		}
	}
	return code, nil
}
