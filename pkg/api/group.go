package api

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
	Members   []Member `json:"members"`
}

type Member struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Active   bool   `json:"active"`
	JoinedAt int64  `json:"joined_at"`
}

// NewMember identifies a user being added to a group.
type NewMember struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	// DisplayName is the creator's name within the group.
	DisplayName string      `json:"display_name,omitempty"`
	Members     []NewMember `json:"members,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID string    `json:"group_id"`
	Member  NewMember `json:"member"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type RemoveMemberResponse struct{}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type GetGroupSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupSettlementsResponse struct {
	Settlements *GroupSettlements `json:"settlements"`
}

// GroupSettlements is the computed view of who owes whom in a group.
// Formatted fields are rendered for Locale.
type GroupSettlements struct {
	GroupID              string       `json:"group_id"`
	Currency             string       `json:"currency"`
	Locale               string       `json:"locale"`
	Balances             []Balance    `json:"balances"`
	SuggestedSettlements []Settlement `json:"suggested_settlements"`
	TotalTransactions    int          `json:"total_transactions"`
	Summary              string       `json:"summary"`
}

type Balance struct {
	UserID              string  `json:"user_id"`
	Name                string  `json:"name"`
	TotalPaid           float64 `json:"total_paid"`
	TotalOwed           float64 `json:"total_owed"`
	NetBalance          float64 `json:"net_balance"`
	FormattedNetBalance string  `json:"formatted_net_balance"`
}

type Settlement struct {
	FromUserID      string  `json:"from_user_id"`
	FromUserName    string  `json:"from_user_name"`
	ToUserID        string  `json:"to_user_id"`
	ToUserName      string  `json:"to_user_name"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	FormattedAmount string  `json:"formatted_amount"`
}
