package models

// Group represents a set of members splitting expenses in one currency.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Currency is the ISO 4217 code all of the group's amounts are in.
	Currency string

	// CreatedBy is the user ID of the member who created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Members lists active and former members of the group.
	Members []Member
}

// Member is a user's membership in a group.
type Member struct {
	// UserID is the opaque identifier of the user, unique within the group.
	UserID string

	// Name is the display name, may be empty.
	Name string

	// Email is the member's email address, may be empty.
	Email string

	// Active is false once the member has left the group.
	Active bool

	// JoinedAt is the Unix timestamp when the member joined.
	JoinedAt int64
}

// DisplayName returns the member's name, falling back to the email and then
// to the user ID.
func (m Member) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	if m.Email != "" {
		return m.Email
	}
	return m.UserID
}

// IsActiveMember reports whether userID is an active member of the group.
func (g *Group) IsActiveMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Active
		}
	}
	return false
}

// FindMember returns the membership for userID, if any.
func (g *Group) FindMember(userID string) (Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
