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

// CreateGroup persists a new group and its initial members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, currency, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		group.ID, group.Name, group.Currency, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range group.Members {
		m := &group.Members[i]
		if m.JoinedAt == 0 {
			m.JoinedAt = group.CreatedAt
		}
		batch.Queue(
			`INSERT INTO group_members (group_id, user_id, name, email, active, joined_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			group.ID, m.UserID, m.Name, m.Email, m.Active, m.JoinedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert group members: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including all of its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, currency, created_by, created_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Members, err = s.loadMembers(ctx, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns the groups userID is an active member of, oldest first.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.currency, g.created_by, g.created_at
		 FROM groups g JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1 AND m.active
		 ORDER BY g.created_at, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Group, error) {
		g := &models.Group{}
		err := row.Scan(&g.ID, &g.Name, &g.Currency, &g.CreatedBy, &g.CreatedAt)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan groups: %w", err)
	}

	for _, g := range groups {
		if g.Members, err = s.loadMembers(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// AddMember adds a member to a group, reactivating a former member.
func (s *Store) AddMember(ctx context.Context, groupID string, member *models.Member) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}
	member.Active = true

	ct, err := s.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, name, email, active, joined_at)
		 SELECT id, $2, $3, $4, TRUE, $5 FROM groups WHERE id = $1
		 ON CONFLICT (group_id, user_id) DO UPDATE SET
		     active = TRUE, name = EXCLUDED.name, email = EXCLUDED.email`,
		groupID, member.UserID, member.Name, member.Email, member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// DeactivateMember marks a member as having left the group.
func (s *Store) DeactivateMember(ctx context.Context, groupID, userID string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE group_members SET active = FALSE WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("member %s of group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a group. Members, expenses and payments cascade.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) loadMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, name, email, active, joined_at
		 FROM group_members WHERE group_id = $1
		 ORDER BY joined_at, user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Member, error) {
		var m models.Member
		err := row.Scan(&m.UserID, &m.Name, &m.Email, &m.Active, &m.JoinedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}
