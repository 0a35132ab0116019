package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// GroupRepo persists group definitions and memberships.
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo creates a GroupRepo over the given pool.
func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// EnsureGroup creates the group if it does not already exist.
func (r *GroupRepo) EnsureGroup(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	return mapDBError(err)
}

// AddMember adds a user or nested group to a group.
func (r *GroupRepo) AddMember(ctx context.Context, group, memberType, memberName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_name, member_type, member_name) VALUES (?, ?, ?)
		 ON CONFLICT(group_name, member_type, member_name) DO NOTHING`,
		group, memberType, memberName)
	return mapDBError(err)
}

// DirectGroups returns the groups the member belongs to directly.
func (r *GroupRepo) DirectGroups(ctx context.Context, memberType, memberName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_name FROM group_members WHERE member_type = ? AND member_name = ?`,
		memberType, memberName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupsForUser returns the set of groups a user belongs to, including
// nested groups (transitive closure). The result is sorted for stable
// output; ordering carries no meaning to callers.
func (r *GroupRepo) GroupsForUser(ctx context.Context, user string) ([]string, error) {
	visited := map[string]bool{}
	queue := []string{user}
	memberType := "user"

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		groups, err := r.DirectGroups(ctx, memberType, current)
		if err != nil {
			return nil, fmt.Errorf("resolve groups for %q: %w", current, err)
		}
		for _, g := range groups {
			if !visited[g] {
				visited[g] = true
				queue = append(queue, g)
			}
		}
		memberType = "group"
	}

	out := make([]string, 0, len(visited))
	for g := range visited {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}
