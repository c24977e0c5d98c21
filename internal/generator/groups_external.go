package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/showsync/reccore/pkg/models"
)

const groupColumns = `g.id, g.name, g.visibility, g.member_count, g.genre_focus, g.activity_level`

func scanGroupRows(rows pgx.Rows) ([]*models.Group, error) {
	var out []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Visibility, &g.MemberCount, &g.GenreFocus, &g.ActivityLevel); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// FetchVisibleGroups returns public groups plus any private group the user
// already belongs to, the visibility filter SuggestGroups' caller must
// apply before candidates reach the scorer.
func FetchVisibleGroups(ctx context.Context, db DatabaseQuerier, userID uuid.UUID, limit int) ([]*models.Group, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM groups g
		WHERE g.visibility = 'PUBLIC'
		   OR EXISTS (SELECT 1 FROM group_memberships gm WHERE gm.group_id = g.id AND gm.user_id = $1)
		ORDER BY g.activity_level DESC
		LIMIT $2
	`, groupColumns)

	rows, err := db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visible groups: %w", err)
	}
	defer rows.Close()
	return scanGroupRows(rows)
}

// IsGroupVisible reports whether userID may see groupID's internal
// recommendations: the group is public, or the user is a member.
func IsGroupVisible(ctx context.Context, db DatabaseQuerier, userID, groupID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM groups g
			WHERE g.id = $1 AND (
				g.visibility = 'PUBLIC'
				OR EXISTS (SELECT 1 FROM group_memberships gm WHERE gm.group_id = g.id AND gm.user_id = $2)
			)
		)
	`
	var visible bool
	if err := db.QueryRow(ctx, query, groupID, userID).Scan(&visible); err != nil {
		return false, fmt.Errorf("failed to check group visibility: %w", err)
	}
	return visible, nil
}

// FetchGroupMemberIDs returns the member roster backing GenerateGroupContent
// and SuggestGroups' compatibility scoring.
func FetchGroupMemberIDs(ctx context.Context, db DatabaseQuerier, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `SELECT user_id FROM group_memberships WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
