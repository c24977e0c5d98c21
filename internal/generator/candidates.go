package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/pkg/models"
)

// DatabaseQuerier is the Postgres surface the generator needs; it is the
// same narrow shape internal/profile uses, kept as a type alias so both
// packages can share a pgxmock in tests without an import cycle.
type DatabaseQuerier = profile.DatabaseQuerier

func scanMediaRows(rows pgx.Rows) ([]*models.Media, error) {
	var out []*models.Media
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(&m.ID, &m.Title, &m.Type, &m.Genres, &m.Platforms, &m.ReleaseDate, &m.RuntimeMinutes, &m.AverageRating, &m.RatingCount); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

const mediaColumns = `m.id, m.title, m.type, m.genres, m.platforms, m.release_date, m.runtime_minutes, m.average_rating, m.rating_count`

// FetchPersonalCandidates returns the full catalog minus items already in
// the user's library, ordered so the most broadly well-rated items are
// considered first within the candidate pool cap.
func FetchPersonalCandidates(ctx context.Context, db DatabaseQuerier, userID uuid.UUID, limit int) ([]*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media m
		WHERE NOT EXISTS (SELECT 1 FROM interactions i WHERE i.user_id = $1 AND i.media_id = m.id)
		ORDER BY m.average_rating DESC NULLS LAST
		LIMIT $2
	`, mediaColumns)

	rows, err := db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query personal candidates: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// FetchCollaborativeCandidates returns media rated >= 4 by any of
// similarUserIDs, excluding anything already in the target user's library.
func FetchCollaborativeCandidates(ctx context.Context, db DatabaseQuerier, userID uuid.UUID, similarUserIDs []uuid.UUID, limit int) ([]*models.Media, error) {
	if len(similarUserIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM media m
		JOIN interactions i ON i.media_id = m.id
		WHERE i.user_id = ANY($1) AND i.rating >= 4
		  AND NOT EXISTS (SELECT 1 FROM interactions t WHERE t.user_id = $2 AND t.media_id = m.id)
		LIMIT $3
	`, mediaColumns)

	rows, err := db.Query(ctx, query, similarUserIDs, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query collaborative candidates: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// FetchContentBasedCandidates returns media overlapping the anchor item's
// genres, excluding the anchor itself and items already in the library.
func FetchContentBasedCandidates(ctx context.Context, db DatabaseQuerier, userID, anchorMediaID uuid.UUID, anchorGenres []string, limit int) ([]*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media m
		WHERE m.genres && $1 AND m.id <> $2
		  AND NOT EXISTS (SELECT 1 FROM interactions i WHERE i.user_id = $3 AND i.media_id = m.id)
		LIMIT $4
	`, mediaColumns)

	rows, err := db.Query(ctx, query, anchorGenres, anchorMediaID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query content-based candidates: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// FetchTrendingCandidates returns platform-wide rated media ordered by rating
// count, then average rating, then release date (newest first), used both as
// the TRENDING mode's pool and as the cold-start fallback. The query applies
// no recency window: old titles with many ratings rank ahead of new ones.
func FetchTrendingCandidates(ctx context.Context, db DatabaseQuerier, limit int) ([]*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media m
		WHERE m.rating_count IS NOT NULL AND m.rating_count > 0
		ORDER BY m.rating_count DESC, m.average_rating DESC NULLS LAST, m.release_date DESC
		LIMIT $1
	`, mediaColumns)

	rows, err := db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending candidates: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// FetchMedia loads a single media row, used to resolve a CONTENT_BASED
// anchor mediaId before the genre-overlap query runs.
func FetchMedia(ctx context.Context, db DatabaseQuerier, mediaID uuid.UUID) (*models.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media m WHERE m.id = $1`, mediaColumns)

	var m models.Media
	err := db.QueryRow(ctx, query, mediaID).Scan(&m.ID, &m.Title, &m.Type, &m.Genres, &m.Platforms, &m.ReleaseDate, &m.RuntimeMinutes, &m.AverageRating, &m.RatingCount)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
