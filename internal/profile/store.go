// Package profile implements the Preference Profile Builder: it reads a
// user's interactions, joined with media metadata, and derives the single
// PreferenceProfile row owned by that user.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/showsync/reccore/pkg/models"
)

// DatabaseQuerier is the narrow surface the builder needs from Postgres,
// kept minimal so tests can substitute pgxmock without a live database.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// interactionRow is a user's interaction joined with the media metadata the
// builder needs: genres, platform, release date, runtime.
type interactionRow struct {
	MediaID        uuid.UUID
	Rating         *float64
	Status         models.InteractionStatus
	Genres         []string
	Platforms      []string
	ReleaseDate    time.Time
	RuntimeMinutes *int
	UpdatedAt      time.Time
}

// fetchInteractions reads every interaction for userID, ordered by
// updatedAt descending, joined with media metadata.
func fetchInteractions(ctx context.Context, db DatabaseQuerier, userID uuid.UUID) ([]interactionRow, error) {
	const query = `
		SELECT i.media_id, i.rating, i.status, m.genres, m.platforms, m.release_date, m.runtime_minutes, i.updated_at
		FROM interactions i
		JOIN media m ON m.id = i.media_id
		WHERE i.user_id = $1
		ORDER BY i.updated_at DESC
	`

	rows, err := db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var out []interactionRow
	for rows.Next() {
		var r interactionRow
		if err := rows.Scan(&r.MediaID, &r.Rating, &r.Status, &r.Genres, &r.Platforms, &r.ReleaseDate, &r.RuntimeMinutes, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadProfile reads the persisted profile for userID, or pgx.ErrNoRows if
// none exists yet (the builder treats that as "create lazily").
func LoadProfile(ctx context.Context, db DatabaseQuerier, userID uuid.UUID) (*models.PreferenceProfile, error) {
	const query = `
		SELECT user_id, genre_weights, platform_weights, era_weights, preferred_length,
		       avg_rating, rating_variance, total_interactions, total_completed,
		       personality, confidence, last_calculated_at
		FROM preference_profiles
		WHERE user_id = $1
	`

	var p models.PreferenceProfile
	var genreJSON, platformJSON, eraJSON []byte

	err := db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &genreJSON, &platformJSON, &eraJSON, &p.PreferredLength,
		&p.AvgRating, &p.RatingVariance, &p.TotalInteractions, &p.TotalCompleted,
		&p.Personality, &p.Confidence, &p.LastCalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(genreJSON, &p.GenreWeights); err != nil {
		return nil, fmt.Errorf("failed to decode genre weights: %w", err)
	}
	if err := json.Unmarshal(platformJSON, &p.PlatformWeights); err != nil {
		return nil, fmt.Errorf("failed to decode platform weights: %w", err)
	}
	if err := json.Unmarshal(eraJSON, &p.EraWeights); err != nil {
		return nil, fmt.Errorf("failed to decode era weights: %w", err)
	}

	return &p, nil
}

// SaveProfile upserts the profile row. The profile is mutated only by the
// builder, so a plain upsert is safe under the per-user serialization §5
// requires callers to already hold.
func SaveProfile(ctx context.Context, db DatabaseQuerier, p *models.PreferenceProfile) error {
	genreJSON, err := json.Marshal(p.GenreWeights)
	if err != nil {
		return fmt.Errorf("failed to encode genre weights: %w", err)
	}
	platformJSON, err := json.Marshal(p.PlatformWeights)
	if err != nil {
		return fmt.Errorf("failed to encode platform weights: %w", err)
	}
	eraJSON, err := json.Marshal(p.EraWeights)
	if err != nil {
		return fmt.Errorf("failed to encode era weights: %w", err)
	}

	const query = `
		INSERT INTO preference_profiles (
			user_id, genre_weights, platform_weights, era_weights, preferred_length,
			avg_rating, rating_variance, total_interactions, total_completed,
			personality, confidence, last_calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			genre_weights = EXCLUDED.genre_weights,
			platform_weights = EXCLUDED.platform_weights,
			era_weights = EXCLUDED.era_weights,
			preferred_length = EXCLUDED.preferred_length,
			avg_rating = EXCLUDED.avg_rating,
			rating_variance = EXCLUDED.rating_variance,
			total_interactions = EXCLUDED.total_interactions,
			total_completed = EXCLUDED.total_completed,
			personality = EXCLUDED.personality,
			confidence = EXCLUDED.confidence,
			last_calculated_at = EXCLUDED.last_calculated_at
	`

	_, err = db.Exec(ctx, query,
		p.UserID, genreJSON, platformJSON, eraJSON, p.PreferredLength,
		p.AvgRating, p.RatingVariance, p.TotalInteractions, p.TotalCompleted,
		p.Personality, p.Confidence, p.LastCalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preference profile: %w", err)
	}
	return nil
}

// MarkStale forces the next builder pass to re-derive weights from scratch,
// per the feedback loop's "profile.markForRecalculation()" contract. It is
// a targeted update rather than a full upsert since the feedback path does
// not have a full profile in hand.
func MarkStale(ctx context.Context, db DatabaseQuerier, userID uuid.UUID) error {
	const query = `UPDATE preference_profiles SET confidence = 0 WHERE user_id = $1`
	_, err := db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark profile stale: %w", err)
	}
	return nil
}
