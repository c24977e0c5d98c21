package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/showsync/reccore/pkg/models"
)

// SimilarUserFinder is the narrow interface GenerateCollaborative depends on,
// so it can be satisfied by a test double without a live Neo4j instance —
// the same narrowing internal/profile applies to pgx via DatabaseQuerier.
type SimilarUserFinder interface {
	FindSimilarUsers(ctx context.Context, userID uuid.UUID, minSharedItems int, threshold float64, limit int) ([]models.SimilarUser, error)
}

// Neo4jSimilarUserFinder is the production SimilarUserFinder backed by a
// real Neo4j driver.
type Neo4jSimilarUserFinder struct {
	Driver neo4j.DriverWithContext
}

func (f Neo4jSimilarUserFinder) FindSimilarUsers(ctx context.Context, userID uuid.UUID, minSharedItems int, threshold float64, limit int) ([]models.SimilarUser, error) {
	return FindSimilarUsers(ctx, f.Driver, userID, minSharedItems, threshold, limit)
}

// FindSimilarUsers runs the Pearson-correlation-over-shared-ratings query
// the collaborative mode and group compatibility scoring both depend on.
// Grounded on the teacher's findSimilarUsers Cypher query, adapted from a
// generic Content node to ShowSync's Media node and "RATED" relationship.
func FindSimilarUsers(ctx context.Context, driver neo4j.DriverWithContext, userID uuid.UUID, minSharedItems int, threshold float64, limit int) ([]models.SimilarUser, error) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u1:User {user_id: $userId})-[r1:RATED]->(m:Media)<-[r2:RATED]-(u2:User)
		WHERE u1 <> u2
		WITH u1, u2, collect({rating1: r1.rating, rating2: r2.rating}) AS shared
		WHERE size(shared) >= $minShared
		WITH u2, shared,
			 reduce(s = 0.0, r IN shared | s + r.rating1) / size(shared) AS avg1,
			 reduce(s = 0.0, r IN shared | s + r.rating2) / size(shared) AS avg2
		WITH u2, shared, avg1, avg2,
			 reduce(n = 0.0, r IN shared | n + (r.rating1 - avg1) * (r.rating2 - avg2)) AS numerator,
			 sqrt(reduce(s = 0.0, r IN shared | s + (r.rating1 - avg1)^2)) AS denom1,
			 sqrt(reduce(s = 0.0, r IN shared | s + (r.rating2 - avg2)^2)) AS denom2
		WITH u2, shared,
			 CASE WHEN denom1 * denom2 = 0 THEN 0 ELSE numerator / (denom1 * denom2) END AS correlation
		WHERE correlation >= $threshold
		RETURN u2.user_id AS user_id, correlation AS similarity_score, size(shared) AS shared_items
		ORDER BY correlation DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userId":    userID.String(),
		"minShared": minSharedItems,
		"threshold": threshold,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run similar-users query: %w", err)
	}

	var users []models.SimilarUser
	for result.Next(ctx) {
		record := result.Record()

		userIDStr, ok := record.Values[0].(string)
		if !ok {
			continue
		}
		similarUserID, err := uuid.Parse(userIDStr)
		if err != nil {
			continue
		}

		similarity, _ := record.Values[1].(float64)
		sharedItems, _ := record.Values[2].(int64)

		users = append(users, models.SimilarUser{
			UserID:          similarUserID,
			SimilarityScore: similarity,
			SharedItems:     int(sharedItems),
		})
	}
	return users, result.Err()
}
