package generator

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/showsync/reccore/internal/kernel"
	"github.com/showsync/reccore/pkg/models"
)

// lowRatingThreshold is what "rated low" means when excluding items from a
// group's candidate pool — below this, even one member's rating vetoes the
// item for the whole group.
const lowRatingThreshold = 3.0

// idealGroupSize anchors the group-suggestion sizeFit term; spec.md leaves
// the exact curve unspecified, so a triangular fit around this value is
// used (documented as an Open Question decision in DESIGN.md).
const idealGroupSize = 12

// FetchGroupCandidates returns media no active member has rated below
// lowRatingThreshold.
func FetchGroupCandidates(ctx context.Context, db DatabaseQuerier, memberIDs []uuid.UUID, limit int) ([]*models.Media, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM media m
		WHERE NOT EXISTS (
			SELECT 1 FROM interactions i
			WHERE i.media_id = m.id AND i.user_id = ANY($1) AND i.rating IS NOT NULL AND i.rating < $2
		)
		ORDER BY m.average_rating DESC NULLS LAST
		LIMIT $3
	`, mediaColumns)

	rows, err := db.Query(ctx, query, memberIDs, lowRatingThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query group candidates: %w", err)
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// GenerateGroupContent scores the group's shared candidate pool by the mean
// of each active member's personal score, diversifies once for the whole
// group, and fans the resulting list out into one ContentRecommendation per
// member (Type GROUP, Reason GROUP_ACTIVITY) so the per-user freshness and
// eviction rules in internal/store keep applying unchanged.
func (g *Generator) GenerateGroupContent(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID, count int) (map[uuid.UUID][]*models.ContentRecommendation, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	profiles := make([]*models.PreferenceProfile, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, err := g.builder.GetOrBuild(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile for group member %s: %w", id, err)
		}
		profiles = append(profiles, p)
	}

	candidates, err := FetchGroupCandidates(ctx, g.db, memberIDs, g.cfg.Recs.CandidatePoolCap)
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(candidates))
	for _, m := range candidates {
		var sum float64
		for _, p := range profiles {
			s, _ := ScoreCandidate(m, p, g.cfg.Recs.Weights)
			sum += s
		}
		mean := sum / float64(len(profiles))
		scored = append(scored, Scored{MediaID: m.ID, Score: mean, Genres: m.Genres, Reason: models.ReasonGroupActivity})
	}

	poolSize := count * candidatePoolMultiplier
	if poolSize > len(scored) {
		poolSize = len(scored)
	}
	diversified := Diversify(topNScored(scored, poolSize), count, g.cfg.Recs.DiversityFactor)

	byID := make(map[uuid.UUID]*models.Media, len(candidates))
	for _, m := range candidates {
		byID[m.ID] = m
	}

	now := g.now()
	result := make(map[uuid.UUID][]*models.ContentRecommendation, len(memberIDs))
	for _, memberID := range memberIDs {
		recs := make([]*models.ContentRecommendation, 0, len(diversified))
		for _, s := range diversified {
			m := byID[s.MediaID]
			if m == nil {
				continue
			}
			recs = append(recs, &models.ContentRecommendation{
				ID:          uuid.New(),
				UserID:      memberID,
				MediaID:     s.MediaID,
				Score:       s.Score,
				Reason:      models.ReasonGroupActivity,
				Explanation: Explain(models.ReasonGroupActivity, ExplanationContext{}),
				Type:        models.TypeGroup,
				CreatedAt:   now,
				ExpiresAt:   now.Add(g.cfg.Recs.ContentRecExpiry),
			})
		}
		result[memberID] = recs
	}
	return result, nil
}

// SuggestGroups scores candidate groups for a user per spec.md's group
// formula: alpha*meanMemberCompatibility + beta*groupActivityLevel +
// gamma*sizeFit + delta*genreCompatibility. Callers are responsible for the
// visibility filter (public, or private-and-eligible) before candidates
// reach here.
func (g *Generator) SuggestGroups(ctx context.Context, userID uuid.UUID, candidates []*models.Group, memberProfiles map[uuid.UUID][]*models.PreferenceProfile, count int) ([]*models.GroupRecommendation, error) {
	p, err := g.builder.GetOrBuild(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	w := g.cfg.Recs.GroupWeights

	type candidateScore struct {
		group *models.Group
		score float64
	}
	scored := make([]candidateScore, 0, len(candidates))

	for _, grp := range candidates {
		meanCompat := meanCompatibility(p, memberProfiles[grp.ID])
		sizeFit := groupSizeFit(grp.MemberCount)
		genreCompat := groupGenreCompatibility(p, grp.GenreFocus)

		score := w.Alpha*meanCompat + w.Beta*grp.ActivityLevel + w.Gamma*sizeFit + w.Delta*genreCompat
		scored = append(scored, candidateScore{group: grp, score: score})
	}

	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].score > scored[j-1].score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
	if count > len(scored) {
		count = len(scored)
	}

	now := g.now()
	out := make([]*models.GroupRecommendation, 0, count)
	for _, cs := range scored[:count] {
		out = append(out, &models.GroupRecommendation{
			ID:          uuid.New(),
			UserID:      userID,
			GroupID:     cs.group.ID,
			Score:       cs.score,
			Reason:      models.ReasonGroupActivity,
			Explanation: fmt.Sprintf("Active group matching your taste in %s", firstOrDefault(cs.group.GenreFocus, "your favorite genres")),
			CreatedAt:   now,
			ExpiresAt:   now.Add(g.cfg.Recs.GroupRecExpiry),
		})
	}
	return out, nil
}

func meanCompatibility(p *models.PreferenceProfile, members []*models.PreferenceProfile) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += kernel.CosineSimilarity(p.GenreWeights, m.GenreWeights)
	}
	return sum / float64(len(members))
}

// groupSizeFit is a triangular function peaking at idealGroupSize: full
// score at the ideal, decaying linearly to 0 at twice (or zero) the ideal.
func groupSizeFit(memberCount int) float64 {
	fit := 1 - math.Abs(float64(memberCount-idealGroupSize))/idealGroupSize
	return math.Max(0, math.Min(1, fit))
}

func groupGenreCompatibility(p *models.PreferenceProfile, genreFocus []string) float64 {
	focus := make(map[string]float64, len(genreFocus))
	for _, gName := range genreFocus {
		focus[gName] = 1.0
	}
	return kernel.CosineSimilarity(focus, p.GenreWeights)
}

func firstOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return items[0]
}
