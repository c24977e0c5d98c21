package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/pkg/models"
)

// candidatePoolMultiplier is the "top K·3 candidates" factor spec.md's
// diversification step scores before greedily selecting K.
const candidatePoolMultiplier = 3

// Generator produces ranked, diversified, explained recommendations for the
// five modes. It depends only on reads: persistence of the final rows is
// the Recommendation Store's job (internal/store), so the generator always
// returns a slice of not-yet-persisted rows.
type Generator struct {
	db      DatabaseQuerier
	users   SimilarUserFinder
	builder *profile.Builder
	cfg     *config.Config
	logger  *logrus.Logger
	now     func() time.Time
}

func NewGenerator(db DatabaseQuerier, driver neo4j.DriverWithContext, builder *profile.Builder, cfg *config.Config, logger *logrus.Logger) *Generator {
	return &Generator{db: db, users: Neo4jSimilarUserFinder{Driver: driver}, builder: builder, cfg: cfg, logger: logger, now: time.Now}
}

// GeneratePersonal is the primary mode: PERSONAL candidates scored against
// the user's own profile, with a cold-start fallback to TRENDING.
func (g *Generator) GeneratePersonal(ctx context.Context, userID uuid.UUID, count int) ([]*models.ContentRecommendation, error) {
	p, err := g.builder.GetOrBuild(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	if !p.HasSufficientData(g.cfg.Recs.MinInteractionsForConfidence, g.cfg.Recs.MinConfidenceToPersonalize) {
		g.logger.WithField("user_id", userID).Debug("cold start: falling back to trending")
		return g.coldStart(ctx, userID, p, count)
	}

	candidates, err := FetchPersonalCandidates(ctx, g.db, userID, g.cfg.Recs.CandidatePoolCap)
	if err != nil {
		return nil, err
	}

	scored := g.scoreAll(candidates, p, userID)
	return g.finalize(scored, candidates, userID, models.TypePersonal, count)
}

// GenerateCollaborative scores media rated highly by the user's top-N
// similar users, weighted by compatibility.
func (g *Generator) GenerateCollaborative(ctx context.Context, userID uuid.UUID, count int) ([]*models.ContentRecommendation, error) {
	p, err := g.builder.GetOrBuild(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	similarUsers, err := g.users.FindSimilarUsers(ctx, userID, 3, 0.3, 20)
	if err != nil {
		g.logger.WithError(err).Warn("failed to find similar users, falling back to trending")
		return g.coldStart(ctx, userID, p, count)
	}
	if len(similarUsers) == 0 {
		return g.coldStart(ctx, userID, p, count)
	}

	ids := make([]uuid.UUID, len(similarUsers))
	var weightSum float64
	for i, su := range similarUsers {
		ids[i] = su.UserID
		weightSum += su.SimilarityScore
	}
	avgCompatibility := weightSum / float64(len(similarUsers))

	candidates, err := FetchCollaborativeCandidates(ctx, g.db, userID, ids, g.cfg.Recs.CandidatePoolCap)
	if err != nil {
		return nil, err
	}

	scored := g.scoreAll(candidates, p, userID)
	for i := range scored {
		scored[i].Score *= 0.5 + 0.5*avgCompatibility
	}
	recs, err := g.finalize(scored, candidates, userID, models.TypeCollaborative, count)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		r.Reason = models.ReasonSimilarUsers
	}
	return recs, nil
}

// GenerateContentBased scores media with overlapping genres against an
// anchor item, used for "similar to X" surfaces.
func (g *Generator) GenerateContentBased(ctx context.Context, userID, anchorMediaID uuid.UUID, count int) ([]*models.ContentRecommendation, error) {
	anchor, err := FetchMedia(ctx, g.db, anchorMediaID)
	if err != nil {
		return nil, fmt.Errorf("unknown anchor media %s: %w", anchorMediaID, err)
	}

	p, err := g.builder.GetOrBuild(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	candidates, err := FetchContentBasedCandidates(ctx, g.db, userID, anchorMediaID, anchor.Genres, g.cfg.Recs.CandidatePoolCap)
	if err != nil {
		return nil, err
	}

	scored := g.scoreAll(candidates, p, userID)
	recs, err := g.finalize(scored, candidates, userID, models.TypeContentBased, count)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		r.Reason = models.ReasonSimilarContent
	}
	return recs, nil
}

// GenerateTrending is both its own mode and the cold-start/fallback path:
// platform-wide media ranked by rating count and average rating (no recency
// window, see FetchTrendingCandidates), reason TRENDING_GLOBAL.
func (g *Generator) GenerateTrending(ctx context.Context, userID uuid.UUID, count int) ([]*models.ContentRecommendation, error) {
	candidates, err := FetchTrendingCandidates(ctx, g.db, count*candidatePoolMultiplier)
	if err != nil {
		return nil, err
	}

	now := g.now()
	recs := make([]*models.ContentRecommendation, 0, len(candidates))
	for i, m := range candidates {
		if i >= count {
			break
		}
		recs = append(recs, &models.ContentRecommendation{
			ID:          uuid.New(),
			UserID:      userID,
			MediaID:     m.ID,
			Score:       trendingScore(m),
			Reason:      models.ReasonTrendingGlobal,
			Explanation: Explain(models.ReasonTrendingGlobal, ExplanationContext{}),
			Type:        models.TypeTrending,
			CreatedAt:   now,
			ExpiresAt:   now.Add(g.cfg.Recs.ContentRecExpiry),
		})
	}
	return recs, nil
}

func (g *Generator) coldStart(ctx context.Context, userID uuid.UUID, p *models.PreferenceProfile, count int) ([]*models.ContentRecommendation, error) {
	recs, err := g.GenerateTrending(ctx, userID, count)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		r.Explanation = Explain(models.ReasonTrendingGlobal, ExplanationContext{Confidence: p.Confidence})
	}
	return recs, nil
}

func trendingScore(m *models.Media) float64 {
	if m.AverageRating == nil {
		return 0.5
	}
	return *m.AverageRating / 10
}

// scoreAll applies the weighted scoring function, personalization factor,
// and exploration perturbation to every candidate, and records each
// candidate's dominant scoring term as its default reason.
func (g *Generator) scoreAll(candidates []*models.Media, p *models.PreferenceProfile, userID uuid.UUID) []Scored {
	seed := ExplorationSeed(userID, g.now())
	out := make([]Scored, 0, len(candidates))

	for _, m := range candidates {
		score, b := ScoreCandidate(m, p, g.cfg.Recs.Weights)
		score = ApplyPersonalizationFactor(score, p.Confidence, g.cfg.Recs.PersonalizationFactor)
		score = ApplyExplorationFactor(score, seed^uint64(hashMediaID(m.ID)), g.cfg.Recs.ExplorationFactor)
		out = append(out, Scored{MediaID: m.ID, Score: score, Genres: m.Genres, Reason: dominantReason(b)})
	}
	return out
}

func hashMediaID(id uuid.UUID) uint32 {
	var h uint32 = 2166136261
	for _, b := range id {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

// finalize diversifies the scored pool down to count items, resolves each
// winner's reason/explanation from the dominant scoring term, and builds
// the unpersisted ContentRecommendation rows.
func (g *Generator) finalize(scored []Scored, candidates []*models.Media, userID uuid.UUID, recType models.RecommendationType, count int) ([]*models.ContentRecommendation, error) {
	byID := make(map[uuid.UUID]*models.Media, len(candidates))
	for _, m := range candidates {
		byID[m.ID] = m
	}

	poolSize := count * candidatePoolMultiplier
	if poolSize > len(scored) {
		poolSize = len(scored)
	}
	topPool := topNScored(scored, poolSize)

	diversified := Diversify(topPool, count, g.cfg.Recs.DiversityFactor)

	now := g.now()
	recs := make([]*models.ContentRecommendation, 0, len(diversified))
	for _, s := range diversified {
		m := byID[s.MediaID]
		if m == nil {
			continue
		}

		recs = append(recs, &models.ContentRecommendation{
			ID:          uuid.New(),
			UserID:      userID,
			MediaID:     s.MediaID,
			Score:       s.Score,
			Reason:      s.Reason,
			Explanation: Explain(s.Reason, ExplanationContext{TopGenre: topGenre(m), AverageRating: avgRatingOf(m)}),
			Type:        recType,
			CreatedAt:   now,
			ExpiresAt:   now.Add(g.cfg.Recs.ContentRecExpiry),
		})
	}
	return recs, nil
}

func topGenre(m *models.Media) string {
	if len(m.Genres) == 0 {
		return "your favorite genres"
	}
	return m.Genres[0]
}

func avgRatingOf(m *models.Media) float64 {
	if m.AverageRating == nil {
		return 0
	}
	return *m.AverageRating
}

func topNScored(scored []Scored, n int) []Scored {
	sorted := make([]Scored, len(scored))
	copy(sorted, scored)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Score > sorted[j-1].Score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
