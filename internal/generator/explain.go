package generator

import (
	"fmt"

	"github.com/showsync/reccore/pkg/models"
)

// ExplanationContext carries the values the reason templates interpolate.
// Not every field is set for every reason; templates only read the ones
// they need.
type ExplanationContext struct {
	TopGenre        string
	AnchorTitle     string
	SimilarUserCount int
	AverageRating   float64
	Confidence      float64
}

// Explain renders the human-facing explanation string for a reason, in the
// style of the teacher's generateContentBasedText/generateCollaborativeText
// family: one template per reason, falling back to a generic sentence for
// reasons that carry no specific template.
func Explain(reason models.RecommendationReason, ctx ExplanationContext) string {
	switch reason {
	case models.ReasonGenreMatch:
		return fmt.Sprintf("Based on your love for %s", ctx.TopGenre)
	case models.ReasonSimilarContent:
		return fmt.Sprintf("Because you liked \"%s\" and this shares similar genres", ctx.AnchorTitle)
	case models.ReasonSimilarUsers:
		return fmt.Sprintf("Users who liked \"%s\" also enjoyed this", ctx.AnchorTitle)
	case models.ReasonGroupActivity:
		return "Popular with your group right now"
	case models.ReasonTrendingGlobal:
		return fmt.Sprintf("Trending now (confidence in your taste profile is still low: %.0f%%)", ctx.Confidence*100)
	case models.ReasonTrendingGenre:
		return fmt.Sprintf("Trending in %s", ctx.TopGenre)
	case models.ReasonHighlyRated:
		return fmt.Sprintf("Highly rated overall (%.1f/10)", ctx.AverageRating)
	case models.ReasonNewRelease:
		return "A new release you might have missed"
	case models.ReasonAwardWinner:
		return "An award-winning pick"
	case models.ReasonCompletionPattern:
		return "Matches shows you tend to finish"
	case models.ReasonBingeWorthy:
		return "A binge-worthy pick based on your viewing pace"
	default:
		return "Recommended for you"
	}
}
