package analysis

import "github.com/kiranshivaraju/projectlens/pkg/models"

// Fallback weights in percent. Recommendation carries none since the
// fallback only applies when it is missing.
var fallbackWeights = [models.DimensionCount]int{
	models.DimensionMarket:      25,
	models.DimensionCompetitive: 15,
	models.DimensionTechnical:   20,
	models.DimensionRisk:        25,
	models.DimensionFinancial:   15,
}

// OverallScore picks the report score: the recommendation's own score when
// it succeeded, otherwise FallbackScore over the other dimensions.
func OverallScore(results []models.DimensionResult) (int, models.ScoreSource) {
	for _, r := range results {
		if rec, ok := r.Assessment.(models.Recommendation); ok {
			return rec.Score, models.ScoreFromRecommendation
		}
	}
	if score, ok := FallbackScore(results); ok {
		return score, models.ScoreFromFallback
	}
	return 0, models.ScoreNone
}

// FallbackScore is the weighted mean of the succeeded dimensions' levels,
// each mapped to 0, 50 or 100. Market opportunity and financial ROI score
// High as 100; competition, complexity and risk score Low as 100. The mean
// is rounded half up. ok is false when no weighted dimension succeeded.
//
// Integer arithmetic keeps the result independent of result order.
func FallbackScore(results []models.DimensionResult) (score int, ok bool) {
	var num, den int
	for _, r := range results {
		pts, weighted := levelPoints(r.Assessment)
		if !weighted {
			continue
		}
		w := fallbackWeights[r.Assessment.Dimension()]
		num += pts * w
		den += w
	}
	if den == 0 {
		return 0, false
	}
	return (2*num + den) / (2 * den), true
}

func levelPoints(a models.Assessment) (int, bool) {
	switch v := a.(type) {
	case models.MarketAssessment:
		return favourable(v.Opportunity), true
	case models.FinancialAssessment:
		return favourable(v.ROI), true
	case models.CompetitiveAssessment:
		return 100 - favourable(v.Intensity), true
	case models.TechnicalAssessment:
		return 100 - favourable(v.Complexity), true
	case models.RiskAssessment:
		return 100 - favourable(v.Level), true
	}
	return 0, false
}

func favourable(l models.Level) int {
	switch l {
	case models.LevelHigh:
		return 100
	case models.LevelMedium:
		return 50
	}
	return 0
}
