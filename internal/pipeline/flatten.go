package pipeline

import (
	"github.com/kiranshivaraju/projectlens/internal/notion"
	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// textProps maps each dimension to the rich_text property holding its
// rendered assessment.
var textProps = [models.DimensionCount]string{
	models.DimensionMarket:         notion.PropMarketAnalysis,
	models.DimensionCompetitive:    notion.PropCompetitiveAnalysis,
	models.DimensionTechnical:      notion.PropTechnicalFeasibility,
	models.DimensionRisk:           notion.PropRiskAssessment,
	models.DimensionFinancial:      notion.PropFinancialOverview,
	models.DimensionRecommendation: notion.PropAIRecommendation,
}

// Flatten converts a report into the attribute update written back to the
// record. Failed dimensions write their cause as text and leave their
// select untouched; the priority score is only sent when one exists.
func Flatten(report *models.AnalysisReport) notion.Properties {
	props := notion.Properties{
		notion.PropAnalysisDate: notion.Date(report.CompletedAt),
		notion.PropStatus:       notion.Select(notion.StatusComplete),
	}

	for _, res := range report.Results {
		if !res.Dimension.Valid() {
			continue
		}
		if !res.Succeeded() {
			props[textProps[res.Dimension]] = notion.Text("Analysis failed: " + res.Cause)
			continue
		}
		props[textProps[res.Dimension]] = notion.Text(res.Assessment.Render())
		if name, value, ok := selectProp(res.Assessment); ok {
			props[name] = notion.Select(value)
		}
	}

	if report.HasScore() {
		props[notion.PropPriorityScore] = notion.Number(report.OverallScore)
	}
	return props
}

func selectProp(a models.Assessment) (name, value string, ok bool) {
	switch v := a.(type) {
	case models.MarketAssessment:
		return notion.PropMarketOpportunity, string(v.Opportunity), true
	case models.CompetitiveAssessment:
		return notion.PropCompetitionLevel, string(v.Intensity), true
	case models.TechnicalAssessment:
		return notion.PropTechnicalComplexity, string(v.Complexity), true
	case models.RiskAssessment:
		return notion.PropRiskLevel, string(v.Level), true
	case models.FinancialAssessment:
		return notion.PropROIPotential, string(v.ROI), true
	case models.Recommendation:
		return notion.PropDecision, string(v.Decision), true
	}
	return "", "", false
}
