package analysis

import "github.com/kiranshivaraju/projectlens/pkg/models"

// decode builds the typed assessment for d from fields that already
// passed Parse for SchemaFor(d).
func decode(d models.Dimension, f Fields) models.Assessment {
	switch d {
	case models.DimensionMarket:
		return models.MarketAssessment{
			Opportunity: f.level(fieldOpportunity),
			Summary:     f.text(fieldSummary),
			Highlights:  f.items(fieldHighlights),
		}
	case models.DimensionCompetitive:
		return models.CompetitiveAssessment{
			Intensity:   f.level(fieldIntensity),
			Summary:     f.text(fieldSummary),
			Competitors: f.items(fieldCompetitors),
		}
	case models.DimensionTechnical:
		return models.TechnicalAssessment{
			Complexity:   f.level(fieldComplexity),
			Summary:      f.text(fieldSummary),
			Requirements: f.items(fieldRequirements),
		}
	case models.DimensionRisk:
		return models.RiskAssessment{
			Level:   f.level(fieldLevel),
			Summary: f.text(fieldSummary),
			Items:   f.items(fieldItems),
		}
	case models.DimensionFinancial:
		return models.FinancialAssessment{
			ROI:       f.level(fieldROI),
			Summary:   f.text(fieldSummary),
			Estimates: f.items(fieldEstimates),
		}
	case models.DimensionRecommendation:
		return models.Recommendation{
			Decision:  f.decision(fieldDecision),
			Score:     f.score(fieldScore),
			Rationale: f.text(fieldRationale),
			NextSteps: f.items(fieldNextSteps),
		}
	}
	return nil
}

// ParseAssessment parses raw against d's schema and decodes the result.
// The error carries the Malformed reason.
func ParseAssessment(d models.Dimension, raw string) (models.Assessment, error) {
	switch o := Parse(SchemaFor(d), raw).(type) {
	case Parsed:
		return decode(d, o.Fields), nil
	case Malformed:
		return nil, &MalformedError{Dimension: d, Reason: o.Reason}
	}
	return nil, &MalformedError{Dimension: d, Reason: "unrecognised parse outcome"}
}

// MalformedError is returned by ParseAssessment for unreadable responses.
type MalformedError struct {
	Dimension models.Dimension
	Reason    string
}

func (e *MalformedError) Error() string {
	return "unparseable " + e.Dimension.String() + " response: " + e.Reason
}
