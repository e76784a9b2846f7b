package models

import (
	"strconv"
	"strings"
)

// Assessment is the typed value produced by a successfully parsed dimension.
type Assessment interface {
	Dimension() Dimension
	// Render formats the assessment as the plain text written back to the record.
	Render() string
}

type MarketAssessment struct {
	Opportunity Level    `json:"opportunity"`
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights,omitempty"`
}

func (MarketAssessment) Dimension() Dimension { return DimensionMarket }

func (a MarketAssessment) Render() string {
	return renderSections("Opportunity: "+string(a.Opportunity), a.Summary, "Highlights", a.Highlights)
}

type CompetitiveAssessment struct {
	Intensity   Level    `json:"intensity"`
	Summary     string   `json:"summary"`
	Competitors []string `json:"competitors,omitempty"`
}

func (CompetitiveAssessment) Dimension() Dimension { return DimensionCompetitive }

func (a CompetitiveAssessment) Render() string {
	return renderSections("Competition: "+string(a.Intensity), a.Summary, "Competitors", a.Competitors)
}

type TechnicalAssessment struct {
	Complexity   Level    `json:"complexity"`
	Summary      string   `json:"summary"`
	Requirements []string `json:"requirements,omitempty"`
}

func (TechnicalAssessment) Dimension() Dimension { return DimensionTechnical }

func (a TechnicalAssessment) Render() string {
	return renderSections("Complexity: "+string(a.Complexity), a.Summary, "Requirements", a.Requirements)
}

// RiskAssessment lists risks in the order the model ranked them.
type RiskAssessment struct {
	Level   Level    `json:"level"`
	Summary string   `json:"summary,omitempty"`
	Items   []string `json:"items"`
}

func (RiskAssessment) Dimension() Dimension { return DimensionRisk }

func (a RiskAssessment) Render() string {
	return renderSections("Risk level: "+string(a.Level), a.Summary, "Risks", a.Items)
}

type FinancialAssessment struct {
	ROI       Level    `json:"roi"`
	Summary   string   `json:"summary"`
	Estimates []string `json:"estimates,omitempty"`
}

func (FinancialAssessment) Dimension() Dimension { return DimensionFinancial }

func (a FinancialAssessment) Render() string {
	return renderSections("ROI potential: "+string(a.ROI), a.Summary, "Estimates", a.Estimates)
}

// Recommendation is the executive verdict; Score is in [0, 100].
type Recommendation struct {
	Decision  Decision `json:"decision"`
	Score     int      `json:"score"`
	Rationale string   `json:"rationale"`
	NextSteps []string `json:"next_steps,omitempty"`
}

func (Recommendation) Dimension() Dimension { return DimensionRecommendation }

func (a Recommendation) Render() string {
	head := string(a.Decision) + " (score " + strconv.Itoa(a.Score) + "/100)"
	return renderSections(head, a.Rationale, "Next steps", a.NextSteps)
}

func renderSections(head, summary, listTitle string, items []string) string {
	var b strings.Builder
	b.WriteString(head)
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(summary)
	}
	if len(items) > 0 {
		b.WriteString("\n\n")
		b.WriteString(listTitle)
		b.WriteString(":")
		for _, it := range items {
			b.WriteString("\n- ")
			b.WriteString(it)
		}
	}
	return b.String()
}
