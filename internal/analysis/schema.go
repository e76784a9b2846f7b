package analysis

import (
	"strings"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// FieldKind says how a labeled section is interpreted.
type FieldKind int

const (
	KindText FieldKind = iota
	KindList
	KindLevel
	KindScore
	KindDecision
)

// FieldSpec describes one named sub-field of a dimension's output.
// Aliases are lower-case label spellings accepted in model output; the
// first alias is the label the prompt asks for.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
	Aliases  []string
}

// Label is the canonical upper-case label used in prompts.
func (f FieldSpec) Label() string {
	return strings.ToUpper(f.Aliases[0])
}

// Schema is the expected output shape of one dimension.
type Schema struct {
	Dimension models.Dimension
	Fields    []FieldSpec
}

// Sub-field names shared by decode and the schemas.
const (
	fieldSummary      = "summary"
	fieldOpportunity  = "opportunity"
	fieldHighlights   = "highlights"
	fieldIntensity    = "intensity"
	fieldCompetitors  = "competitors"
	fieldComplexity   = "complexity"
	fieldRequirements = "requirements"
	fieldLevel        = "level"
	fieldItems        = "items"
	fieldROI          = "roi"
	fieldEstimates    = "estimates"
	fieldDecision     = "decision"
	fieldScore        = "score"
	fieldRationale    = "rationale"
	fieldNextSteps    = "next_steps"
)

var schemas = [models.DimensionCount]Schema{
	models.DimensionMarket: {
		Dimension: models.DimensionMarket,
		Fields: []FieldSpec{
			{Name: fieldOpportunity, Kind: KindLevel, Required: true,
				Aliases: []string{"opportunity", "market opportunity", "opportunity level"}},
			{Name: fieldSummary, Kind: KindText, Required: true,
				Aliases: []string{"summary", "market summary", "overview"}},
			{Name: fieldHighlights, Kind: KindList,
				Aliases: []string{"highlights", "key points", "market trends", "trends", "items"}},
		},
	},
	models.DimensionCompetitive: {
		Dimension: models.DimensionCompetitive,
		Fields: []FieldSpec{
			{Name: fieldIntensity, Kind: KindLevel, Required: true,
				Aliases: []string{"competition", "competition level", "competitive intensity", "intensity"}},
			{Name: fieldSummary, Kind: KindText, Required: true,
				Aliases: []string{"summary", "competitive summary", "overview"}},
			{Name: fieldCompetitors, Kind: KindList,
				Aliases: []string{"competitors", "key competitors", "main competitors", "items"}},
		},
	},
	models.DimensionTechnical: {
		Dimension: models.DimensionTechnical,
		Fields: []FieldSpec{
			{Name: fieldComplexity, Kind: KindLevel, Required: true,
				Aliases: []string{"complexity", "technical complexity", "complexity level"}},
			{Name: fieldSummary, Kind: KindText, Required: true,
				Aliases: []string{"summary", "technical summary", "feasibility", "overview"}},
			{Name: fieldRequirements, Kind: KindList,
				Aliases: []string{"requirements", "key requirements", "considerations", "items"}},
		},
	},
	models.DimensionRisk: {
		Dimension: models.DimensionRisk,
		Fields: []FieldSpec{
			{Name: fieldLevel, Kind: KindLevel, Required: true,
				Aliases: []string{"risk level", "overall risk level", "overall risk", "level"}},
			{Name: fieldSummary, Kind: KindText,
				Aliases: []string{"summary", "risk summary", "overview"}},
			{Name: fieldItems, Kind: KindList, Required: true,
				Aliases: []string{"risks", "key risks", "risk items", "items"}},
		},
	},
	models.DimensionFinancial: {
		Dimension: models.DimensionFinancial,
		Fields: []FieldSpec{
			{Name: fieldROI, Kind: KindLevel, Required: true,
				Aliases: []string{"roi", "roi potential", "return potential", "financial outlook"}},
			{Name: fieldSummary, Kind: KindText, Required: true,
				Aliases: []string{"summary", "financial summary", "overview"}},
			{Name: fieldEstimates, Kind: KindList,
				Aliases: []string{"estimates", "key figures", "financials", "items"}},
		},
	},
	models.DimensionRecommendation: {
		Dimension: models.DimensionRecommendation,
		Fields: []FieldSpec{
			{Name: fieldDecision, Kind: KindDecision, Required: true,
				Aliases: []string{"decision", "recommendation", "verdict"}},
			{Name: fieldScore, Kind: KindScore, Required: true,
				Aliases: []string{"score", "priority score", "overall score"}},
			{Name: fieldRationale, Kind: KindText, Required: true,
				Aliases: []string{"rationale", "reasoning", "summary"}},
			{Name: fieldNextSteps, Kind: KindList,
				Aliases: []string{"next steps", "actions", "items"}},
		},
	},
}

// knownLabels holds every alias of every schema. A line labeled with one of
// them closes the current section even when the label belongs to another
// dimension.
var knownLabels = func() map[string]bool {
	m := make(map[string]bool)
	for _, s := range schemas {
		for _, f := range s.Fields {
			for _, a := range f.Aliases {
				m[a] = true
			}
		}
	}
	return m
}()

// SchemaFor returns the output schema of d.
func SchemaFor(d models.Dimension) Schema {
	return schemas[d]
}

func (s Schema) aliasIndex() map[string]string {
	idx := make(map[string]string)
	for _, f := range s.Fields {
		for _, a := range f.Aliases {
			idx[a] = f.Name
		}
	}
	return idx
}
