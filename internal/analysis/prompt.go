package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

const (
	unknownName        = "Unknown Project"
	unknownDescription = "No description available"
)

// dimensionBrief is the task text of each dimension's template.
var dimensionBrief = [models.DimensionCount]string{
	models.DimensionMarket: `Assess the market opportunity for this project.
Consider market size and growth in the category it addresses, the target customers and
their pain points, purchase drivers and price sensitivity, relevant market trends, and
whether the timing is right to enter.`,

	models.DimensionCompetitive: `Assess the competitive landscape for this project.
Identify direct and indirect competitors, how crowded the space is, where competitors are
strong or weak, and how this project could differentiate.`,

	models.DimensionTechnical: `Assess the technical feasibility of this project.
Consider the technology stack and infrastructure it needs, integrations, the hardest technical
challenges, team skills and timeline, scalability, and a sensible MVP scope.`,

	models.DimensionRisk: `Assess the risks of this project.
Cover regulatory and compliance, supply chain or vendor dependencies, market and customer
adoption, technology and security, financial, and operational risks. List the most
significant risks first, each with a short mitigation.`,

	models.DimensionFinancial: `Assess the financial outlook of this project.
Estimate development and operating costs, revenue potential, customer acquisition cost and
lifetime value where relevant, break-even timing, and the overall return on investment.`,

	models.DimensionRecommendation: `Give an executive recommendation on whether to pursue this project.
Weigh market opportunity, competition, technical feasibility, risk and financial return
together. Score its priority from 0 (do not pursue) to 100 (pursue immediately).`,
}

// levelHint tells the model what a level means for each level field.
var levelHint = map[models.Dimension]string{
	models.DimensionMarket:      "how large the opportunity is",
	models.DimensionCompetitive: "how intense the competition is",
	models.DimensionTechnical:   "how complex the build is",
	models.DimensionRisk:        "the overall risk",
	models.DimensionFinancial:   "the expected return on investment",
}

// BuildPrompt renders the template of dimension d for rec. The first line
// always names the dimension.
func BuildPrompt(d models.Dimension, rec models.ProjectRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis dimension: %s\n\n", d)

	b.WriteString("Project to analyze:\n")
	fmt.Fprintf(&b, "Project Name: %s\n", orDefault(rec.Name, unknownName))
	fmt.Fprintf(&b, "Description: %s\n", orDefault(rec.Description, unknownDescription))
	if s := strings.TrimSpace(rec.Stage); s != "" {
		fmt.Fprintf(&b, "Stage: %s\n", s)
	}
	if len(rec.Attributes) > 0 {
		keys := make([]string, 0, len(rec.Attributes))
		for k := range rec.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Additional details:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, rec.Attributes[k])
		}
	}

	b.WriteString("\n")
	b.WriteString(dimensionBrief[d])
	b.WriteString("\n\n")
	b.WriteString(formatInstructions(d))
	return b.String()
}

// formatInstructions lists the labels the parser expects, one per line.
func formatInstructions(d models.Dimension) string {
	var b strings.Builder
	b.WriteString("Respond using exactly these labeled sections, each label at the start of its own line:\n")
	for _, f := range SchemaFor(d).Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label(), fieldHint(d, f))
	}
	b.WriteString("Do not add other headings.")
	return b.String()
}

func fieldHint(d models.Dimension, f FieldSpec) string {
	opt := ""
	if !f.Required {
		opt = " (optional)"
	}
	switch f.Kind {
	case KindLevel:
		return "one of Low, Medium or High for " + levelHint[d]
	case KindScore:
		return "an integer from 0 to 100"
	case KindDecision:
		return "one of GO, NO-GO or CONDITIONAL"
	case KindList:
		return "a bulleted list, one item per line starting with \"- \"" + opt
	default:
		return "two to four sentences" + opt
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
