package notion

// Property names of the project database. Reads use the input names; the
// pipeline writes the output names as a partial merge.
const (
	PropProjectName = "Project Name"
	PropDescription = "Description"
	PropStage       = "Stage"

	PropMarketAnalysis       = "Market Analysis"
	PropCompetitiveAnalysis  = "Competitive Analysis"
	PropTechnicalFeasibility = "Technical Feasibility"
	PropRiskAssessment       = "Risk Assessment"
	PropFinancialOverview    = "Financial Overview"
	PropAIRecommendation     = "AI Recommendation"

	PropMarketOpportunity   = "Market Opportunity"
	PropCompetitionLevel    = "Competition Level"
	PropTechnicalComplexity = "Technical Complexity"
	PropRiskLevel           = "Risk Level"
	PropROIPotential        = "ROI Potential"
	PropDecision            = "Decision"

	PropPriorityScore = "Priority Score"
	PropAnalysisDate  = "Analysis Date"
	PropStatus        = "Status"
)

// Values of the Status select.
const (
	StatusAnalyzing = "Analyzing"
	StatusComplete  = "Complete"
	StatusError     = "Error"
)

// outputProps are never fed back into Attributes, so a re-run does not
// prompt the model with its own previous answers.
var outputProps = map[string]bool{
	PropMarketAnalysis:       true,
	PropCompetitiveAnalysis:  true,
	PropTechnicalFeasibility: true,
	PropRiskAssessment:       true,
	PropFinancialOverview:    true,
	PropAIRecommendation:     true,
	PropMarketOpportunity:    true,
	PropCompetitionLevel:     true,
	PropTechnicalComplexity:  true,
	PropRiskLevel:            true,
	PropROIPotential:         true,
	PropDecision:             true,
	PropPriorityScore:        true,
	PropAnalysisDate:         true,
	PropStatus:               true,
}
