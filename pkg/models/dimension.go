package models

import (
	"fmt"
	"strings"
)

// Dimension is one of the fixed analysis categories.
type Dimension int

const (
	DimensionMarket Dimension = iota
	DimensionCompetitive
	DimensionTechnical
	DimensionRisk
	DimensionFinancial
	DimensionRecommendation

	// DimensionCount is the number of analysis dimensions.
	DimensionCount = 6
)

var dimensionNames = [DimensionCount]string{
	"market",
	"competitive",
	"technical",
	"risk",
	"financial",
	"recommendation",
}

// AllDimensions returns every dimension in the fixed iteration order.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionMarket,
		DimensionCompetitive,
		DimensionTechnical,
		DimensionRisk,
		DimensionFinancial,
		DimensionRecommendation,
	}
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= DimensionCount {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// Valid reports whether d is one of the known dimensions.
func (d Dimension) Valid() bool {
	return d >= 0 && int(d) < DimensionCount
}

func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Level is a qualitative Low/Medium/High rating.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow, true
	case "medium", "med", "moderate":
		return LevelMedium, true
	case "high":
		return LevelHigh, true
	}
	return "", false
}

// Decision is the go/no-go verdict of the recommendation dimension.
type Decision string

const (
	DecisionGo          Decision = "GO"
	DecisionNoGo        Decision = "NO-GO"
	DecisionConditional Decision = "CONDITIONAL"
)

// ParseDecision accepts GO, NO-GO (also "no go", "nogo") and CONDITIONAL in any case.
func ParseDecision(s string) (Decision, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(norm)
	switch norm {
	case "GO":
		return DecisionGo, true
	case "NOGO":
		return DecisionNoGo, true
	case "CONDITIONAL":
		return DecisionConditional, true
	}
	return "", false
}
