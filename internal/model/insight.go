package model

// InsightType tags an insight with its tone.
type InsightType string

const (
	InsightSaving   InsightType = "saving"
	InsightWarning  InsightType = "warning"
	InsightPositive InsightType = "positive"
)

// Valid reports whether t is one of the three known types.
func (t InsightType) Valid() bool {
	switch t {
	case InsightSaving, InsightWarning, InsightPositive:
		return true
	}
	return false
}

// Insight is a short budgeting tip. Insights are never persisted.
type Insight struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        InsightType `json:"type"`
}
