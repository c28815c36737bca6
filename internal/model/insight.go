package model

// InsightKind classifies how an insight should be presented.
type InsightKind string

const (
	InsightWarning InsightKind = "warning"
	InsightError   InsightKind = "error"
	InsightInfo    InsightKind = "info"
	InsightSuccess InsightKind = "success"
)

// InsightCategory groups insights by the subsystem they concern.
type InsightCategory string

const (
	CategoryPerformance InsightCategory = "performance"
	CategoryLimits      InsightCategory = "limits"
	CategorySoql        InsightCategory = "soql"
	CategoryDml         InsightCategory = "dml"
	CategoryGeneral     InsightCategory = "general"
)

// Severity ranks insights for ordering and display.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank maps a severity to a sortable weight (high > medium > low).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Insight is a derived, human-readable finding about one trace.
type Insight struct {
	Kind        InsightKind     `json:"kind"`
	Category    InsightCategory `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	AffectedIDs []int           `json:"affected_ids,omitempty"`
}

// LimitMetric reports limit consumption with a derived percentage.
// Percentage is nil when the trace reported a zero total for the category.
type LimitMetric struct {
	Used       int64    `json:"used"`
	Total      int64    `json:"total"`
	Percentage *float64 `json:"percentage,omitempty"`
}

// SlowQuery describes the slowest completed query in a trace.
type SlowQuery struct {
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Rows     int64  `json:"rows,omitempty"`
}

// SlowMethod describes the slowest closed method scope in a trace.
type SlowMethod struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"`
}

// Metrics is the derived numeric summary of one trace.
type Metrics struct {
	Limits        map[LimitCategory]LimitMetric `json:"limits,omitempty"`
	TotalSoqlTime int64                         `json:"total_soql_time"`
	TotalDmlTime  int64                         `json:"total_dml_time"`
	SlowestSoql   *SlowQuery                    `json:"slowest_soql,omitempty"`
	SlowestMethod *SlowMethod                   `json:"slowest_method,omitempty"`
}
