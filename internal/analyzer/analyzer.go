// Package analyzer derives performance insights and aggregate metrics from a
// ParsedLog. It is a pure transform: absent fields simply suppress the rules
// that depend on them, and analysis itself cannot fail.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

// Heuristic boundaries tuned against real traces. Treat as behavioral
// contract, not as derived values.
const (
	criticalUsagePct = 80.0
	highUsagePct     = 50.0
	dmlUsagePct      = 70.0

	slowQueryNs       = int64(1_000_000_000) // 1s
	nPlusOneMin       = 10
	queryPrefixLen    = 50
	largeResultRows   = int64(1000)
	slowestQueryChars = 100
)

// Analyze evaluates all insight rules against a parsed log and computes its
// metrics summary. Insights come back sorted by severity (high first); ties
// keep rule-evaluation order.
func Analyze(parsed *model.ParsedLog, status string) ([]model.Insight, model.Metrics) {
	insights := collectInsights(parsed, status)

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Severity.Rank() > insights[j].Severity.Rank()
	})

	return insights, computeMetrics(parsed)
}

func collectInsights(parsed *model.ParsedLog, status string) []model.Insight {
	var insights []model.Insight

	insights = appendUsageInsights(insights, parsed, model.LimitCpuTime,
		"Critical CPU Usage", "High CPU Usage", "CPU time")
	insights = appendUsageInsights(insights, parsed, model.LimitHeapSize,
		"Critical Heap Usage", "High Heap Usage", "heap size")

	insights = appendNPlusOne(insights, parsed)
	insights = appendSlowQueries(insights, parsed)
	insights = appendQueryQuota(insights, parsed)
	insights = appendLargeResults(insights, parsed)
	insights = appendDmlQuota(insights, parsed)
	insights = appendStatus(insights, status)

	return appendFallback(insights)
}

// appendUsageInsights covers the shared CPU/heap rule: >80% is critical,
// >50% is a warning.
func appendUsageInsights(insights []model.Insight, parsed *model.ParsedLog, cat model.LimitCategory, criticalTitle, highTitle, label string) []model.Insight {
	usage, ok := parsed.Limits[cat]
	if !ok {
		return insights
	}

	pct := usagePercent(usage)
	switch {
	case pct > criticalUsagePct:
		insights = append(insights, model.Insight{
			Kind:        model.InsightError,
			Category:    model.CategoryPerformance,
			Title:       criticalTitle,
			Description: fmt.Sprintf("Transaction consumed %.1f%% of available %s (%d of %d).", pct, label, usage.Used, usage.Total),
			Severity:    model.SeverityHigh,
		})
	case pct > highUsagePct:
		insights = append(insights, model.Insight{
			Kind:        model.InsightWarning,
			Category:    model.CategoryPerformance,
			Title:       highTitle,
			Description: fmt.Sprintf("Transaction consumed %.1f%% of available %s (%d of %d).", pct, label, usage.Used, usage.Total),
			Severity:    model.SeverityMedium,
		})
	}
	return insights
}

// appendNPlusOne flags repeated near-identical queries: more than ten queries
// whose distinct 50-character prefixes cover less than half the total.
func appendNPlusOne(insights []model.Insight, parsed *model.ParsedLog) []model.Insight {
	total := len(parsed.Queries)
	if total <= nPlusOneMin {
		return insights
	}

	prefixes := make(map[string]struct{}, total)
	for i := range parsed.Queries {
		prefixes[queryPrefix(parsed.Queries[i].Query)] = struct{}{}
	}

	if len(prefixes)*2 >= total {
		return insights
	}

	return append(insights, model.Insight{
		Kind:        model.InsightError,
		Category:    model.CategorySoql,
		Title:       "Potential N+1 Query Pattern",
		Description: fmt.Sprintf("%d queries share only %d distinct shapes; consider bulkifying the query into the parent loop.", total, len(prefixes)),
		Severity:    model.SeverityHigh,
	})
}

func appendSlowQueries(insights []model.Insight, parsed *model.ParsedLog) []model.Insight {
	var slow int
	for i := range parsed.Queries {
		q := &parsed.Queries[i]
		if q.Completed && q.Duration > slowQueryNs {
			slow++
		}
	}
	if slow == 0 {
		return insights
	}

	return append(insights, model.Insight{
		Kind:        model.InsightWarning,
		Category:    model.CategorySoql,
		Title:       "Slow Queries Found",
		Description: fmt.Sprintf("%d queries took longer than 1 second. Check selectivity and indexes on the filtered fields.", slow),
		Severity:    model.SeverityMedium,
	})
}

func appendQueryQuota(insights []model.Insight, parsed *model.ParsedLog) []model.Insight {
	usage, ok := parsed.Limits[model.LimitSoqlQueries]
	if !ok {
		return insights
	}

	pct := usagePercent(usage)
	switch {
	case pct > criticalUsagePct:
		insights = append(insights, model.Insight{
			Kind:        model.InsightError,
			Category:    model.CategoryLimits,
			Title:       "Approaching Query Limit",
			Description: fmt.Sprintf("Used %d of %d SOQL queries (%.1f%%).", usage.Used, usage.Total, pct),
			Severity:    model.SeverityHigh,
		})
	case pct > highUsagePct:
		insights = append(insights, model.Insight{
			Kind:        model.InsightWarning,
			Category:    model.CategoryLimits,
			Title:       "High Query Usage",
			Description: fmt.Sprintf("Used %d of %d SOQL queries (%.1f%%).", usage.Used, usage.Total, pct),
			Severity:    model.SeverityMedium,
		})
	}
	return insights
}

func appendLargeResults(insights []model.Insight, parsed *model.ParsedLog) []model.Insight {
	var large int
	for i := range parsed.Queries {
		if parsed.Queries[i].Rows > largeResultRows {
			large++
		}
	}
	if large == 0 {
		return insights
	}

	return append(insights, model.Insight{
		Kind:        model.InsightWarning,
		Category:    model.CategorySoql,
		Title:       "Large Query Result Sets",
		Description: fmt.Sprintf("%d queries returned more than %d rows.", large, largeResultRows),
		Severity:    model.SeverityLow,
	})
}

func appendDmlQuota(insights []model.Insight, parsed *model.ParsedLog) []model.Insight {
	usage, ok := parsed.Limits[model.LimitDmlStatements]
	if !ok {
		return insights
	}

	pct := usagePercent(usage)
	if pct <= dmlUsagePct {
		return insights
	}

	return append(insights, model.Insight{
		Kind:        model.InsightWarning,
		Category:    model.CategoryDml,
		Title:       "High DML Statement Usage",
		Description: fmt.Sprintf("Used %d of %d DML statements (%.1f%%).", usage.Used, usage.Total, pct),
		Severity:    model.SeverityMedium,
	})
}

func appendStatus(insights []model.Insight, status string) []model.Insight {
	lower := strings.ToLower(status)
	if !strings.Contains(lower, "error") && !strings.Contains(lower, "failed") {
		return insights
	}

	return append(insights, model.Insight{
		Kind:        model.InsightError,
		Category:    model.CategoryGeneral,
		Title:       "Execution Failed",
		Description: fmt.Sprintf("The transaction finished with status %q.", status),
		Severity:    model.SeverityHigh,
	})
}

// appendFallback closes the list with a success note when nothing above low
// severity fired.
func appendFallback(insights []model.Insight) []model.Insight {
	for _, in := range insights {
		if in.Severity != model.SeverityLow {
			return insights
		}
	}

	return append(insights, model.Insight{
		Kind:        model.InsightSuccess,
		Category:    model.CategoryGeneral,
		Title:       "Performance Looks Good",
		Description: "No significant performance issues were detected in this transaction.",
		Severity:    model.SeverityLow,
	})
}

func computeMetrics(parsed *model.ParsedLog) model.Metrics {
	var m model.Metrics

	if len(parsed.Limits) > 0 {
		m.Limits = make(map[model.LimitCategory]model.LimitMetric, len(parsed.Limits))
		for cat, usage := range parsed.Limits {
			lm := model.LimitMetric{Used: usage.Used, Total: usage.Total}
			if usage.Total > 0 {
				pct := usagePercent(usage)
				lm.Percentage = &pct
			}
			m.Limits[cat] = lm
		}
	}

	for i := range parsed.Queries {
		q := &parsed.Queries[i]
		if !q.Completed {
			continue
		}
		m.TotalSoqlTime += q.Duration
		if m.SlowestSoql == nil || q.Duration > m.SlowestSoql.Duration {
			m.SlowestSoql = &model.SlowQuery{
				Query:    truncateQuery(q.Query),
				Duration: q.Duration,
				Rows:     q.Rows,
			}
		}
	}

	for i := range parsed.DmlOps {
		op := &parsed.DmlOps[i]
		if op.Completed {
			m.TotalDmlTime += op.EndTime - op.StartTime
		}
	}

	for i := range parsed.Timeline {
		ev := &parsed.Timeline[i]
		if ev.Kind != model.KindMethod {
			continue
		}
		if m.SlowestMethod == nil || ev.Duration > m.SlowestMethod.Duration {
			m.SlowestMethod = &model.SlowMethod{Name: ev.Name, Duration: ev.Duration}
		}
	}

	return m
}

func usagePercent(u model.Usage) float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Total) * 100
}

// queryPrefix collapses whitespace and truncates to the fixed prefix length
// used for N+1 shape comparison. Lengths count runes, never bytes, so a
// multi-byte character at the boundary is kept whole.
func queryPrefix(query string) string {
	return truncateRunes(strings.Join(strings.Fields(query), " "), queryPrefixLen)
}

func truncateQuery(query string) string {
	if utf8.RuneCountInString(query) > slowestQueryChars {
		return truncateRunes(query, slowestQueryChars) + "..."
	}
	return query
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
