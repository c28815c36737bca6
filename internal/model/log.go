package model

import "time"

// SoqlQuery is a non-hierarchical query record. The parser keeps at most one
// query pending (Completed == false) at a time; the debug log format does not
// interleave SOQL begin/end pairs within one execution context.
type SoqlQuery struct {
	Query        string `json:"query"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time,omitempty"`
	Duration     int64  `json:"duration,omitempty"`
	Rows         int64  `json:"rows,omitempty"`
	Aggregations int64  `json:"aggregations,omitempty"`
	Completed    bool   `json:"completed"`
}

// DmlOperation is a non-hierarchical DML record, single-slot pending like SoqlQuery.
type DmlOperation struct {
	Operation string `json:"operation"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time,omitempty"`
	Duration  int64  `json:"duration,omitempty"`
	Rows      int64  `json:"rows,omitempty"`
	Completed bool   `json:"completed"`
}

// LimitCategory is the closed set of governor limit categories reported in
// debug log summary lines.
type LimitCategory string

const (
	LimitSoqlQueries   LimitCategory = "soql_queries"
	LimitQueryRows     LimitCategory = "query_rows"
	LimitCpuTime       LimitCategory = "cpu_time"
	LimitHeapSize      LimitCategory = "heap_size"
	LimitDmlStatements LimitCategory = "dml_statements"
	LimitDmlRows       LimitCategory = "dml_rows"
)

// Usage is consumption against a governor limit.
type Usage struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// ParsedLog is the full structured result of parsing one debug log.
// Limits only contains categories whose summary line appeared in the trace.
type ParsedLog struct {
	Roots    []*MethodNode           `json:"roots"`
	Timeline []TimelineEvent         `json:"timeline"`
	Queries  []SoqlQuery             `json:"queries"`
	DmlOps   []DmlOperation          `json:"dml_ops"`
	Limits   map[LimitCategory]Usage `json:"limits"`
}

// Node resolves a node ID to its tree node, or nil. This is how ParentID
// back-references are followed; children never hold pointers upward.
func (p *ParsedLog) Node(id int) *MethodNode {
	var find func(nodes []*MethodNode) *MethodNode
	find = func(nodes []*MethodNode) *MethodNode {
		for _, n := range nodes {
			if n.ID == id {
				return n
			}
			if found := find(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(p.Roots)
}

// RawLog is an unparsed trace document picked up by the monitor.
type RawLog struct {
	Path string
	Text string
}

// AnalysisResult is what the hub broadcasts after parsing and analyzing a trace.
type AnalysisResult struct {
	Path       string    `json:"path"`
	ParsedAt   time.Time `json:"parsed_at"`
	Insights   []Insight `json:"insights"`
	Metrics    Metrics   `json:"metrics"`
	RootCount  int       `json:"root_count"`
	EventCount int       `json:"event_count"`
	QueryCount int       `json:"query_count"`
	DmlCount   int       `json:"dml_count"`
	Err        string    `json:"error,omitempty"`
}
