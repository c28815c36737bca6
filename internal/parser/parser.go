// Package parser converts raw Apex debug log text into a structured
// ParsedLog: a nested call tree, a flattened timeline, SOQL/DML records and
// governor limit usage. Parsing is a single forward pass with an explicit
// open-node stack; malformed lines never abort the pass.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

// ParseError is the only hard failure: input that cannot be treated as a
// line-oriented text trace at all. Every line-level anomaly is recovered
// locally with defaults instead.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "unparseable debug log: " + e.Reason
}

// lineKind is the closed set of line classifications. Markers are checked in
// a fixed priority order; the first match wins.
type lineKind int

const (
	lineUnknown lineKind = iota
	lineMethodEntry
	lineMethodExit
	lineCodeUnitStarted
	lineCodeUnitFinished
	lineSoqlBegin
	lineSoqlEnd
	lineDmlBegin
	lineDmlEnd
	lineLimit
)

const (
	unknownName      = "Unknown"
	unknownQuery     = "Unknown Query"
	unknownOperation = "Unknown Operation"
)

var (
	// First parenthesized integer on a line is its ns offset from trace start.
	reOffset = regexp.MustCompile(`\((\d+)\)`)
	// Trailing method/constructor signature, e.g. |AccountService.applyDiscount(Id, Decimal)
	reSignature = regexp.MustCompile(`\|([A-Za-z0-9_$]+(?:\.[A-Za-z0-9_$<>]+)*\([^)|]*\))\s*$`)
	// Query text anchored on the SELECT keyword.
	reSoqlText = regexp.MustCompile(`(?i)(SELECT\s.+)$`)
	// DML operation label, e.g. Op:Insert
	reDmlOp = regexp.MustCompile(`Op:([A-Za-z]+)`)
	// "<used> out of <total>" tail of a limit summary line.
	reLimitPair = regexp.MustCompile(`(\d+)\s+out of\s+(\d+)`)
)

// limitPrefixes maps the fixed summary line labels to limit categories.
var limitPrefixes = []struct {
	prefix   string
	category model.LimitCategory
}{
	{"Number of SOQL queries", model.LimitSoqlQueries},
	{"Number of query rows", model.LimitQueryRows},
	{"Maximum CPU time", model.LimitCpuTime},
	{"Maximum heap size", model.LimitHeapSize},
	{"Number of DML statements", model.LimitDmlStatements},
	{"Number of DML rows", model.LimitDmlRows},
}

// run holds the state of one Parse invocation. Node IDs come from a counter
// owned by the run, so concurrent Parse calls are fully independent.
type run struct {
	log      *model.ParsedLog
	stack    []*model.MethodNode
	nextID   int
	lastSeen int64 // most recent offset observed on any line
}

// Parse converts raw debug log text into a ParsedLog. It fails only when the
// input cannot be decoded as text; unrecognized or garbled lines are inert.
func Parse(text string) (*model.ParsedLog, error) {
	if strings.ContainsRune(text, 0) {
		return nil, &ParseError{Reason: "binary content (NUL byte)"}
	}
	if !utf8.ValidString(text) {
		return nil, &ParseError{Reason: "invalid UTF-8"}
	}

	r := &run{
		log: &model.ParsedLog{
			Limits: make(map[model.LimitCategory]model.Usage),
		},
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.consume(line)
	}

	r.finish()
	return r.log, nil
}

func (r *run) consume(line string) {
	offset, hasOffset := extractOffset(line)
	if hasOffset {
		r.lastSeen = offset
	}

	kind, category := classify(line)
	switch kind {
	case lineMethodEntry:
		r.openNode(line, offset, model.KindMethod)
	case lineCodeUnitStarted:
		r.openNode(line, offset, model.KindCodeUnit)
	case lineMethodExit, lineCodeUnitFinished:
		r.closeNode(offset)
	case lineSoqlBegin:
		r.beginSoql(line, offset)
	case lineSoqlEnd:
		r.endSoql(line, offset)
	case lineDmlBegin:
		r.beginDml(line, offset)
	case lineDmlEnd:
		r.endDml(line, offset)
	case lineLimit:
		r.recordLimit(line, category)
	case lineUnknown:
		// Inert line; permissive parsing keeps going.
	}
}

// classify maps a line onto the closed lineKind set. The marker order is the
// classification priority.
func classify(line string) (lineKind, model.LimitCategory) {
	switch {
	case strings.Contains(line, "METHOD_ENTRY"):
		return lineMethodEntry, ""
	case strings.Contains(line, "METHOD_EXIT"):
		return lineMethodExit, ""
	case strings.Contains(line, "CODE_UNIT_STARTED"):
		return lineCodeUnitStarted, ""
	case strings.Contains(line, "CODE_UNIT_FINISHED"):
		return lineCodeUnitFinished, ""
	case strings.Contains(line, "SOQL_EXECUTE_BEGIN"):
		return lineSoqlBegin, ""
	case strings.Contains(line, "SOQL_EXECUTE_END"):
		return lineSoqlEnd, ""
	case strings.Contains(line, "DML_BEGIN"):
		return lineDmlBegin, ""
	case strings.Contains(line, "DML_END"):
		return lineDmlEnd, ""
	}

	trimmed := strings.TrimSpace(line)
	for _, lp := range limitPrefixes {
		if strings.HasPrefix(trimmed, lp.prefix+":") {
			return lineLimit, lp.category
		}
	}

	return lineUnknown, ""
}

// extractOffset returns the first parenthesized integer on the line. Lines
// without one default to offset 0.
func extractOffset(line string) (int64, bool) {
	m := reOffset.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *run) openNode(line string, offset int64, kind model.NodeKind) {
	node := &model.MethodNode{
		ID:        r.nextID,
		Name:      extractName(line),
		StartTime: offset,
		Kind:      kind,
		Depth:     len(r.stack),
		ParentID:  -1,
	}
	r.nextID++

	if n := len(r.stack); n > 0 {
		top := r.stack[n-1]
		node.ParentID = top.ID
		top.Children = append(top.Children, node)
	} else {
		r.log.Roots = append(r.log.Roots, node)
	}
	r.stack = append(r.stack, node)
}

// closeNode pops the current scope. An exit with nothing open is a no-op so
// truncated or garbled traces still parse.
func (r *run) closeNode(offset int64) {
	n := len(r.stack)
	if n == 0 {
		return
	}
	node := r.stack[n-1]
	r.stack = r.stack[:n-1]

	if offset < node.StartTime {
		// Non-monotonic offsets only show up in garbled traces.
		offset = node.StartTime
	}
	node.EndTime = offset
	node.Duration = offset - node.StartTime
	r.emitNode(node)
}

func (r *run) beginSoql(line string, offset int64) {
	r.log.Queries = append(r.log.Queries, model.SoqlQuery{
		Query:        extractQuery(line),
		StartTime:    offset,
		Aggregations: scanCount(line, "Aggregations:"),
	})
}

// endSoql closes the most recently opened query. An end with no pending
// query is a no-op; the format never overlaps queries within one context.
func (r *run) endSoql(line string, offset int64) {
	n := len(r.log.Queries)
	if n == 0 {
		return
	}
	q := &r.log.Queries[n-1]
	if q.Completed {
		return
	}
	if offset < q.StartTime {
		offset = q.StartTime
	}
	q.EndTime = offset
	q.Duration = offset - q.StartTime
	q.Rows = scanCount(line, "Rows:")
	q.Completed = true

	r.emitOperation(q.Query, q.StartTime, offset, model.KindSoql, fmt.Sprintf("Rows: %d", q.Rows))
}

func (r *run) beginDml(line string, offset int64) {
	r.log.DmlOps = append(r.log.DmlOps, model.DmlOperation{
		Operation: extractOperation(line),
		StartTime: offset,
	})
}

func (r *run) endDml(line string, offset int64) {
	n := len(r.log.DmlOps)
	if n == 0 {
		return
	}
	op := &r.log.DmlOps[n-1]
	if op.Completed {
		return
	}
	if offset < op.StartTime {
		offset = op.StartTime
	}
	op.EndTime = offset
	op.Duration = offset - op.StartTime
	op.Rows = scanCount(line, "Rows:")
	op.Completed = true

	r.emitOperation(op.Operation, op.StartTime, offset, model.KindDml, fmt.Sprintf("Rows: %d", op.Rows))
}

// recordLimit parses "<label>: <used> out of <total>". Traces may repeat the
// summary block; the last occurrence wins.
func (r *run) recordLimit(line string, category model.LimitCategory) {
	m := reLimitPair.FindStringSubmatch(line)
	if m == nil {
		return
	}
	used, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return
	}
	total, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return
	}
	r.log.Limits[category] = model.Usage{Used: used, Total: total}
}

// finish force-closes everything still open at end of input, innermost first,
// using the last observed offset. The returned tree never has an open node.
func (r *run) finish() {
	for n := len(r.stack); n > 0; n = len(r.stack) {
		node := r.stack[n-1]
		r.stack = r.stack[:n-1]

		end := r.lastSeen
		if end < node.StartTime {
			end = node.StartTime
		}
		node.EndTime = end
		node.Duration = end - node.StartTime
		r.emitNode(node)
	}
}

func (r *run) emitNode(node *model.MethodNode) {
	r.log.Timeline = append(r.log.Timeline, model.TimelineEvent{
		ID:        node.ID,
		Name:      node.Name,
		StartTime: node.StartTime,
		EndTime:   node.EndTime,
		Duration:  node.Duration,
		Kind:      node.Kind,
		Depth:     node.Depth,
	})
}

// emitOperation appends a timeline event for a non-hierarchical operation.
// Operations share the node ID space so every event ID stays unique.
func (r *run) emitOperation(name string, start, end int64, kind model.NodeKind, details string) {
	r.log.Timeline = append(r.log.Timeline, model.TimelineEvent{
		ID:        r.nextID,
		Name:      name,
		StartTime: start,
		EndTime:   end,
		Duration:  end - start,
		Kind:      kind,
		Depth:     len(r.stack),
		Details:   details,
	})
	r.nextID++
}

// extractName pulls a method or code-unit label out of an entry line: the
// trailing signature if one matches, otherwise the last pipe-delimited field,
// otherwise a fixed placeholder.
func extractName(line string) string {
	if m := reSignature.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if i := strings.LastIndexByte(line, '|'); i != -1 {
		if name := strings.TrimSpace(line[i+1:]); name != "" {
			return name
		}
	}
	return unknownName
}

func extractQuery(line string) string {
	if m := reSoqlText.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	return unknownQuery
}

func extractOperation(line string) string {
	if m := reDmlOp.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if i := strings.LastIndexByte(line, '|'); i != -1 {
		if op := strings.TrimSpace(line[i+1:]); op != "" {
			return op
		}
	}
	return unknownOperation
}

// scanCount reads the unsigned integer immediately following a fixed prefix,
// e.g. "Rows:17". Missing prefix or digits yield 0.
func scanCount(line, prefix string) int64 {
	i := strings.Index(line, prefix)
	if i == -1 {
		return 0
	}
	rest := line[i+len(prefix):]
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0
	}
	v, err := strconv.ParseInt(rest[:j], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
