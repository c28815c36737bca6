package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

// Report bundles everything a renderer can show for one trace. Nil/empty
// sections are skipped, so the same renderer serves `parse` and `analyze`.
type Report struct {
	Path     string          `json:"path,omitempty"`
	Parsed   *model.ParsedLog `json:"parsed,omitempty"`
	Insights []model.Insight `json:"insights,omitempty"`
	Metrics  *model.Metrics  `json:"metrics,omitempty"`
	Timeline bool            `json:"-"` // render the flattened timeline instead of the tree
}

// Renderer writes a Report to an output stream.
type Renderer interface {
	Render(rep Report) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))  // cyan
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleDuration = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleSuccess  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))             // green
	styleSoql     = lipgloss.NewStyle().Foreground(lipgloss.Color("135"))            // purple
	styleDml      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))            // orange
)

// TextRenderer prints a report to the terminal with severity-based colors.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

func (r *TextRenderer) Render(rep Report) error {
	var b strings.Builder

	if rep.Path != "" {
		b.WriteString(styleHeader.Render(rep.Path) + "\n\n")
	}

	if rep.Parsed != nil {
		if rep.Timeline {
			renderTimeline(&b, rep.Parsed)
		} else {
			renderTree(&b, rep.Parsed)
		}
		renderOperations(&b, rep.Parsed)
	}

	if len(rep.Insights) > 0 {
		renderInsights(&b, rep.Insights)
	}

	if rep.Metrics != nil {
		renderMetrics(&b, rep.Metrics)
	}

	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func renderTree(b *strings.Builder, parsed *model.ParsedLog) {
	b.WriteString(styleHeader.Render("Call Tree") + "\n")
	if len(parsed.Roots) == 0 {
		b.WriteString(styleDim.Render("  (no hierarchical scopes found)") + "\n\n")
		return
	}
	for _, root := range parsed.Roots {
		renderNode(b, root)
	}
	b.WriteString("\n")
}

func renderNode(b *strings.Builder, node *model.MethodNode) {
	indent := strings.Repeat("  ", node.Depth+1)
	tag := kindTag(node.Kind)
	fmt.Fprintf(b, "%s%s %s %s\n",
		indent, tag, node.Name,
		styleDuration.Render(model.FormatDuration(node.Duration)))
	for _, child := range node.Children {
		renderNode(b, child)
	}
}

// renderTimeline prints closed events in chronological order. The parser
// emits them in close order, so sort by start time here.
func renderTimeline(b *strings.Builder, parsed *model.ParsedLog) {
	b.WriteString(styleHeader.Render("Timeline") + "\n")

	events := make([]model.TimelineEvent, len(parsed.Timeline))
	copy(events, parsed.Timeline)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime < events[j].StartTime
	})

	for _, ev := range events {
		details := ""
		if ev.Details != "" {
			details = " " + styleDim.Render("("+ev.Details+")")
		}
		fmt.Fprintf(b, "  %12d %s %s %s%s\n",
			ev.StartTime, kindTag(ev.Kind), ev.Name,
			styleDuration.Render(model.FormatDuration(ev.Duration)), details)
	}
	b.WriteString("\n")
}

func renderOperations(b *strings.Builder, parsed *model.ParsedLog) {
	if len(parsed.Queries) > 0 {
		b.WriteString(styleHeader.Render(fmt.Sprintf("SOQL Queries (%d)", len(parsed.Queries))) + "\n")
		for i := range parsed.Queries {
			q := &parsed.Queries[i]
			fmt.Fprintf(b, "  %s %s rows=%d\n",
				styleDuration.Render(model.FormatDuration(q.Duration)), q.Query, q.Rows)
		}
		b.WriteString("\n")
	}

	if len(parsed.DmlOps) > 0 {
		b.WriteString(styleHeader.Render(fmt.Sprintf("DML Operations (%d)", len(parsed.DmlOps))) + "\n")
		for i := range parsed.DmlOps {
			op := &parsed.DmlOps[i]
			fmt.Fprintf(b, "  %s %s rows=%d\n",
				styleDuration.Render(model.FormatDuration(op.Duration)), op.Operation, op.Rows)
		}
		b.WriteString("\n")
	}
}

func renderInsights(b *strings.Builder, insights []model.Insight) {
	b.WriteString(styleHeader.Render("Insights") + "\n")
	for _, in := range insights {
		fmt.Fprintf(b, "  %s %s\n", severityTag(in), in.Title)
		fmt.Fprintf(b, "         %s\n", styleDim.Render(in.Description))
	}
	b.WriteString("\n")
}

func renderMetrics(b *strings.Builder, m *model.Metrics) {
	b.WriteString(styleHeader.Render("Metrics") + "\n")
	fmt.Fprintf(b, "  total SOQL time: %s\n", styleDuration.Render(model.FormatDuration(m.TotalSoqlTime)))
	fmt.Fprintf(b, "  total DML time:  %s\n", styleDuration.Render(model.FormatDuration(m.TotalDmlTime)))

	if m.SlowestSoql != nil {
		fmt.Fprintf(b, "  slowest query:   %s %s\n",
			styleDuration.Render(model.FormatDuration(m.SlowestSoql.Duration)), m.SlowestSoql.Query)
	}
	if m.SlowestMethod != nil {
		fmt.Fprintf(b, "  slowest method:  %s %s\n",
			styleDuration.Render(model.FormatDuration(m.SlowestMethod.Duration)), m.SlowestMethod.Name)
	}

	// Stable order for limit lines.
	cats := make([]string, 0, len(m.Limits))
	for cat := range m.Limits {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	for _, cat := range cats {
		lm := m.Limits[model.LimitCategory(cat)]
		pct := styleDim.Render("n/a")
		if lm.Percentage != nil {
			pct = fmt.Sprintf("%.1f%%", *lm.Percentage)
			if *lm.Percentage > 80 {
				pct = styleHigh.Render(pct)
			} else if *lm.Percentage > 50 {
				pct = styleMedium.Render(pct)
			}
		}
		fmt.Fprintf(b, "  %-15s %d/%d %s\n", cat, lm.Used, lm.Total, pct)
	}
	b.WriteString("\n")
}

func kindTag(kind model.NodeKind) string {
	switch kind {
	case model.KindCodeUnit:
		return styleHeader.Render("[UNIT]")
	case model.KindSoql:
		return styleSoql.Render("[SOQL]")
	case model.KindDml:
		return styleDml.Render("[DML ]")
	default:
		return styleDim.Render("[METH]")
	}
}

func severityTag(in model.Insight) string {
	padded := fmt.Sprintf("%-6s", strings.ToUpper(string(in.Severity)))
	switch {
	case in.Kind == model.InsightSuccess:
		return styleSuccess.Render(padded)
	case in.Severity == model.SeverityHigh:
		return styleHigh.Render(padded)
	case in.Severity == model.SeverityMedium:
		return styleMedium.Render(padded)
	default:
		return styleLow.Render(padded)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints the full report as one JSON document.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes indented JSON to stdout.
func NewJSONRenderer() *JSONRenderer {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(rep Report) error {
	return r.enc.Encode(rep)
}
