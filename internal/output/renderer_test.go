package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

func sampleParsed() *model.ParsedLog {
	child := &model.MethodNode{
		ID: 1, Name: "AccountService.validate(Account)",
		StartTime: 10, EndTime: 90, Duration: 80,
		Kind: model.KindMethod, Depth: 1, ParentID: 0,
	}
	root := &model.MethodNode{
		ID: 0, Name: "MyTrigger on Account",
		StartTime: 0, EndTime: 100, Duration: 100,
		Kind: model.KindCodeUnit, ParentID: -1,
		Children: []*model.MethodNode{child},
	}
	return &model.ParsedLog{
		Roots: []*model.MethodNode{root},
		Timeline: []model.TimelineEvent{
			{ID: 1, Name: child.Name, StartTime: 10, EndTime: 90, Duration: 80, Kind: model.KindMethod, Depth: 1},
			{ID: 2, Name: "SELECT Id FROM Account", StartTime: 20, EndTime: 60, Duration: 40, Kind: model.KindSoql, Depth: 2, Details: "Rows: 3"},
			{ID: 0, Name: root.Name, StartTime: 0, EndTime: 100, Duration: 100, Kind: model.KindCodeUnit},
		},
		Queries: []model.SoqlQuery{
			{Query: "SELECT Id FROM Account", StartTime: 20, EndTime: 60, Duration: 40, Rows: 3, Completed: true},
		},
		DmlOps: []model.DmlOperation{
			{Operation: "Insert", StartTime: 70, EndTime: 80, Duration: 10, Rows: 2, Completed: true},
		},
		Limits: map[model.LimitCategory]model.Usage{
			model.LimitSoqlQueries: {Used: 1, Total: 100},
		},
	}
}

func TestTextRendererTree(t *testing.T) {
	var buf bytes.Buffer
	r := &TextRenderer{w: &buf}

	err := r.Render(Report{Path: "/tmp/trace.log", Parsed: sampleParsed()})
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"/tmp/trace.log",
		"Call Tree",
		"MyTrigger on Account",
		"AccountService.validate(Account)",
		"SOQL Queries (1)",
		"SELECT Id FROM Account",
		"DML Operations (1)",
		"Insert",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Timeline") {
		t.Error("tree mode must not render the timeline section")
	}
}

func TestTextRendererTimeline(t *testing.T) {
	var buf bytes.Buffer
	r := &TextRenderer{w: &buf}

	err := r.Render(Report{Parsed: sampleParsed(), Timeline: true})
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "Timeline") {
		t.Fatalf("expected timeline section\n%s", out)
	}
	// Events come out start-time ordered regardless of close order.
	unitAt := strings.Index(out, "MyTrigger on Account")
	methodAt := strings.Index(out, "AccountService.validate")
	soqlAt := strings.Index(out, "SELECT Id FROM Account")
	if unitAt == -1 || methodAt == -1 || soqlAt == -1 {
		t.Fatalf("missing timeline entries\n%s", out)
	}
	if !(unitAt < methodAt && methodAt < soqlAt) {
		t.Errorf("timeline not in chronological order\n%s", out)
	}
	if !strings.Contains(out, "Rows: 3") {
		t.Errorf("expected operation details in timeline\n%s", out)
	}
}

func TestTextRendererInsightsAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	r := &TextRenderer{w: &buf}

	pct := 85.0
	err := r.Render(Report{
		Insights: []model.Insight{
			{Kind: model.InsightError, Title: "Approaching Query Limit", Description: "Used 85 of 100 SOQL queries.", Severity: model.SeverityHigh},
		},
		Metrics: &model.Metrics{
			TotalSoqlTime: 40,
			Limits: map[model.LimitCategory]model.LimitMetric{
				model.LimitSoqlQueries: {Used: 85, Total: 100, Percentage: &pct},
			},
			SlowestSoql: &model.SlowQuery{Query: "SELECT Id FROM Account", Duration: 40, Rows: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Insights",
		"Approaching Query Limit",
		"Metrics",
		"soql_queries",
		"85/100",
		"85.0%",
		"slowest query",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestTextRendererEmptyParse(t *testing.T) {
	var buf bytes.Buffer
	r := &TextRenderer{w: &buf}

	err := r.Render(Report{Parsed: &model.ParsedLog{}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no hierarchical scopes") {
		t.Errorf("expected empty-tree placeholder\n%s", buf.String())
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	r := &JSONRenderer{enc: enc}

	if err := r.Render(Report{Path: "/tmp/trace.log", Parsed: sampleParsed()}); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Path   string `json:"path"`
		Parsed struct {
			Roots []struct {
				Name     string `json:"name"`
				Children []struct {
					Name string `json:"name"`
				} `json:"children,omitempty"`
			} `json:"roots"`
			Queries []struct {
				Query string `json:"query"`
				Rows  int64  `json:"rows"`
			} `json:"queries"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if decoded.Path != "/tmp/trace.log" {
		t.Errorf("unexpected path %q", decoded.Path)
	}
	if len(decoded.Parsed.Roots) != 1 || decoded.Parsed.Roots[0].Name != "MyTrigger on Account" {
		t.Errorf("unexpected roots: %+v", decoded.Parsed.Roots)
	}
	if len(decoded.Parsed.Queries) != 1 || decoded.Parsed.Queries[0].Rows != 3 {
		t.Errorf("unexpected queries: %+v", decoded.Parsed.Queries)
	}
}
