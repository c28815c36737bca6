package hub

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

var sampleTrace = strings.Join([]string{
	"06:09:12.0 (100)|METHOD_ENTRY|[1]|01p000|Foo.bar",
	"06:09:12.0 (150)|SOQL_EXECUTE_BEGIN|[5]|SELECT Id FROM Account",
	"06:09:12.0 (200)|SOQL_EXECUTE_END|[5]|Rows:3",
	"06:09:12.0 (250)|METHOD_EXIT|[1]|01p000|Foo.bar",
	"Number of SOQL queries: 1 out of 100",
}, "\n")

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.RawLog, 1)
	h := New(input)

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- model.RawLog{Path: "/tmp/trace.log", Text: sampleTrace}

	for i, sub := range []<-chan model.AnalysisResult{sub1, sub2} {
		select {
		case res := <-sub:
			if res.Path != "/tmp/trace.log" {
				t.Errorf("subscriber %d: unexpected path %q", i, res.Path)
			}
			if res.Err != "" {
				t.Errorf("subscriber %d: unexpected error %q", i, res.Err)
			}
			if res.RootCount != 1 || res.QueryCount != 1 {
				t.Errorf("subscriber %d: unexpected counts %+v", i, res)
			}
			if res.EventCount != 2 {
				t.Errorf("subscriber %d: expected 2 timeline events, got %d", i, res.EventCount)
			}
			if len(res.Insights) == 0 {
				t.Errorf("subscriber %d: expected at least the fallback insight", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d: timeout waiting for result", i)
		}
	}
}

func TestHubParseFailureBecomesResult(t *testing.T) {
	input := make(chan model.RawLog, 1)
	h := New(input)
	sub := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- model.RawLog{Path: "/tmp/bad.log", Text: "garbage\x00binary"}

	select {
	case res := <-sub:
		if res.Err == "" {
			t.Error("expected a parse error on the result")
		}
		if res.RootCount != 0 || len(res.Insights) != 0 {
			t.Errorf("failed parse must carry no analysis payload: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	input := make(chan model.RawLog)
	h := New(input)
	h.Subscribe() // never drained

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	// Overfill the subscriber buffer by one.
	for i := 0; i <= subscriberBuffer; i++ {
		input <- model.RawLog{Path: "/tmp/trace.log", Text: sampleTrace}
	}
	close(input)

	deadline := time.Now().Add(2 * time.Second)
	for h.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Dropped() == 0 {
		t.Error("expected at least one dropped result")
	}
}

func TestHubClosesSubscribersOnCancel(t *testing.T) {
	input := make(chan model.RawLog)
	h := New(input)
	sub := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on cancel")
	}

	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed")
	}
}
