package model

// NodeKind identifies what produced a call-tree node or timeline event.
type NodeKind string

const (
	KindMethod   NodeKind = "method"
	KindCodeUnit NodeKind = "code_unit"
	KindSoql     NodeKind = "soql"
	KindDml      NodeKind = "dml"
)

// MethodNode is one hierarchical scope reconstructed from an entry/exit pair.
// ParentID is a weak back-reference (-1 for roots) resolved through the owning
// ParsedLog; the tree itself is owned top-down via Children.
type MethodNode struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	StartTime int64         `json:"start_time"` // ns offset from trace start
	EndTime   int64         `json:"end_time"`
	Duration  int64         `json:"duration"`
	Kind      NodeKind      `json:"kind"`
	Depth     int           `json:"depth"`
	ParentID  int           `json:"parent_id"`
	Children  []*MethodNode `json:"children,omitempty"`
}

// TimelineEvent is the flattened, closed-record view of a node or operation.
// Events are appended in the order things close; consumers sort by StartTime
// for chronological display.
type TimelineEvent struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	StartTime int64    `json:"start_time"`
	EndTime   int64    `json:"end_time"`
	Duration  int64    `json:"duration"`
	Kind      NodeKind `json:"kind"`
	Depth     int      `json:"depth"`
	Details   string   `json:"details,omitempty"`
}
