// Package fallback decides, per request, whether the gateway serves a call
// live, degrades it, mocks it or fails it.
package fallback

// Operation is the kind of client request being dispatched
type Operation string

const (
	OperationHistoryRead Operation = "history-read"
	OperationGenerate    Operation = "generate"
	OperationStylesRead  Operation = "styles-read"
	OperationFeedback    Operation = "feedback"
	OperationRefine      Operation = "refine"
	OperationStream      Operation = "generate-stream"
)

// IsRead reports whether the operation only lists existing data
func (o Operation) IsRead() bool {
	return o == OperationHistoryRead || o == OperationStylesRead
}

// Path is the way a request ends up being served
type Path string

const (
	PathLive          Path = "live"
	PathDegradedEmpty Path = "degraded-empty"
	PathMock          Path = "mock"
	PathError         Path = "error"
)

// Policy maps an operation and the current backend health to a path.
// It holds no per-request state; health is supplied by the caller each time.
type Policy struct {
	liveGenerate bool
}

// NewPolicy creates a policy. With liveGenerate false, generate requests are
// always mocked even when the backend is healthy.
func NewPolicy(liveGenerate bool) *Policy {
	return &Policy{liveGenerate: liveGenerate}
}

// Select chooses the initial path for an operation
func (p *Policy) Select(op Operation, healthy bool) Path {
	switch {
	case op == OperationGenerate && !p.liveGenerate:
		return PathMock
	case healthy:
		return PathLive
	case op.IsRead():
		return PathDegradedEmpty
	case op == OperationGenerate:
		return PathMock
	default:
		return PathError
	}
}

// OnLiveFailure chooses the path after a live call failed. Reads degrade to
// an empty success. A generate call the backend answered with a failure
// surfaces it.
//
// A generate call that never reached the backend is mocked. This departs
// from the plain "surface the error for generate" rule on purpose: a
// connection failure after a healthy probe is the same outage an unhealthy
// probe reports a moment earlier, and that case is mocked too. Refine and
// streamed generation have no placeholder form and always fail.
func (p *Policy) OnLiveFailure(op Operation, unreachable bool) Path {
	switch {
	case op.IsRead():
		return PathDegradedEmpty
	case op == OperationGenerate && unreachable:
		return PathMock
	default:
		return PathError
	}
}

// LiveGenerate reports whether generate requests are forwarded when healthy
func (p *Policy) LiveGenerate() bool {
	return p.liveGenerate
}
