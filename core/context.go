// Package core defines the composable workflow primitive: the uniform
// execution contract, the composition algebra (sequential, parallel,
// conditional, router, lambda), and the per-execution context threaded
// through every primitive in a composition.
package core

import (
	"maps"
	"strings"

	"github.com/google/uuid"
)

// WorkflowContext carries identity and caller-supplied scoping keys through
// a composition tree without introducing shared mutable state. Instances are
// shared by reference across a tree but are treated as immutable after
// construction; additive extension returns a new instance.
type WorkflowContext struct {
	correlationID string
	workflowID    string
	metadata      map[string]any
}

// NewWorkflowContext constructs a WorkflowContext. correlationID is generated
// via uuid when empty. metadata may be nil.
func NewWorkflowContext(correlationID, workflowID string, metadata map[string]any) (*WorkflowContext, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if strings.TrimSpace(correlationID) == "" {
		return nil, &InvalidContextError{Reason: "correlation_id must not be blank"}
	}

	return &WorkflowContext{
		correlationID: correlationID,
		workflowID:    workflowID,
		metadata:      cloneMetadata(metadata),
	}, nil
}

// CorrelationID returns the opaque identifier that ties together every span,
// metric, and log entry produced during this execution.
func (c *WorkflowContext) CorrelationID() string { return c.correlationID }

// WorkflowID returns the optional stable identifier for the composition being
// run, used for grouping telemetry. Empty when not supplied at construction.
func (c *WorkflowContext) WorkflowID() string { return c.workflowID }

// Metadata returns a copy of the open mapping carried by this context. The
// copy prevents callers from mutating the context's internal state.
func (c *WorkflowContext) Metadata() map[string]any {
	return cloneMetadata(c.metadata)
}

// Get returns a single metadata value and whether it was present.
func (c *WorkflowContext) Get(key string) (any, bool) {
	v, ok := c.metadata[key]
	return v, ok
}

// With returns a new WorkflowContext sharing correlationID and workflowID but
// with a union metadata mapping: keys in extra override keys already present.
// Extending with an empty map returns a context observationally equivalent to
// the original.
func (c *WorkflowContext) With(extra map[string]any) *WorkflowContext {
	merged := cloneMetadata(c.metadata)
	maps.Copy(merged, extra)
	return &WorkflowContext{
		correlationID: c.correlationID,
		workflowID:    c.workflowID,
		metadata:      merged,
	}
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
