// Package tools implements the Tool Registry and Tool contract (§4.2):
// name/alias→tool lookup with lazy construction, and the uniform
// execute(params) -> ToolResult surface every retrieval/analysis tool obeys.
package tools

import (
	"context"
	"time"

	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/pkg/kv"
)

// Params is the free-form parameter map a planned action carries, produced
// by the model's tool_params object.
type Params = kv.KSVA

// Result is the uniform outcome of executing a tool. Tools must never raise;
// every failure is encoded here.
type Result struct {
	Success         bool
	Documents       []*document.Document
	Error           string
	Metadata        map[string]any
	ExecutionTimeMS float64
}

// Failure builds a failed Result carrying err's message.
func Failure(err error) Result {
	return Result{Success: false, Error: err.Error(), Metadata: map[string]any{}}
}

// Success builds a successful Result over the given documents.
func Success(docs []*document.Document, meta map[string]any) Result {
	if meta == nil {
		meta = map[string]any{}
	}
	return Result{Success: true, Documents: docs, Metadata: meta}
}

// Tool is obeyed by every registered retrieval/analysis tool.
type Tool interface {
	// Name is the tool's unique registry key.
	Name() string
	// Execute runs the tool against params and never returns a Go error;
	// all failure is encoded in Result.
	Execute(ctx context.Context, params Params) Result
}

// timed runs fn and stamps the elapsed wall time onto the Result it returns.
func timed(fn func() Result) Result {
	start := time.Now()
	res := fn()
	res.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
	return res
}
