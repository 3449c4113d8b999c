// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-invocation R2 (event stream);
//
//	prd006-node-driver R3 (run results).
package types

// Event is one item in a node's ordered output stream. Chunk events
// are emitted as fragments become available; exactly one terminal
// event (CompletedEvent inside the handler, RunCompletedEvent at the
// node boundary) closes the stream.
type Event interface {
	event()
}

// StreamChunkEvent carries one visible text fragment tagged with the
// output-variable selector it belongs to.
type StreamChunkEvent struct {
	Selector []string // Stable output selector, e.g. [node_id, "text"]
	Chunk    string
	Final    bool // True for the empty fragment that closes the stream
}

func (StreamChunkEvent) event() {}

// CompletedEvent is the normalized completion of one model invocation.
type CompletedEvent struct {
	Text             string // Visible answer (tagged or separated per reasoning format)
	ReasoningContent string
	Usage            LLMUsage
	FinishReason     string
	StructuredOutput map[string]any
}

func (CompletedEvent) event() {}

// ErrorEvent surfaces a failure raised while the stream was draining.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) event() {}

// RunStatus is the terminal status of a node run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// NodeRunResult is the terminal record of one node run. On failure it
// preserves whatever inputs and process data had been computed before
// the error, for debugging.
type NodeRunResult struct {
	Status      RunStatus
	Error       string
	ErrorType   string
	Inputs      map[string]any
	ProcessData map[string]any
	Outputs     map[string]any
	Usage       LLMUsage
}

// RunCompletedEvent terminates a node run's event stream.
type RunCompletedEvent struct {
	Result NodeRunResult
}

func (RunCompletedEvent) event() {}
