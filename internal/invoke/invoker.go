// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package invoke drives one model invocation: it consumes a blocking
// result or a chunk stream and reconstructs the normalized completion
// while streaming fragments to the caller.
// Implements: prd005-invocation R1-R6.
package invoke

import (
	"context"
	"errors"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// ErrInvoke wraps failures raised while an invocation's stream was
// being processed, so callers see one error taxonomy regardless of
// where in the pipeline the failure originated.
var ErrInvoke = errors.New("llm invocation failed")

// InvokeRequest is the provider-facing invocation request.
type InvokeRequest struct {
	PromptMessages []types.PromptMessage
	Parameters     map[string]any
	Stop           []string
	Stream         bool
	User           string
}

// InvokeResult is either a single blocking result or a chunk stream;
// exactly one field is set.
type InvokeResult struct {
	Result *types.LLMResult
	Stream <-chan types.LLMResultChunk
}

// ModelInvoker is the model-provider boundary.
type ModelInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}
