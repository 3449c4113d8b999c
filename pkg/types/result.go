// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-invocation R1 (invocation results and chunks).
package types

// LLMResult is a single complete (blocking) invocation result.
type LLMResult struct {
	Model            string
	PromptMessages   []PromptMessage
	Message          PromptMessage // The assistant's response message
	Usage            LLMUsage
	StructuredOutput map[string]any
}

// LLMResultChunkDelta is the incremental portion of one stream chunk.
// Usage and FinishReason are optional; providers typically populate
// them once near the end of the stream.
type LLMResultChunkDelta struct {
	Message      PromptMessage
	Usage        *LLMUsage
	FinishReason string
}

// LLMResultChunk is one streamed delivery from the model provider.
type LLMResultChunk struct {
	Model            string
	PromptMessages   []PromptMessage
	Delta            LLMResultChunkDelta
	StructuredOutput map[string]any
}
