// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd008-bedrock-provider R2 (streaming), R3 (usage).
package bedrock

import (
	"strings"

	"context"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// EventStream abstracts the Bedrock ConverseStream event stream for
// testing.
type EventStream interface {
	Events() <-chan brtypes.ConverseStreamOutput
	Close() error
	Err() error
}

// consumeStream reads Bedrock events and converts them into generic
// result chunks. Text deltas become message chunks; the trailing
// metadata event becomes an empty chunk carrying usage; the message
// stop event carries the finish reason. The chunk channel is closed
// when the event stream ends or the context is cancelled.
func consumeStream(ctx context.Context, model string, promptMessages []types.PromptMessage, stream EventStream, chunks chan<- types.LLMResultChunk) {
	defer close(chunks)

	first := true
	send := func(chunk types.LLMResultChunk) bool {
		chunk.Model = model
		if first {
			chunk.PromptMessages = promptMessages
			first = false
		}
		select {
		case chunks <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			stream.Close()
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			switch v := event.(type) {
			case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
				if delta, ok := v.Value.Delta.(*brtypes.ContentBlockDeltaMemberText); ok && delta.Value != "" {
					if !send(types.LLMResultChunk{
						Delta: types.LLMResultChunkDelta{
							Message: types.TextMessage(types.RoleAssistant, delta.Value),
						},
					}) {
						stream.Close()
						return
					}
				}

			case *brtypes.ConverseStreamOutputMemberMessageStop:
				if !send(types.LLMResultChunk{
					Delta: types.LLMResultChunkDelta{
						Message:      types.TextMessage(types.RoleAssistant, ""),
						FinishReason: string(v.Value.StopReason),
					},
				}) {
					stream.Close()
					return
				}

			case *brtypes.ConverseStreamOutputMemberMetadata:
				if v.Value.Usage == nil {
					continue
				}
				usage := types.EmptyUsage()
				if v.Value.Usage.InputTokens != nil {
					usage.PromptTokens = int(*v.Value.Usage.InputTokens)
				}
				if v.Value.Usage.OutputTokens != nil {
					usage.CompletionTokens = int(*v.Value.Usage.OutputTokens)
				}
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
				if !send(types.LLMResultChunk{
					Delta: types.LLMResultChunkDelta{
						Message: types.TextMessage(types.RoleAssistant, ""),
						Usage:   &usage,
					},
				}) {
					stream.Close()
					return
				}
			}
		}
	}
}

// drain collapses a chunk stream into one blocking result.
func drain(model string, promptMessages []types.PromptMessage, chunks <-chan types.LLMResultChunk) *types.LLMResult {
	var text strings.Builder
	usage := types.EmptyUsage()

	for chunk := range chunks {
		text.WriteString(chunk.Delta.Message.Content)
		if chunk.Delta.Usage != nil {
			usage = *chunk.Delta.Usage
		}
	}

	return &types.LLMResult{
		Model:          model,
		PromptMessages: promptMessages,
		Message:        types.TextMessage(types.RoleAssistant, text.String()),
		Usage:          usage,
	}
}
