// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-invocation R2 (streaming path), R3 (blocking
//
//	path), R4 (metrics), R5 (usage fallback).
package invoke

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/petar-djukic/llm-node/internal/output"
	"github.com/petar-djukic/llm-node/internal/splitter"
	"github.com/petar-djukic/llm-node/pkg/types"
)

// Options configures result handling for one invocation.
type Options struct {
	NodeID          string
	ReasoningFormat string // "tagged" (default) or "separated"
	Saver           *output.Saver
	RequestStart    time.Time // Zero means latency cannot be attributed
	Logger          *slog.Logger
}

// Handle consumes an invocation result and returns its ordered event
// stream: zero or more chunk events, then exactly one CompletedEvent
// (or an ErrorEvent on mid-stream failure). The channel is closed once
// the terminal event is delivered. Single-pass, never restartable;
// abandoning the channel stops processing at the next send.
func Handle(ctx context.Context, result *InvokeResult, opts Options) <-chan types.Event {
	events := make(chan types.Event, 16)
	go func() {
		defer close(events)
		if result.Result != nil {
			handleBlocking(ctx, result.Result, opts, events)
			return
		}
		handleStream(ctx, result.Stream, opts, events)
	}()
	return events
}

// handleBlocking processes a single complete result: the reasoning
// split happens post hoc since the whole text is already available.
func handleBlocking(ctx context.Context, result *types.LLMResult, opts Options, events chan<- types.Event) {
	var buf strings.Builder
	if err := opts.Saver.Write(result.Message, func(part string) { buf.WriteString(part) }); err != nil {
		send(ctx, events, types.ErrorEvent{Err: fmt.Errorf("%w: %v", ErrInvoke, err)})
		return
	}

	fullText := buf.String()
	text, reasoning := applyReasoningFormat(fullText, opts.ReasoningFormat)

	usage := result.Usage
	if !opts.RequestStart.IsZero() {
		usage.Latency = round3(time.Since(opts.RequestStart).Seconds())
	}

	send(ctx, events, types.CompletedEvent{
		Text:             text,
		ReasoningContent: reasoning,
		Usage:            usage,
		StructuredOutput: result.StructuredOutput,
	})
}

// handleStream drains the chunk stream, emitting each fragment as a
// chunk event while accumulating the full text and metadata.
//
// Model, prompt-message echo, usage, and finish reason are captured
// first-wins: providers typically populate each once, and a provider
// reporting running token counts per chunk would only have its first
// partial figure recorded.
func handleStream(ctx context.Context, stream <-chan types.LLMResultChunk, opts Options, events chan<- types.Event) {
	model := ""
	var promptMessages []types.PromptMessage
	usage := types.EmptyUsage()
	usageSeen := false
	finishReason := ""
	var structured map[string]any
	var full strings.Builder

	start := opts.RequestStart
	if start.IsZero() {
		start = time.Now()
	}
	var firstToken time.Time
	hasContent := false

	for chunk := range stream {
		var sendErr bool
		err := opts.Saver.Write(chunk.Delta.Message, func(part string) {
			if part != "" && !hasContent {
				firstToken = time.Now()
				hasContent = true
			}
			full.WriteString(part)
			if !send(ctx, events, types.StreamChunkEvent{
				Selector: []string{opts.NodeID, "text"},
				Chunk:    part,
			}) {
				sendErr = true
			}
		})
		if err != nil {
			send(ctx, events, types.ErrorEvent{Err: fmt.Errorf("%w: %v", ErrInvoke, err)})
			return
		}
		if sendErr {
			return
		}

		if model == "" && chunk.Model != "" {
			model = chunk.Model
		}
		if len(promptMessages) == 0 && len(chunk.PromptMessages) > 0 {
			promptMessages = chunk.PromptMessages
		}
		if !usageSeen && chunk.Delta.Usage != nil {
			usage = *chunk.Delta.Usage
			usageSeen = true
		}
		if finishReason == "" && chunk.Delta.FinishReason != "" {
			finishReason = chunk.Delta.FinishReason
		}
		if chunk.StructuredOutput != nil {
			structured = chunk.StructuredOutput
		}
	}

	end := time.Now()
	usage.Latency = round3(end.Sub(start).Seconds())
	if hasContent {
		usage.TimeToFirstToken = round3(firstToken.Sub(start).Seconds())
		usage.TimeToGenerate = round3(end.Sub(firstToken).Seconds())
	}

	if opts.Logger != nil {
		opts.Logger.Debug("stream drained",
			"model", model,
			"prompt_messages", len(promptMessages),
			"finish_reason", finishReason,
			"total_tokens", usage.TotalTokens)
	}

	fullText := full.String()
	text, reasoning := applyReasoningFormat(fullText, opts.ReasoningFormat)

	send(ctx, events, types.CompletedEvent{
		Text:             text,
		ReasoningContent: reasoning,
		Usage:            usage,
		FinishReason:     finishReason,
		StructuredOutput: structured,
	})
}

// applyReasoningFormat splits reasoning from the answer identically on
// the blocking and streaming paths. Tagged mode keeps the markup in
// the text and reports no separate reasoning.
func applyReasoningFormat(fullText, reasoningFormat string) (text, reasoning string) {
	clean, reasoning := splitter.SplitReasoning(fullText, reasoningFormat)
	if reasoningFormat == "separated" {
		return clean, reasoning
	}
	return fullText, ""
}

// send delivers an event unless the context is cancelled.
func send(ctx context.Context, events chan<- types.Event, event types.Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func round3(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
