// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// zeroCounter reports zero tokens so budget arithmetic stays out of
// assembly assertions.
type zeroCounter struct{}

func (zeroCounter) CountTokens(messages []types.PromptMessage) int { return 0 }

// recordingMemory returns canned history and records requested limits.
type recordingMemory struct {
	messages      []types.PromptMessage
	text          string
	gotTokenLimit int
}

func (m *recordingMemory) HistoryPromptMessages(maxTokenLimit, messageLimit int) []types.PromptMessage {
	m.gotTokenLimit = maxTokenLimit
	return m.messages
}

func (m *recordingMemory) HistoryPromptText(maxTokenLimit, messageLimit int, humanPrefix, aiPrefix string) string {
	m.gotTokenLimit = maxTokenLimit
	return m.text
}

func chatModel() types.ModelConfigWithCredentials {
	return types.ModelConfigWithCredentials{
		Model: "test-chat",
		Mode:  types.ModeChat,
	}
}

func completionModel() types.ModelConfigWithCredentials {
	return types.ModelConfigWithCredentials{
		Model: "test-completion",
		Mode:  types.ModeCompletion,
	}
}

func TestAssembleSimple_ChatPrePromptAndQuery(t *testing.T) {
	messages, stop, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "You are {{name}}.",
		Inputs:       map[string]any{"name": "Bot"},
		Query:        "Hi",
		ModelConfig:  chatModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	assert.Empty(t, stop)
	require.Len(t, messages, 2)
	assert.Equal(t, types.RoleSystem, messages[0].Role)
	assert.Equal(t, "You are Bot.\n", messages[0].Content)
	assert.Equal(t, types.RoleUser, messages[1].Role)
	assert.Equal(t, "Hi", messages[1].Content)
}

func TestAssembleSimple_ChatWithoutQueryPromotesPrompt(t *testing.T) {
	// With no query there is no separate system message; the rendered
	// pre-prompt itself becomes the user message.
	messages, _, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "Summarize the report.",
		ModelConfig:  chatModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, "Summarize the report.\n", messages[0].Content)
}

func TestAssembleSimple_ChatContextSegment(t *testing.T) {
	messages, _, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "Answer well.",
		Query:        "Q",
		Context:      "the facts",
		ModelConfig:  chatModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Content, "<context>\nthe facts\n</context>")
	assert.Contains(t, messages[0].Content, "Answer well.")
}

func TestAssembleSimple_ChatInjectsHistory(t *testing.T) {
	mem := &recordingMemory{messages: []types.PromptMessage{
		types.TextMessage(types.RoleUser, "earlier question"),
		types.TextMessage(types.RoleAssistant, "earlier answer"),
	}}

	messages, _, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "Be helpful.",
		Query:        "next",
		Memory:       mem,
		MemoryConfig: &types.MemoryConfig{},
		ModelConfig:  chatModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, types.RoleSystem, messages[0].Role)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Equal(t, "earlier answer", messages[2].Content)
	assert.Equal(t, "next", messages[3].Content)
}

func TestAssembleSimple_CompletionFoldsQueryPrompt(t *testing.T) {
	messages, stop, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "Act as a poet.",
		Query:        "Write a haiku",
		ModelConfig:  completionModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, "Act as a poet.\n\n\nHuman: Write a haiku\n\nAssistant: ", messages[0].Content)
	assert.Equal(t, []string{"\nHuman:"}, stop)
}

func TestAssembleSimple_CompletionRerendersWithHistory(t *testing.T) {
	mem := &recordingMemory{text: "Human: old\nAssistant: reply"}

	messages, _, err := AssembleSimple(SimpleOptions{
		PrePrompt:    "Act.",
		Query:        "now",
		Memory:       mem,
		MemoryConfig: &types.MemoryConfig{},
		ModelConfig:  completionModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "<histories>\nHuman: old\nAssistant: reply\n</histories>")
	assert.Contains(t, messages[0].Content, "Human: now")
	// No context size declared, so the history budget is the fallback.
	assert.Equal(t, 2000, mem.gotTokenLimit)
}

func TestAssembleSimple_EmptyEverythingFails(t *testing.T) {
	_, _, err := AssembleSimple(SimpleOptions{
		ModelConfig:  chatModel(),
		TokenCounter: zeroCounter{},
		Rules:        NewEmbeddedRules(),
	})

	assert.ErrorIs(t, err, ErrNoPromptFound)
}

func TestRenderRulePrompt_SkipsAbsentSegments(t *testing.T) {
	rules, err := NewEmbeddedRules().GetOrLoad("common_chat")
	require.NoError(t, err)

	rendered := renderRulePrompt(rules, "Hello.", nil, "", "", "")
	assert.Equal(t, "Hello.\n", rendered)
	assert.False(t, strings.Contains(rendered, "<context>"))
	assert.False(t, strings.Contains(rendered, "<histories>"))
}
