// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// fixedCounter reports a constant token count.
type fixedCounter struct {
	tokens int
}

func (c fixedCounter) CountTokens(messages []types.PromptMessage) int {
	return c.tokens
}

func modelWithContext(contextSize int, parameters map[string]any) types.ModelConfigWithCredentials {
	return types.ModelConfigWithCredentials{
		Model: "test-model",
		Schema: types.ModelSchema{
			ContextSize: contextSize,
			ParameterRules: []types.ParameterRule{
				{Name: "max_tokens", UseTemplate: "max_tokens"},
			},
		},
		Parameters: parameters,
	}
}

func TestCalculateRestTokens_FallbackWithoutContextSize(t *testing.T) {
	rest := CalculateRestTokens(nil, modelWithContext(0, nil), fixedCounter{tokens: 9999})
	assert.Equal(t, 2000, rest)
}

func TestCalculateRestTokens_Arithmetic(t *testing.T) {
	cfg := modelWithContext(8000, map[string]any{"max_tokens": 1000})
	rest := CalculateRestTokens(nil, cfg, fixedCounter{tokens: 500})
	assert.Equal(t, 6500, rest)
}

func TestCalculateRestTokens_FlooredAtZero(t *testing.T) {
	cfg := modelWithContext(1000, map[string]any{"max_tokens": 900})
	rest := CalculateRestTokens(nil, cfg, fixedCounter{tokens: 500})
	assert.Equal(t, 0, rest)
}

func TestCalculateRestTokens_MaxTokensDefaultsToZero(t *testing.T) {
	cfg := modelWithContext(4000, nil)
	rest := CalculateRestTokens(nil, cfg, fixedCounter{tokens: 100})
	assert.Equal(t, 3900, rest)
}

func TestCalculateRestTokens_MaxTokensAsFloat(t *testing.T) {
	// Parameters decoded from JSON arrive as float64.
	cfg := modelWithContext(4000, map[string]any{"max_tokens": float64(1500)})
	rest := CalculateRestTokens(nil, cfg, fixedCounter{tokens: 0})
	assert.Equal(t, 2500, rest)
}

func TestCalculateRestTokens_RuleMatchedByTemplateAlias(t *testing.T) {
	cfg := types.ModelConfigWithCredentials{
		Schema: types.ModelSchema{
			ContextSize: 4000,
			ParameterRules: []types.ParameterRule{
				{Name: "max_tokens_to_sample", UseTemplate: "max_tokens"},
			},
		},
		Parameters: map[string]any{"max_tokens_to_sample": 800},
	}
	rest := CalculateRestTokens(nil, cfg, fixedCounter{tokens: 200})
	assert.Equal(t, 3000, rest)
}

func TestHistoryPromptText_RequiresRolePrefix(t *testing.T) {
	mem := &stubMemory{}
	cfg := &types.MemoryConfig{}

	_, err := HistoryPromptText(mem, cfg, modelWithContext(0, nil), fixedCounter{})
	assert.ErrorIs(t, err, ErrRolePrefixRequired)
}

func TestHistoryPromptText_AbsentMemoryIsEmpty(t *testing.T) {
	text, err := HistoryPromptText(nil, nil, modelWithContext(0, nil), fixedCounter{})
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestHistoryPromptMessages_AbsentConfigIsEmpty(t *testing.T) {
	mem := &stubMemory{messages: []types.PromptMessage{types.TextMessage(types.RoleUser, "old")}}
	assert.Nil(t, HistoryPromptMessages(mem, nil, modelWithContext(0, nil), fixedCounter{}))
}

func TestHistoryPromptMessages_WindowLimit(t *testing.T) {
	mem := &stubMemory{}
	cfg := &types.MemoryConfig{Window: types.MemoryWindow{Enabled: true, Size: 6}}

	HistoryPromptMessages(mem, cfg, modelWithContext(0, nil), fixedCounter{})
	assert.Equal(t, 6, mem.gotMessageLimit)
	assert.Equal(t, 2000, mem.gotTokenLimit)
}

func TestHistoryPromptMessages_DisabledWindowIsUnlimited(t *testing.T) {
	mem := &stubMemory{}
	cfg := &types.MemoryConfig{Window: types.MemoryWindow{Enabled: false, Size: 6}}

	HistoryPromptMessages(mem, cfg, modelWithContext(0, nil), fixedCounter{})
	assert.Equal(t, 0, mem.gotMessageLimit)
}

// stubMemory records the limits it was asked for.
type stubMemory struct {
	messages        []types.PromptMessage
	text            string
	gotTokenLimit   int
	gotMessageLimit int
}

func (m *stubMemory) HistoryPromptMessages(maxTokenLimit, messageLimit int) []types.PromptMessage {
	m.gotTokenLimit = maxTokenLimit
	m.gotMessageLimit = messageLimit
	return m.messages
}

func (m *stubMemory) HistoryPromptText(maxTokenLimit, messageLimit int, humanPrefix, aiPrefix string) string {
	m.gotTokenLimit = maxTokenLimit
	m.gotMessageLimit = messageLimit
	return m.text
}
