// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd002-memory R2, R3.
package memory

import (
	"errors"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// ErrRolePrefixRequired indicates completion-mode history was requested
// without role-prefix configuration. Flattened history lines cannot be
// labeled without prefixes, so this is a hard configuration error.
var ErrRolePrefixRequired = errors.New("memory role prefix is required for completion model")

// HistoryPromptMessages returns prior turns as role-tagged messages for
// chat mode. Returns nil when memory or its config is absent.
//
// The budget is computed against an empty message baseline: history is
// injected as a block that competes with the final query and template
// text for the same window, and the zero baseline keeps the estimate
// conservative without a second render pass.
func HistoryPromptMessages(
	mem types.Memory,
	memoryConfig *types.MemoryConfig,
	modelConfig types.ModelConfigWithCredentials,
	counter types.TokenCounter,
) []types.PromptMessage {
	if mem == nil || memoryConfig == nil {
		return nil
	}

	restTokens := CalculateRestTokens(nil, modelConfig, counter)
	return mem.HistoryPromptMessages(restTokens, windowLimit(memoryConfig))
}

// HistoryPromptText returns prior turns flattened into prefixed text
// lines for completion mode. Returns "" when memory or its config is
// absent, and ErrRolePrefixRequired when no role prefix is configured.
func HistoryPromptText(
	mem types.Memory,
	memoryConfig *types.MemoryConfig,
	modelConfig types.ModelConfigWithCredentials,
	counter types.TokenCounter,
) (string, error) {
	if mem == nil || memoryConfig == nil {
		return "", nil
	}

	if memoryConfig.RolePrefix == nil {
		return "", ErrRolePrefixRequired
	}

	restTokens := CalculateRestTokens(nil, modelConfig, counter)
	text := mem.HistoryPromptText(
		restTokens,
		windowLimit(memoryConfig),
		memoryConfig.RolePrefix.User,
		memoryConfig.RolePrefix.Assistant,
	)
	return text, nil
}

// windowLimit translates the window config into a message limit;
// 0 means unlimited.
func windowLimit(memoryConfig *types.MemoryConfig) int {
	if memoryConfig.Window.Enabled {
		return memoryConfig.Window.Size
	}
	return 0
}
