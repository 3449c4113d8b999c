// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package memory computes token budgets for conversation history and
// renders prior turns into prompt form.
// Implements: prd002-memory R1 (budget arithmetic), R2 (history injection).
package memory

import "github.com/petar-djukic/llm-node/pkg/types"

// fallbackBudget is used when the model schema declares no context size.
const fallbackBudget = 2000

// CalculateRestTokens returns the token budget left for history after
// accounting for the given prompt messages and the model's max_tokens
// parameter. Never negative.
func CalculateRestTokens(
	promptMessages []types.PromptMessage,
	modelConfig types.ModelConfigWithCredentials,
	counter types.TokenCounter,
) int {
	contextSize := modelConfig.Schema.ContextSize
	if contextSize == 0 {
		return fallbackBudget
	}

	used := counter.CountTokens(promptMessages)

	rest := contextSize - maxTokensParameter(modelConfig) - used
	if rest < 0 {
		rest = 0
	}
	return rest
}

// maxTokensParameter reads the configured max_tokens value by matching
// the parameter rule named "max_tokens" or carrying it as a template
// alias. Unset parameters default to 0.
func maxTokensParameter(modelConfig types.ModelConfigWithCredentials) int {
	maxTokens := 0
	for _, rule := range modelConfig.Schema.ParameterRules {
		if rule.Name != "max_tokens" && rule.UseTemplate != "max_tokens" {
			continue
		}
		if v, ok := intParameter(modelConfig.Parameters, rule.Name); ok {
			maxTokens = v
		} else if v, ok := intParameter(modelConfig.Parameters, rule.UseTemplate); ok {
			maxTokens = v
		}
	}
	return maxTokens
}

// intParameter reads a numeric parameter that may have been decoded as
// any of Go's common numeric types.
func intParameter(parameters map[string]any, name string) (int, bool) {
	if name == "" || parameters == nil {
		return 0, false
	}
	switch v := parameters[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
