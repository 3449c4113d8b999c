// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R4 (simple mode).
package prompt

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/llm-node/internal/memory"
	"github.com/petar-djukic/llm-node/pkg/types"
)

// SimpleOptions carries everything simple-mode assembly needs.
type SimpleOptions struct {
	PrePrompt    string
	Inputs       map[string]any
	Query        string
	Files        []types.File
	Context      string
	Memory       types.Memory
	MemoryConfig *types.MemoryConfig
	ModelConfig  types.ModelConfigWithCredentials
	TokenCounter types.TokenCounter
	FileResolver types.FileResolver
	VisionDetail types.ImageDetail
	Rules        RuleRepository
}

// AssembleSimple builds the prompt sequence from the fixed rule-based
// templates for the model's mode. Chat mode produces an optional
// system message, history messages, and the user query; completion
// mode folds everything into a single user message and surfaces the
// rule document's stop sequences.
func AssembleSimple(opts SimpleOptions) ([]types.PromptMessage, []string, error) {
	rules, err := opts.Rules.GetOrLoad(RuleKey(opts.ModelConfig.Mode))
	if err != nil {
		return nil, nil, err
	}

	var messages []types.PromptMessage
	var stop []string

	if opts.ModelConfig.Mode == types.ModeCompletion {
		messages, stop, err = simpleCompletion(opts, rules)
	} else {
		messages, err = simpleChat(opts, rules)
	}
	if err != nil {
		return nil, nil, err
	}

	messages, err = normalize(messages, opts.ModelConfig)
	if err != nil {
		return nil, nil, err
	}
	return messages, stop, nil
}

// simpleChat renders the system block without the query, injects
// history messages within the remaining budget, and closes with the
// user query. When no query is supplied the rendered block itself
// becomes the user message.
func simpleChat(opts SimpleOptions, rules *Rules) ([]types.PromptMessage, error) {
	rendered := renderRulePrompt(rules, opts.PrePrompt, opts.Inputs, "", opts.Context, "")

	var messages []types.PromptMessage
	if rendered != "" && opts.Query != "" {
		messages = append(messages, types.TextMessage(types.RoleSystem, rendered))
	}

	if opts.Memory != nil {
		rest := memory.CalculateRestTokens(messages, opts.ModelConfig, opts.TokenCounter)
		messages = append(messages, opts.Memory.HistoryPromptMessages(rest, simpleWindowLimit(opts.MemoryConfig))...)
	}

	text := opts.Query
	if text == "" {
		text = rendered
	}
	userMessage, err := lastUserMessage(text, opts.Files, opts.FileResolver, opts.VisionDetail)
	if err != nil {
		return nil, err
	}
	return append(messages, userMessage), nil
}

// simpleCompletion renders the full block once, and when memory is
// present re-renders it with history text sized to the budget left by
// the first render. The iterative re-render is what keeps the history
// block within the window the rest of the prompt leaves over.
func simpleCompletion(opts SimpleOptions, rules *Rules) ([]types.PromptMessage, []string, error) {
	rendered := renderRulePrompt(rules, opts.PrePrompt, opts.Inputs, opts.Query, opts.Context, "")

	if opts.Memory != nil {
		baseline := []types.PromptMessage{types.TextMessage(types.RoleUser, rendered)}
		rest := memory.CalculateRestTokens(baseline, opts.ModelConfig, opts.TokenCounter)
		histories := opts.Memory.HistoryPromptText(
			rest, simpleWindowLimit(opts.MemoryConfig), rules.HumanPrefix, rules.AssistantPrefix)
		rendered = renderRulePrompt(rules, opts.PrePrompt, opts.Inputs, opts.Query, opts.Context, histories)
	}

	userMessage, err := lastUserMessage(rendered, opts.Files, opts.FileResolver, opts.VisionDetail)
	if err != nil {
		return nil, nil, err
	}

	var stop []string
	if len(rules.Stops) > 0 {
		stop = rules.Stops
	}
	return []types.PromptMessage{userMessage}, stop, nil
}

// renderRulePrompt concatenates the rule document's segments in their
// declared order, including only segments whose data is present, then
// formats the result in one pass. The pre-prompt's own variables are
// merged alongside the special keys its segments contribute.
func renderRulePrompt(rules *Rules, prePrompt string, inputs map[string]any, query, context, histories string) string {
	var b strings.Builder
	values := make(map[string]any)

	for _, order := range rules.SystemPromptOrders {
		switch order {
		case "context_prompt":
			if context != "" {
				b.WriteString(rules.ContextPrompt)
				values[KeyContext] = context
			}
		case "pre_prompt":
			if prePrompt != "" {
				b.WriteString(prePrompt)
				b.WriteString("\n")
				for _, selector := range ExtractVariableSelectors(prePrompt) {
					if v, ok := inputs[selector.Variable]; ok {
						values[selector.Variable] = v
					}
				}
			}
		case "histories_prompt":
			if histories != "" {
				b.WriteString(rules.HistoriesPrompt)
				values[KeyHistories] = histories
			}
		}
	}

	if query != "" && rules.QueryPrompt != "" {
		b.WriteString(rules.QueryPrompt)
		values[KeyQuery] = query
	}

	return Format(b.String(), values)
}

// lastUserMessage builds the final user message, splicing resolved
// file parts after the text when attachments are present.
func lastUserMessage(text string, files []types.File, resolver types.FileResolver, detail types.ImageDetail) (types.PromptMessage, error) {
	if len(files) == 0 {
		return types.TextMessage(types.RoleUser, text), nil
	}

	parts := []types.MessageContent{types.TextPart(text)}
	for _, file := range files {
		part, err := resolver.ToPromptMessageContent(file, detail)
		if err != nil {
			return types.PromptMessage{}, fmt.Errorf("resolving file content: %w", err)
		}
		parts = append(parts, part)
	}
	return types.PartsMessage(types.RoleUser, parts), nil
}

// simpleWindowLimit reads the turn-count bound; 0 means unlimited.
func simpleWindowLimit(memoryConfig *types.MemoryConfig) int {
	if memoryConfig != nil && memoryConfig.Window.Enabled {
		return memoryConfig.Window.Size
	}
	return 0
}
