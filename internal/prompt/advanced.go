// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R5, R6 (advanced mode).
package prompt

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/llm-node/internal/memory"
	"github.com/petar-djukic/llm-node/pkg/types"
)

// AdvancedOptions carries everything advanced-mode assembly needs.
type AdvancedOptions struct {
	Template      types.PromptTemplate
	Inputs        map[string]any
	Jinja2Inputs  map[string]any
	Query         string
	Files         []types.File
	Context       string
	Memory        types.Memory
	MemoryConfig  *types.MemoryConfig
	ModelConfig   types.ModelConfigWithCredentials
	TokenCounter  types.TokenCounter
	FileResolver  types.FileResolver
	VisionDetail  types.ImageDetail
	VisionEnabled bool
	CodeExecutor  types.CodeExecutor
}

// AssembleAdvanced builds the prompt sequence from a user-authored
// template. The template shape is a two-variant union; anything else
// is a configuration error.
func AssembleAdvanced(opts AdvancedOptions) ([]types.PromptMessage, []string, error) {
	var messages []types.PromptMessage
	var err error

	switch {
	case opts.Template.Messages != nil:
		messages, err = advancedChat(opts)
	case opts.Template.Completion != nil:
		messages, err = advancedCompletion(opts)
	default:
		return nil, nil, ErrTemplateTypeNotSupported
	}
	if err != nil {
		return nil, nil, err
	}

	messages, err = attachFiles(messages, opts)
	if err != nil {
		return nil, nil, err
	}

	messages, err = normalize(messages, opts.ModelConfig)
	if err != nil {
		return nil, nil, err
	}
	return messages, opts.ModelConfig.Stop, nil
}

// advancedChat renders each declared template message, appends memory
// history, then the live query as the final user message.
func advancedChat(opts AdvancedOptions) ([]types.PromptMessage, error) {
	messages, err := handleListMessages(opts.Template.Messages, opts.Context, opts)
	if err != nil {
		return nil, err
	}

	messages = append(messages, memory.HistoryPromptMessages(
		opts.Memory, opts.MemoryConfig, opts.ModelConfig, opts.TokenCounter)...)

	if opts.Query != "" {
		queryMessages, err := handleListMessages([]types.ChatModelMessage{{
			Role:        types.RoleUser,
			Text:        opts.Query,
			EditionType: types.EditionBasic,
		}}, "", opts)
		if err != nil {
			return nil, err
		}
		messages = append(messages, queryMessages...)
	}
	return messages, nil
}

// advancedCompletion renders the single template block, then splices
// history and the live query into its text.
func advancedCompletion(opts AdvancedOptions) ([]types.PromptMessage, error) {
	template := opts.Template.Completion

	var rendered string
	var err error
	if template.EditionType == types.EditionJinja2 {
		rendered, err = renderJinja2(jinjaBody(template.Jinja2Text, template.Text), opts)
		if err != nil {
			return nil, err
		}
	} else {
		text := template.Text
		if opts.Context != "" {
			text = strings.ReplaceAll(text, "{#context#}", opts.Context)
		}
		rendered, _, err = renderSegments(text, opts.Inputs, opts.FileResolver, opts.VisionDetail)
		if err != nil {
			return nil, err
		}
	}

	message := types.PartsMessage(types.RoleUser, []types.MessageContent{types.TextPart(rendered)})

	if opts.Memory != nil {
		memoryText, err := memory.HistoryPromptText(
			opts.Memory, opts.MemoryConfig, opts.ModelConfig, opts.TokenCounter)
		if err != nil {
			return nil, err
		}
		message = spliceTextParts(message, KeyHistories, memoryText)
	}

	if opts.Query != "" {
		message = spliceTextParts(message, "#sys.query#", opts.Query)
	}

	return []types.PromptMessage{message}, nil
}

// spliceTextParts replaces a literal token wherever a text part carries
// it. When no part does, the value is prepended with a newline separator
// to the first text part only, so it appears once in the message.
func spliceTextParts(message types.PromptMessage, token, value string) types.PromptMessage {
	parts := make([]types.MessageContent, len(message.Parts))
	copy(parts, message.Parts)
	replaced := false
	for i, part := range parts {
		if part.Type == types.ContentText && strings.Contains(part.Data, token) {
			parts[i].Data = strings.ReplaceAll(part.Data, token, value)
			replaced = true
		}
	}
	if !replaced {
		for i, part := range parts {
			if part.Type == types.ContentText {
				parts[i].Data = value + "\n" + part.Data
				break
			}
		}
	}
	return types.PromptMessage{Role: message.Role, Parts: parts}
}

// handleListMessages renders template messages independently. Each
// entry yields zero, one, or two messages: a text message when the
// rendered text is non-empty, then an attachment message when the
// rendered segments contained file references.
func handleListMessages(messages []types.ChatModelMessage, context string, opts AdvancedOptions) ([]types.PromptMessage, error) {
	var out []types.PromptMessage
	for _, message := range messages {
		if message.EditionType == types.EditionJinja2 {
			rendered, err := renderJinja2(jinjaBody(message.Jinja2Text, message.Text), opts)
			if err != nil {
				return nil, err
			}
			out = append(out, types.PartsMessage(message.Role,
				[]types.MessageContent{types.TextPart(rendered)}))
			continue
		}

		template := message.Text
		if context != "" {
			template = strings.ReplaceAll(template, "{#context#}", context)
		}

		text, fileParts, err := renderSegments(template, opts.Inputs, opts.FileResolver, opts.VisionDetail)
		if err != nil {
			return nil, err
		}

		if text != "" {
			out = append(out, types.PartsMessage(message.Role,
				[]types.MessageContent{types.TextPart(text)}))
		}
		if len(fileParts) > 0 {
			out = append(out, types.PartsMessage(message.Role, fileParts))
		}
	}
	return out, nil
}

// renderSegments substitutes placeholders, splitting the result into
// plain text and resolved file parts. Values that are file references
// contribute content parts instead of text.
func renderSegments(template string, inputs map[string]any, resolver types.FileResolver, detail types.ImageDetail) (string, []types.MessageContent, error) {
	var text strings.Builder
	var fileParts []types.MessageContent

	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(template, -1) {
		text.WriteString(template[last:loc[0]])
		last = loc[1]

		name := template[loc[2]:loc[3]]
		value, ok := inputs[name]
		if !ok || value == nil {
			continue
		}

		switch v := value.(type) {
		case types.File:
			part, err := resolveAttachment(v, resolver, detail)
			if err != nil {
				return "", nil, err
			}
			if part != nil {
				fileParts = append(fileParts, *part)
			}
		case []types.File:
			for _, file := range v {
				part, err := resolveAttachment(file, resolver, detail)
				if err != nil {
					return "", nil, err
				}
				if part != nil {
					fileParts = append(fileParts, *part)
				}
			}
		default:
			text.WriteString(stringify(v))
		}
	}
	text.WriteString(template[last:])

	return text.String(), fileParts, nil
}

// resolveAttachment converts a file reference into message content.
// Types outside the attachable set are skipped.
func resolveAttachment(file types.File, resolver types.FileResolver, detail types.ImageDetail) (*types.MessageContent, error) {
	switch file.Type() {
	case types.FileImage, types.FileVideo, types.FileAudio, types.FileDocument:
	default:
		return nil, nil
	}
	part, err := resolver.ToPromptMessageContent(file, detail)
	if err != nil {
		return nil, fmt.Errorf("resolving file content: %w", err)
	}
	return &part, nil
}

// attachFiles splices the run's attachment files after the template
// messages. Only a trailing user message with part-list content is
// extended; otherwise a new user message is appended, so template
// authoring order cannot silently change which role receives files.
func attachFiles(messages []types.PromptMessage, opts AdvancedOptions) ([]types.PromptMessage, error) {
	if !opts.VisionEnabled || len(opts.Files) == 0 {
		return messages, nil
	}

	var fileParts []types.MessageContent
	for _, file := range opts.Files {
		part, err := opts.FileResolver.ToPromptMessageContent(file, opts.VisionDetail)
		if err != nil {
			return nil, fmt.Errorf("resolving file content: %w", err)
		}
		fileParts = append(fileParts, part)
	}

	n := len(messages)
	if n > 0 && messages[n-1].Role == types.RoleUser && messages[n-1].Parts != nil {
		parts := make([]types.MessageContent, 0, len(messages[n-1].Parts)+len(fileParts))
		parts = append(parts, messages[n-1].Parts...)
		parts = append(parts, fileParts...)
		messages[n-1] = types.PartsMessage(types.RoleUser, parts)
		return messages, nil
	}
	return append(messages, types.PartsMessage(types.RoleUser, fileParts)), nil
}

// renderJinja2 renders a template through the external code executor.
func renderJinja2(body string, opts AdvancedOptions) (string, error) {
	if body == "" {
		return "", nil
	}
	if opts.CodeExecutor == nil {
		return "", ErrNoCodeExecutor
	}
	rendered, err := opts.CodeExecutor.ExecuteTemplate("jinja2", body, opts.Jinja2Inputs)
	if err != nil {
		return "", fmt.Errorf("rendering jinja2 template: %w", err)
	}
	return rendered, nil
}

// jinjaBody picks the jinja2 template body, falling back to the basic
// text when the dedicated field is unset.
func jinjaBody(jinja2Text, text string) string {
	if jinja2Text != "" {
		return jinja2Text
	}
	return text
}
