// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R1 (message model);
//
//	prd001-prompt-assembly R2 (template shapes, memory config).
package types

import "strings"

// MessageRole identifies the sender of a prompt message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ContentType classifies a single typed content part.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
)

// ImageDetail is the resolution hint attached to image content.
type ImageDetail string

const (
	DetailLow  ImageDetail = "low"
	DetailHigh ImageDetail = "high"
)

// MessageContent is one typed part of a prompt message's content.
// Text parts carry Data; media parts carry either a remote URL or an
// inline base64 payload plus its mime type.
type MessageContent struct {
	Type     ContentType
	Data     string      // Text for text parts, base64 payload for inline media
	URL      string      // Remote location for media parts (empty if inline)
	MimeType string      // Mime type of inline media
	Detail   ImageDetail // Resolution hint for image parts
}

// PromptMessage is one role-tagged unit of conversation context.
// Content holds the legacy plain-string form; Parts, when non-nil,
// holds the typed content-part list and takes precedence.
type PromptMessage struct {
	Role    MessageRole
	Content string
	Parts   []MessageContent
}

// IsEmpty reports whether the message carries no usable content.
// A whitespace-only string or an empty part list counts as empty.
func (m PromptMessage) IsEmpty() bool {
	if m.Parts != nil {
		return len(m.Parts) == 0
	}
	return strings.TrimSpace(m.Content) == ""
}

// TextMessage creates a plain-string message with the given role.
func TextMessage(role MessageRole, text string) PromptMessage {
	return PromptMessage{Role: role, Content: text}
}

// PartsMessage creates a message with typed content parts.
func PartsMessage(role MessageRole, parts []MessageContent) PromptMessage {
	return PromptMessage{Role: role, Parts: parts}
}

// TextPart creates a text content part.
func TextPart(text string) MessageContent {
	return MessageContent{Type: ContentText, Data: text}
}

// EditionType selects how a template block is rendered.
type EditionType string

const (
	EditionBasic  EditionType = "basic"
	EditionJinja2 EditionType = "jinja2"
)

// ChatModelMessage is one entry of a chat-model prompt template.
type ChatModelMessage struct {
	Role        MessageRole
	Text        string
	EditionType EditionType
	Jinja2Text  string // Alternate template body used when EditionType is jinja2
}

// CompletionModelPromptTemplate is the single template block declared
// for completion models.
type CompletionModelPromptTemplate struct {
	Text        string
	EditionType EditionType
	Jinja2Text  string
}

// PromptTemplate is the two-variant template shape a node may declare:
// an ordered chat message list, or a single completion block. Exactly
// one side must be set.
type PromptTemplate struct {
	Messages   []ChatModelMessage
	Completion *CompletionModelPromptTemplate
}

// RolePrefix labels conversation turns when history is flattened into
// completion-mode text.
type RolePrefix struct {
	User      string `yaml:"user"`
	Assistant string `yaml:"assistant"`
}

// MemoryWindow bounds how many prior turns are injected.
type MemoryWindow struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// MemoryConfig declares whether and how conversation history is
// injected into the prompt.
type MemoryConfig struct {
	RolePrefix          *RolePrefix  `yaml:"role_prefix"`
	Window              MemoryWindow `yaml:"window"`
	QueryPromptTemplate string       `yaml:"query_prompt_template"`
}
