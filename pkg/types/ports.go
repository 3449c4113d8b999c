// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R5, prd004-output-saver R2
//
//	(collaborator boundary contracts).
package types

// FileType classifies a stored binary asset.
type FileType string

const (
	FileImage    FileType = "image"
	FileVideo    FileType = "video"
	FileAudio    FileType = "audio"
	FileDocument FileType = "document"
)

// File is an opaque reference to a stored binary asset. Files are
// created by collaborators (or by the output saver) and never mutated.
type File interface {
	// GenerateURL returns a serving URL for the asset.
	GenerateURL() string
	// Type reports the asset's file type.
	Type() FileType
}

// TokenCounter counts tokens for a message sequence. Implementations
// are model/provider specific; the core only does arithmetic around
// the returned figure.
type TokenCounter interface {
	CountTokens(messages []PromptMessage) int
}

// Memory reads prior conversation turns from history storage.
// A messageLimit of 0 means no turn-count bound.
type Memory interface {
	HistoryPromptMessages(maxTokenLimit, messageLimit int) []PromptMessage
	HistoryPromptText(maxTokenLimit, messageLimit int, humanPrefix, aiPrefix string) string
}

// FileResolver converts an opaque file reference into model-ready
// message content, applying the node's configured image detail.
type FileResolver interface {
	ToPromptMessageContent(file File, detail ImageDetail) (MessageContent, error)
}

// FileSaver persists model-generated binary content.
type FileSaver interface {
	SaveRemoteURL(url string, fileType FileType) (File, error)
	SaveBinaryString(data []byte, mimeType string, fileType FileType) (File, error)
}

// CodeExecutor renders a template through an external execution
// sandbox. Language is the template dialect, e.g. "jinja2".
type CodeExecutor interface {
	ExecuteTemplate(language, code string, inputs map[string]any) (string, error)
}
