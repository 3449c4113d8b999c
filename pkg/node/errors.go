// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-node-driver R4 (error taxonomy).
package node

import (
	"errors"

	"github.com/petar-djukic/llm-node/internal/config"
	"github.com/petar-djukic/llm-node/internal/invoke"
	"github.com/petar-djukic/llm-node/internal/memory"
	"github.com/petar-djukic/llm-node/internal/prompt"
)

// Errors raised while resolving run variables.
var (
	// ErrVariableNotFound indicates a configured variable resolves to
	// nothing in the run's variable values.
	ErrVariableNotFound = errors.New("variable not found")
	// ErrInvalidContextStructure indicates a context array item is
	// neither a string nor an object with a content field.
	ErrInvalidContextStructure = errors.New("invalid context structure")
	// ErrInvalidVariableType indicates a resolved variable's runtime
	// type does not match what the consuming path expects.
	ErrInvalidVariableType = errors.New("invalid variable type")
)

// Re-exported assembly and configuration errors, so callers match one
// taxonomy at the node boundary.
var (
	ErrNoPromptFound            = prompt.ErrNoPromptFound
	ErrTemplateTypeNotSupported = prompt.ErrTemplateTypeNotSupported
	ErrRolePrefixRequired       = memory.ErrRolePrefixRequired
	ErrModelNotExist            = config.ErrModelNotExist
	ErrLLMModeRequired          = config.ErrLLMModeRequired
	ErrInvoke                   = invoke.ErrInvoke
)

// errorTypeName maps an error onto the stable type name recorded in a
// failed run result.
func errorTypeName(err error) string {
	switch {
	case errors.Is(err, ErrVariableNotFound):
		return "VariableNotFoundError"
	case errors.Is(err, ErrInvalidContextStructure):
		return "InvalidContextStructureError"
	case errors.Is(err, ErrInvalidVariableType):
		return "InvalidVariableTypeError"
	case errors.Is(err, ErrModelNotExist):
		return "ModelNotExistError"
	case errors.Is(err, ErrLLMModeRequired):
		return "LLMModeRequiredError"
	case errors.Is(err, ErrRolePrefixRequired):
		return "MemoryRolePrefixRequiredError"
	case errors.Is(err, ErrNoPromptFound):
		return "NoPromptFoundError"
	case errors.Is(err, ErrTemplateTypeNotSupported):
		return "TemplateTypeNotSupportError"
	case errors.Is(err, ErrInvoke):
		return "InvokeError"
	default:
		return "Error"
	}
}
