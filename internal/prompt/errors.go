// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package prompt

import "errors"

// ErrNoPromptFound indicates assembly produced zero usable messages
// after filtering. At least one non-empty message is a hard
// postcondition of the assembler.
var ErrNoPromptFound = errors.New("no prompt found in the LLM configuration")

// ErrTemplateTypeNotSupported indicates the prompt template is neither
// a chat message list nor a completion template.
var ErrTemplateTypeNotSupported = errors.New("prompt template type not supported")

// ErrNoCodeExecutor indicates a jinja2 template was declared but no
// code-execution collaborator was configured.
var ErrNoCodeExecutor = errors.New("jinja2 template requires a code executor")
