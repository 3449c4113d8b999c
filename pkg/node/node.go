// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package node drives one LLM node run end to end: variable
// resolution, prompt assembly, model invocation, stream handling,
// quota deduction, and the final run result.
// Implements: prd006-node-driver R1-R5.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petar-djukic/llm-node/internal/config"
	"github.com/petar-djukic/llm-node/internal/invoke"
	"github.com/petar-djukic/llm-node/internal/output"
	"github.com/petar-djukic/llm-node/internal/prompt"
	"github.com/petar-djukic/llm-node/internal/quota"
	"github.com/petar-djukic/llm-node/pkg/types"
)

// Deps are the external collaborators one node run needs. Only the
// Invoker is required; absent collaborators disable the corresponding
// behavior (no memory, no file resolution, no quota metering).
type Deps struct {
	Invoker        invoke.ModelInvoker
	TokenCounter   types.TokenCounter
	Memory         types.Memory
	FileResolver   types.FileResolver
	FileSaver      types.FileSaver
	CodeExecutor   types.CodeExecutor
	Rules          prompt.RuleRepository
	QuotaStore     quota.Store
	ProviderConfig quota.ProviderConfiguration
	Credits        quota.CreditTable
	Logger         *slog.Logger
}

// Node is one configured LLM workflow node.
type Node struct {
	ID     string
	Config config.NodeConfig
	Schema types.ModelSchema
	Deps   Deps
}

// RunRequest carries the per-run variable values.
type RunRequest struct {
	Inputs       map[string]any // Resolved template variable values
	Jinja2Inputs map[string]any
	Query        string
	Context      any // Raw context value: string, or array of strings/objects
	Files        any // Raw file value: File or array of File
	TenantID     string
	User         string
}

// Run executes the node and returns its ordered event stream: chunk
// events as text arrives, a final empty chunk marked Final, then
// exactly one RunCompletedEvent. The channel is closed after the
// terminal event.
func (n *Node) Run(ctx context.Context, req RunRequest) <-chan types.Event {
	events := make(chan types.Event, 16)
	go func() {
		defer close(events)
		n.run(ctx, req, events)
	}()
	return events
}

func (n *Node) run(ctx context.Context, req RunRequest, events chan<- types.Event) {
	logger := n.logger()
	start := time.Now()

	inputs := make(map[string]any, len(req.Inputs)+2)
	for k, v := range req.Inputs {
		inputs[k] = v
	}
	processData := make(map[string]any)

	fail := func(err error) {
		logger.Error("node run failed", "node_id", n.ID, "error", err)
		emit(ctx, events, types.RunCompletedEvent{Result: types.NodeRunResult{
			Status:      types.RunFailed,
			Error:       err.Error(),
			ErrorType:   errorTypeName(err),
			Inputs:      inputs,
			ProcessData: processData,
		}})
	}

	// Structured output misconfiguration is caught before any model
	// call is made.
	if n.Config.StructuredOutputEnabled {
		if _, err := invoke.FetchStructuredOutputSchema(n.Config.StructuredOutput); err != nil {
			fail(fmt.Errorf("%w: %v", ErrInvoke, err))
			return
		}
	}

	contextText := ""
	if n.Config.ContextEnabled {
		if req.Context == nil {
			fail(fmt.Errorf("%w: context", ErrVariableNotFound))
			return
		}
		var err error
		contextText, err = contextString(req.Context)
		if err != nil {
			fail(err)
			return
		}
		inputs["#context#"] = contextText
	}

	var files []types.File
	if n.Config.Vision.Enabled && req.Files != nil {
		var err error
		files, err = filesFromValue(req.Files)
		if err != nil {
			fail(err)
			return
		}
	}

	query := n.resolveQuery(req.Query, inputs)
	if query != "" {
		inputs["#query#"] = query
	}

	modelConfig := n.Config.ModelConfig(n.Schema)
	processData["model_provider"] = modelConfig.Provider
	processData["model_name"] = modelConfig.Model
	processData["model_mode"] = string(modelConfig.Mode)

	messages, stop, err := n.assemble(req, query, contextText, files, modelConfig)
	if err != nil {
		fail(err)
		return
	}
	processData["prompt_messages"] = messages
	if len(stop) > 0 {
		processData["stop"] = stop
	}

	logger.Debug("invoking model",
		"node_id", n.ID,
		"model", modelConfig.Model,
		"messages", len(messages),
		"stream", n.Config.Stream)

	result, err := n.Deps.Invoker.Invoke(ctx, invoke.InvokeRequest{
		PromptMessages: messages,
		Parameters:     modelConfig.Parameters,
		Stop:           stop,
		Stream:         n.Config.Stream,
		User:           req.User,
	})
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrInvoke, err))
		return
	}

	var generated []types.File
	saver := &output.Saver{Files: n.Deps.FileSaver, Outputs: &generated, Logger: logger}

	completed, ok := n.forward(ctx, result, saver, start, events, fail)
	if !ok {
		return
	}

	outputs := map[string]any{
		"text":              completed.Text,
		"reasoning_content": completed.ReasoningContent,
		"usage":             completed.Usage,
		"finish_reason":     completed.FinishReason,
	}
	if n.Config.StructuredOutputEnabled {
		structured := completed.StructuredOutput
		if structured == nil {
			structured, err = invoke.ParseStructuredOutput(completed.Text)
			if err != nil {
				fail(fmt.Errorf("%w: %v", ErrInvoke, err))
				return
			}
		}
		outputs["structured_output"] = structured
	}
	if len(generated) > 0 {
		outputs["files"] = generated
	}

	if n.Deps.QuotaStore != nil {
		err := quota.Deduct(ctx, n.Deps.QuotaStore, req.TenantID, modelConfig.Model,
			n.Deps.ProviderConfig, completed.Usage, n.Deps.Credits)
		if err != nil {
			fail(fmt.Errorf("%w: deducting quota: %v", ErrInvoke, err))
			return
		}
	}

	if !emit(ctx, events, types.StreamChunkEvent{
		Selector: []string{n.ID, "text"},
		Final:    true,
	}) {
		return
	}
	emit(ctx, events, types.RunCompletedEvent{Result: types.NodeRunResult{
		Status:      types.RunSucceeded,
		Inputs:      inputs,
		ProcessData: processData,
		Outputs:     outputs,
		Usage:       completed.Usage,
	}})
}

// forward drains the invocation handler's event stream, relaying chunk
// events and capturing the completion.
func (n *Node) forward(ctx context.Context, result *invoke.InvokeResult, saver *output.Saver, start time.Time, events chan<- types.Event, fail func(error)) (types.CompletedEvent, bool) {
	handled := invoke.Handle(ctx, result, invoke.Options{
		NodeID:          n.ID,
		ReasoningFormat: n.Config.ReasoningFormat,
		Saver:           saver,
		RequestStart:    start,
		Logger:          n.logger(),
	})

	var completed *types.CompletedEvent
	for event := range handled {
		switch e := event.(type) {
		case types.StreamChunkEvent:
			if !emit(ctx, events, e) {
				return types.CompletedEvent{}, false
			}
		case types.ErrorEvent:
			fail(e.Err)
			return types.CompletedEvent{}, false
		case types.CompletedEvent:
			completed = &e
		}
	}
	if completed == nil {
		fail(fmt.Errorf("%w: stream ended without completion", ErrInvoke))
		return types.CompletedEvent{}, false
	}
	return *completed, true
}

// assemble dispatches to simple or advanced assembly based on whether
// the node declares an authored template.
func (n *Node) assemble(req RunRequest, query, contextText string, files []types.File, modelConfig types.ModelConfigWithCredentials) ([]types.PromptMessage, []string, error) {
	if n.Config.SimpleMode() {
		return prompt.AssembleSimple(prompt.SimpleOptions{
			PrePrompt:    n.Config.Prompt.PrePrompt,
			Inputs:       req.Inputs,
			Query:        query,
			Files:        files,
			Context:      contextText,
			Memory:       n.Deps.Memory,
			MemoryConfig: n.Config.Memory,
			ModelConfig:  modelConfig,
			TokenCounter: n.Deps.TokenCounter,
			FileResolver: n.Deps.FileResolver,
			VisionDetail: n.Config.ImageDetail(),
			Rules:        n.rules(),
		})
	}

	return prompt.AssembleAdvanced(prompt.AdvancedOptions{
		Template:      transformTemplate(n.Config.PromptTemplate()),
		Inputs:        req.Inputs,
		Jinja2Inputs:  req.Jinja2Inputs,
		Query:         query,
		Files:         files,
		Context:       contextText,
		Memory:        n.Deps.Memory,
		MemoryConfig:  n.Config.Memory,
		ModelConfig:   modelConfig,
		TokenCounter:  n.Deps.TokenCounter,
		FileResolver:  n.Deps.FileResolver,
		VisionDetail:  n.Config.ImageDetail(),
		VisionEnabled: n.Config.Vision.Enabled,
		CodeExecutor:  n.Deps.CodeExecutor,
	})
}

// resolveQuery applies the memory config's query template override
// when one is declared. The raw query stays available to the template
// as the #sys.query# token.
func (n *Node) resolveQuery(query string, inputs map[string]any) string {
	memoryConfig := n.Config.Memory
	if memoryConfig == nil || memoryConfig.QueryPromptTemplate == "" {
		return query
	}

	values := make(map[string]any, len(inputs)+1)
	for k, v := range inputs {
		values[k] = v
	}
	values["#sys.query#"] = query
	return prompt.Format(memoryConfig.QueryPromptTemplate, values)
}

// transformTemplate promotes each jinja2 entry's dedicated template
// body into the text slot, so snapshots and fallback paths see the
// body that will actually render.
func transformTemplate(template types.PromptTemplate) types.PromptTemplate {
	for i, message := range template.Messages {
		if message.EditionType == types.EditionJinja2 && message.Jinja2Text != "" {
			template.Messages[i].Text = message.Jinja2Text
		}
	}
	if c := template.Completion; c != nil && c.EditionType == types.EditionJinja2 && c.Jinja2Text != "" {
		completion := *c
		completion.Text = c.Jinja2Text
		template.Completion = &completion
	}
	return template
}

// contextString flattens a retrieved context value into one text
// block. Arrays may mix strings and retrieval objects carrying a
// content field; anything else is a data contract violation.
func contextString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []string:
		out := ""
		for i, item := range v {
			if i > 0 {
				out += "\n"
			}
			out += item
		}
		return out, nil
	case []any:
		out := ""
		for i, item := range v {
			text, err := contextItem(item)
			if err != nil {
				return "", err
			}
			if i > 0 {
				out += "\n"
			}
			out += text
		}
		return out, nil
	}
	return "", fmt.Errorf("%w: context is %T", ErrInvalidContextStructure, value)
}

func contextItem(item any) (string, error) {
	switch v := item.(type) {
	case string:
		return v, nil
	case map[string]any:
		if content, ok := v["content"].(string); ok {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: context item is %T without content", ErrInvalidContextStructure, item)
}

// filesFromValue coerces a resolved file variable into a file list.
func filesFromValue(value any) ([]types.File, error) {
	switch v := value.(type) {
	case types.File:
		return []types.File{v}, nil
	case []types.File:
		return v, nil
	case []any:
		files := make([]types.File, 0, len(v))
		for _, item := range v {
			file, ok := item.(types.File)
			if !ok {
				return nil, fmt.Errorf("%w: file variable item is %T", ErrInvalidVariableType, item)
			}
			files = append(files, file)
		}
		return files, nil
	}
	return nil, fmt.Errorf("%w: file variable is %T", ErrInvalidVariableType, value)
}

func (n *Node) rules() prompt.RuleRepository {
	if n.Deps.Rules != nil {
		return n.Deps.Rules
	}
	return prompt.NewEmbeddedRules()
}

func (n *Node) logger() *slog.Logger {
	if n.Deps.Logger != nil {
		return n.Deps.Logger
	}
	return slog.Default()
}

// emit delivers an event unless the context is cancelled.
func emit(ctx context.Context, events chan<- types.Event, event types.Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
