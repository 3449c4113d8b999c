// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config parses and validates node configuration documents:
// the model selection, prompt template, memory policy, vision settings,
// and output options one node run is driven by.
// Implements: prd009-node-config R1-R4.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/llm-node/pkg/types"
)

var (
	// ErrModelNotExist indicates model resolution failed.
	ErrModelNotExist = errors.New("model does not exist")
	// ErrLLMModeRequired indicates the node configuration is missing the
	// model mode.
	ErrLLMModeRequired = errors.New("LLM mode is required")
)

// ModelSection selects the model and its runtime parameters. The
// context size and feature list stand in for a provider-supplied model
// schema when no resolution service is wired in.
type ModelSection struct {
	Provider         string         `yaml:"provider"`
	Name             string         `yaml:"name"`
	Mode             string         `yaml:"mode"`
	CompletionParams map[string]any `yaml:"completion_params"`
	ContextSize      int            `yaml:"context_size"`
	Features         []string       `yaml:"features"`
}

// PromptMessageSection is one authored chat template entry.
type PromptMessageSection struct {
	Role        string `yaml:"role"`
	Text        string `yaml:"text"`
	EditionType string `yaml:"edition_type"`
	Jinja2Text  string `yaml:"jinja2_text"`
}

// PromptSection is the template shape: an authored chat message list,
// a single completion block, or a simple-mode pre-prompt handled by
// the fixed rule templates.
type PromptSection struct {
	Messages   []PromptMessageSection `yaml:"messages"`
	Completion *struct {
		Text        string `yaml:"text"`
		EditionType string `yaml:"edition_type"`
		Jinja2Text  string `yaml:"jinja2_text"`
	} `yaml:"completion"`
	PrePrompt string `yaml:"pre_prompt"`
}

// VisionSection enables file attachment and sets the image detail hint.
type VisionSection struct {
	Enabled bool   `yaml:"enabled"`
	Detail  string `yaml:"detail"`
}

// NodeConfig is one node's full YAML configuration document.
type NodeConfig struct {
	Model                   ModelSection        `yaml:"model"`
	Prompt                  PromptSection       `yaml:"prompt"`
	Memory                  *types.MemoryConfig `yaml:"memory"`
	Vision                  VisionSection       `yaml:"vision"`
	ContextEnabled          bool                `yaml:"context_enabled"`
	ReasoningFormat         string              `yaml:"reasoning_format"`
	Stream                  bool                `yaml:"stream"`
	StructuredOutputEnabled bool                `yaml:"structured_output_enabled"`
	StructuredOutput        map[string]any      `yaml:"structured_output"`
}

// SimpleMode reports whether the prompt section declares no authored
// template and assembly should follow the fixed rule templates.
func (c NodeConfig) SimpleMode() bool {
	return len(c.Prompt.Messages) == 0 && c.Prompt.Completion == nil
}

// Load reads a node configuration document from disk and validates it.
func Load(path string) (NodeConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg NodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// Validate performs sanity checks on the configuration.
func (c NodeConfig) Validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("%w: model.name is empty", ErrModelNotExist)
	}
	if c.Model.Mode != string(types.ModeChat) && c.Model.Mode != string(types.ModeCompletion) {
		return fmt.Errorf("%w: model.mode must be %q or %q, got %q",
			ErrLLMModeRequired, types.ModeChat, types.ModeCompletion, c.Model.Mode)
	}
	if len(c.Prompt.Messages) > 0 && c.Prompt.Completion != nil {
		return fmt.Errorf("prompt declares both messages and completion")
	}
	return nil
}

// PromptTemplate converts the prompt section into the runtime template
// shape.
func (c NodeConfig) PromptTemplate() types.PromptTemplate {
	if c.Prompt.Completion != nil {
		return types.PromptTemplate{
			Completion: &types.CompletionModelPromptTemplate{
				Text:        c.Prompt.Completion.Text,
				EditionType: editionType(c.Prompt.Completion.EditionType),
				Jinja2Text:  c.Prompt.Completion.Jinja2Text,
			},
		}
	}

	messages := make([]types.ChatModelMessage, 0, len(c.Prompt.Messages))
	for _, m := range c.Prompt.Messages {
		messages = append(messages, types.ChatModelMessage{
			Role:        types.MessageRole(m.Role),
			Text:        m.Text,
			EditionType: editionType(m.EditionType),
			Jinja2Text:  m.Jinja2Text,
		})
	}
	return types.PromptTemplate{Messages: messages}
}

func editionType(s string) types.EditionType {
	if s == string(types.EditionJinja2) {
		return types.EditionJinja2
	}
	return types.EditionBasic
}

// Schema builds a model schema from the model section's declared
// context size and features.
func (c NodeConfig) Schema() types.ModelSchema {
	features := make([]types.ModelFeature, 0, len(c.Model.Features))
	for _, f := range c.Model.Features {
		features = append(features, types.ModelFeature(f))
	}
	return types.ModelSchema{
		ContextSize: c.Model.ContextSize,
		Features:    features,
		ParameterRules: []types.ParameterRule{
			{Name: "max_tokens", UseTemplate: "max_tokens"},
		},
	}
}

// ModelConfig resolves the model section into the invocation-ready
// model configuration. Stop sequences are extracted out of the
// completion parameters so providers receive them separately.
func (c NodeConfig) ModelConfig(schema types.ModelSchema) types.ModelConfigWithCredentials {
	parameters := make(map[string]any, len(c.Model.CompletionParams))
	for k, v := range c.Model.CompletionParams {
		parameters[k] = v
	}

	var stop []string
	if raw, ok := parameters["stop"]; ok {
		delete(parameters, "stop")
		stop = stringSlice(raw)
	}

	return types.ModelConfigWithCredentials{
		Provider:   c.Model.Provider,
		Model:      c.Model.Name,
		Mode:       types.ModelMode(c.Model.Mode),
		Schema:     schema,
		Parameters: parameters,
		Stop:       stop,
	}
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	}
	return nil
}

// ImageDetail maps the vision section's detail hint onto the typed
// value, defaulting to low.
func (c NodeConfig) ImageDetail() types.ImageDetail {
	if c.Vision.Detail == string(types.DetailHigh) {
		return types.DetailHigh
	}
	return types.DetailLow
}
