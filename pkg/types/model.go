// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R3 (model identity and schema).
package types

// ModelMode distinguishes chat models from completion models.
type ModelMode string

const (
	ModeChat       ModelMode = "chat"
	ModeCompletion ModelMode = "completion"
)

// ModelFeature names a content capability declared by a model schema.
type ModelFeature string

const (
	FeatureVision           ModelFeature = "vision"
	FeatureVideo            ModelFeature = "video"
	FeatureAudio            ModelFeature = "audio"
	FeatureDocument         ModelFeature = "document"
	FeatureStructuredOutput ModelFeature = "structured-output"
)

// ParameterRule describes one runtime parameter a model accepts.
type ParameterRule struct {
	Name        string   // Canonical parameter name
	UseTemplate string   // Template alias, e.g. "max_tokens" (empty if none)
	Options     []string // Enumerated values, for rules like response_format
}

// ModelSchema is the declared shape of a model: context window,
// supported content features, and parameter rules.
type ModelSchema struct {
	ContextSize    int // 0 means the schema declares no context size
	Features       []ModelFeature
	ParameterRules []ParameterRule
}

// HasFeature reports whether the schema declares the given feature.
func (s ModelSchema) HasFeature(f ModelFeature) bool {
	for _, have := range s.Features {
		if have == f {
			return true
		}
	}
	return false
}

// ModelConfigWithCredentials is the resolved model identity for one
// invocation: provider/model names, schema, credentials, and runtime
// parameters with stop sequences already extracted.
type ModelConfigWithCredentials struct {
	Provider    string
	Model       string
	Mode        ModelMode
	Schema      ModelSchema
	Credentials map[string]string
	Parameters  map[string]any
	Stop        []string
}
