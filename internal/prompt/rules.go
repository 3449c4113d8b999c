// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R4 (simple-mode rule documents).
package prompt

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/llm-node/pkg/types"
)

//go:embed rules/*.yaml
var rulesFS embed.FS

// Rules is one simple-mode prompt rule document: the fixed segment
// texts and the order they are concatenated in.
type Rules struct {
	HumanPrefix        string   `yaml:"human_prefix"`
	AssistantPrefix    string   `yaml:"assistant_prefix"`
	ContextPrompt      string   `yaml:"context_prompt"`
	HistoriesPrompt    string   `yaml:"histories_prompt"`
	QueryPrompt        string   `yaml:"query_prompt"`
	SystemPromptOrders []string `yaml:"system_prompt_orders"`
	Stops              []string `yaml:"stops"`
}

// RuleRepository loads rule documents by key. Injected so the cache's
// lifetime is explicit and tests can substitute fakes.
type RuleRepository interface {
	GetOrLoad(key string) (*Rules, error)
}

// RuleKey returns the rule document key for a model mode.
func RuleKey(mode types.ModelMode) string {
	if mode == types.ModeCompletion {
		return "common_completion"
	}
	return "common_chat"
}

// EmbeddedRules is a read-through cache over the embedded rule files.
type EmbeddedRules struct {
	mu    sync.Mutex
	cache map[string]*Rules
}

// NewEmbeddedRules creates an empty rule cache.
func NewEmbeddedRules() *EmbeddedRules {
	return &EmbeddedRules{cache: make(map[string]*Rules)}
}

// GetOrLoad returns the cached document for key, loading and caching
// it on first use.
func (r *EmbeddedRules) GetOrLoad(key string) (*Rules, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rules, ok := r.cache[key]; ok {
		return rules, nil
	}

	raw, err := rulesFS.ReadFile("rules/" + key + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("loading prompt rules %q: %w", key, err)
	}

	rules := &Rules{}
	if err := yaml.Unmarshal(raw, rules); err != nil {
		return nil, fmt.Errorf("parsing prompt rules %q: %w", key, err)
	}

	r.cache[key] = rules
	return rules, nil
}
