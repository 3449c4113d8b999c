// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prompt assembles the ordered prompt message sequence sent to
// a model: template parsing, simple rule-based construction, and
// advanced user-authored construction.
// Implements: prd001-prompt-assembly R1-R8.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Special template keys filled by the assembler rather than by user
// variables. They are plain keys, not value paths.
const (
	KeyContext   = "#context#"
	KeyQuery     = "#query#"
	KeyHistories = "#histories#"
)

// placeholderRe matches {{name}} placeholders. The name is kept
// verbatim, whitespace and unicode included, so it can serve as the
// lookup key exactly as authored.
var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// VariableSelector is one variable referenced by a template, paired
// with the dotted value path callers use to resolve it.
type VariableSelector struct {
	Variable  string   // Placeholder name, verbatim
	ValuePath []string // Resolution path; a single element for special keys
}

// ExtractVariableSelectors returns the variables referenced by a
// template, in first-appearance order, without duplicates.
func ExtractVariableSelectors(template string) []VariableSelector {
	var selectors []VariableSelector
	seen := make(map[string]struct{})
	for _, match := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		selectors = append(selectors, VariableSelector{
			Variable:  name,
			ValuePath: valuePath(name),
		})
	}
	return selectors
}

// valuePath maps a placeholder name to its resolution path. Special
// keys stay whole; other names split on dots.
func valuePath(name string) []string {
	switch name {
	case KeyContext, KeyQuery, KeyHistories:
		return []string{name}
	}
	return strings.Split(name, ".")
}

// Format substitutes every recognized placeholder with the string form
// of its value. A placeholder absent from values renders as the empty
// string; Format never fails. A template with no placeholders is
// returned unchanged.
func Format(template string, values map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		value, ok := values[name]
		if !ok || value == nil {
			return ""
		}
		return stringify(value)
	})
}

// stringify renders a template value as text.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
