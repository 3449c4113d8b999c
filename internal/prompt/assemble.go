// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-prompt-assembly R7 (content filtering), R8
//
//	(final normalization).
package prompt

import "github.com/petar-djukic/llm-node/pkg/types"

// normalize applies per-model content filtering and collapses the
// message list to its final frozen form. It is a pure transformation:
// input messages are never mutated, so snapshots taken before assembly
// (e.g. for process-data logging) stay intact.
//
// Rules, in order: parts whose type the model's feature set does not
// support are dropped silently; a message whose content collapses to a
// single text part is flattened back to plain-string content; messages
// left empty are removed. An empty final sequence is an error.
func normalize(messages []types.PromptMessage, modelConfig types.ModelConfigWithCredentials) ([]types.PromptMessage, error) {
	out := make([]types.PromptMessage, 0, len(messages))
	for _, message := range messages {
		if message.Parts != nil {
			filtered := filterParts(message.Parts, modelConfig.Schema)
			if len(filtered) == 1 && filtered[0].Type == types.ContentText {
				message = types.PromptMessage{Role: message.Role, Content: filtered[0].Data}
			} else {
				message = types.PromptMessage{Role: message.Role, Parts: filtered}
			}
		}
		if message.IsEmpty() {
			continue
		}
		out = append(out, message)
	}

	if len(out) == 0 {
		return nil, ErrNoPromptFound
	}
	return out, nil
}

// filterParts drops content parts the model cannot accept. A schema
// with no declared features degrades to text-only; otherwise each
// media type requires its matching feature.
func filterParts(parts []types.MessageContent, schema types.ModelSchema) []types.MessageContent {
	filtered := make([]types.MessageContent, 0, len(parts))
	for _, part := range parts {
		if part.Type == types.ContentText {
			filtered = append(filtered, part)
			continue
		}
		if len(schema.Features) == 0 {
			continue
		}
		switch part.Type {
		case types.ContentImage:
			if !schema.HasFeature(types.FeatureVision) {
				continue
			}
		case types.ContentVideo:
			if !schema.HasFeature(types.FeatureVideo) {
				continue
			}
		case types.ContentAudio:
			if !schema.HasFeature(types.FeatureAudio) {
				continue
			}
		case types.ContentDocument:
			if !schema.HasFeature(types.FeatureDocument) {
				continue
			}
		}
		filtered = append(filtered, part)
	}
	return filtered
}
