// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package splitter classifies streamed model text into reasoning and
// visible answer fragments, recognizing <think> blocks even when a tag
// is split across chunk deliveries.
// Implements: prd003-stream-splitter R1-R4.
package splitter

import (
	"regexp"
	"strings"
)

// FragmentKind tags one emitted fragment.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentThought
	FragmentThoughtStart
	FragmentThoughtEnd
)

// Fragment is one classified piece of streamed text. Marker fragments
// (thought_start/thought_end) carry no text.
type Fragment struct {
	Kind FragmentKind
	Text string
}

// Opening tags may carry attributes; closing tags are literal.
var (
	openTagRe  = regexp.MustCompile(`(?i)<think[^>]*>`)
	closeTagRe = regexp.MustCompile(`(?i)</think>`)
	// thinkBlockRe extracts whole blocks for the post-hoc split and the
	// stray-fragment safeguard.
	thinkBlockRe = regexp.MustCompile(`(?is)<think[^>]*>(.*?)</think>`)
	blankRunRe   = regexp.MustCompile(`\n\s*\n`)
)

const (
	stateNormal = iota
	stateInThink
)

// Splitter is the incremental two-state machine. The buffer holds the
// longest trailing run that could still become a tag, so output is
// emitted as early as safely possible regardless of how the provider
// chunks the text.
type Splitter struct {
	state  int
	buffer string
}

// New creates a splitter in the normal (visible text) state.
func New() *Splitter {
	return &Splitter{}
}

// Feed consumes one chunk and returns the fragments it settles.
func (s *Splitter) Feed(chunk string) []Fragment {
	s.buffer += chunk

	var fragments []Fragment
	for {
		if s.state == stateNormal {
			loc := openTagRe.FindStringIndex(s.buffer)
			if loc == nil {
				hold := holdPoint(s.buffer, couldBeOpenPrefix)
				fragments = emit(fragments, FragmentText, s.buffer[:hold])
				s.buffer = s.buffer[hold:]
				return fragments
			}
			fragments = emit(fragments, FragmentText, s.buffer[:loc[0]])
			fragments = append(fragments, Fragment{Kind: FragmentThoughtStart})
			s.buffer = s.buffer[loc[1]:]
			s.state = stateInThink
			continue
		}

		loc := closeTagRe.FindStringIndex(s.buffer)
		if loc == nil {
			hold := holdPoint(s.buffer, couldBeClosePrefix)
			fragments = emit(fragments, FragmentThought, s.buffer[:hold])
			s.buffer = s.buffer[hold:]
			return fragments
		}
		fragments = emit(fragments, FragmentThought, s.buffer[:loc[0]])
		fragments = append(fragments, Fragment{Kind: FragmentThoughtEnd})
		s.buffer = s.buffer[loc[1]:]
		s.state = stateNormal
	}
}

// Flush ends the stream. Residual text is emitted under the current
// state unless it is itself a dangling partial tag, which can never
// resolve and is dropped. An open think block is closed.
func (s *Splitter) Flush() []Fragment {
	var fragments []Fragment

	if s.buffer != "" {
		dangling := couldBeOpenPrefix(s.buffer)
		kind := FragmentText
		if s.state == stateInThink {
			dangling = couldBeClosePrefix(s.buffer)
			kind = FragmentThought
		}
		if !dangling {
			fragments = emit(fragments, kind, s.buffer)
		}
		s.buffer = ""
	}

	if s.state == stateInThink {
		fragments = append(fragments, Fragment{Kind: FragmentThoughtEnd})
		s.state = stateNormal
	}
	return fragments
}

// emit appends a text-bearing fragment, stripping any tag text that
// survived the scan as a final safeguard. Empty fragments are skipped.
func emit(fragments []Fragment, kind FragmentKind, text string) []Fragment {
	text = closeTagRe.ReplaceAllString(openTagRe.ReplaceAllString(text, ""), "")
	if text == "" {
		return fragments
	}
	return append(fragments, Fragment{Kind: kind, Text: text})
}

// holdPoint returns the earliest index from which the rest of the
// buffer could still be the prefix of a future tag. Everything before
// it is safe to emit.
func holdPoint(buffer string, couldBePrefix func(string) bool) int {
	for i := 0; i < len(buffer); i++ {
		if buffer[i] == '<' && couldBePrefix(buffer[i:]) {
			return i
		}
	}
	return len(buffer)
}

// couldBeOpenPrefix reports whether s could grow into "<think...>".
// Attributes may contain anything but '>', so once "<think" is seen
// any '>'-free tail keeps the possibility alive.
func couldBeOpenPrefix(s string) bool {
	const tag = "<think"
	if len(s) <= len(tag) {
		return strings.HasPrefix(tag, strings.ToLower(s))
	}
	if !strings.EqualFold(s[:len(tag)], tag) {
		return false
	}
	return !strings.Contains(s[len(tag):], ">")
}

// couldBeClosePrefix reports whether s could grow into "</think>".
func couldBeClosePrefix(s string) bool {
	const tag = "</think>"
	if len(s) >= len(tag) {
		return false
	}
	return strings.HasPrefix(tag, strings.ToLower(s))
}

// SplitReasoning is the post-hoc whole-text counterpart used on the
// blocking path and after a stream drains. Tagged format returns the
// text unchanged with no separate reasoning; separated format strips
// the blocks, joins their contents, and tidies the remaining text.
func SplitReasoning(text, reasoningFormat string) (cleanText, reasoningContent string) {
	if reasoningFormat != "separated" {
		return text, ""
	}

	matches := thinkBlockRe.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, strings.TrimSpace(match[1]))
	}
	reasoningContent = strings.Join(blocks, "\n")

	cleanText = thinkBlockRe.ReplaceAllString(text, "")
	cleanText = strings.TrimSpace(blankRunRe.ReplaceAllString(cleanText, "\n\n"))
	return cleanText, reasoningContent
}
