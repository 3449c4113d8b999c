// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// collect concatenates fragment text by kind and counts markers.
func collect(fragments []Fragment) (text, thought string, starts, ends int) {
	for _, f := range fragments {
		switch f.Kind {
		case FragmentText:
			text += f.Text
		case FragmentThought:
			thought += f.Text
		case FragmentThoughtStart:
			starts++
		case FragmentThoughtEnd:
			ends++
		}
	}
	return
}

func feedAll(chunks []string) (text, thought string, starts, ends int) {
	s := New()
	var fragments []Fragment
	for _, chunk := range chunks {
		fragments = append(fragments, s.Feed(chunk)...)
	}
	fragments = append(fragments, s.Flush()...)
	return collect(fragments)
}

func TestSplitter_WholeBlockInOneChunk(t *testing.T) {
	text, thought, starts, ends := feedAll([]string{"<think>R</think>A"})

	assert.Equal(t, "A", text)
	assert.Equal(t, "R", thought)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
}

func TestSplitter_TagSplitAcrossChunks(t *testing.T) {
	text, thought, starts, ends := feedAll([]string{"before <th", "ink>reason", "ing</thi", "nk> after"})

	assert.Equal(t, "before  after", text)
	assert.Equal(t, "reasoning", thought)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
}

func TestSplitter_CaseInsensitiveAndAttributes(t *testing.T) {
	text, thought, _, _ := feedAll([]string{`<THINK type="deep">R</Think>A`})

	assert.Equal(t, "A", text)
	assert.Equal(t, "R", thought)
}

func TestSplitter_UnclosedBlockClosedOnFlush(t *testing.T) {
	s := New()
	fragments := s.Feed("<think>never closed")
	fragments = append(fragments, s.Flush()...)

	text, thought, starts, ends := collect(fragments)
	assert.Empty(t, text)
	assert.Equal(t, "never closed", thought)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
}

func TestSplitter_DanglingPartialTagDroppedOnFlush(t *testing.T) {
	s := New()
	fragments := s.Feed("answer <thi")
	fragments = append(fragments, s.Flush()...)

	text, thought, starts, ends := collect(fragments)
	assert.Equal(t, "answer ", text)
	assert.Empty(t, thought)
	assert.Zero(t, starts)
	assert.Zero(t, ends)
}

func TestSplitter_PlainTextPassesThrough(t *testing.T) {
	text, thought, starts, ends := feedAll([]string{"no tags ", "at all"})

	assert.Equal(t, "no tags at all", text)
	assert.Empty(t, thought)
	assert.Zero(t, starts)
	assert.Zero(t, ends)
}

func TestSplitter_AngleBracketNotATag(t *testing.T) {
	text, _, starts, _ := feedAll([]string{"a < b and <tag> stays"})

	assert.Equal(t, "a < b and <tag> stays", text)
	assert.Zero(t, starts)
}

func TestSplitter_PartitionEquivalence(t *testing.T) {
	const sample = "pre<think>deep reasoning</think>post"

	wantText, wantThought, _, _ := feedAll([]string{sample})

	// Every 2-way partition.
	for i := 0; i <= len(sample); i++ {
		text, thought, starts, ends := feedAll([]string{sample[:i], sample[i:]})
		assert.Equal(t, wantText, text, "split at %d", i)
		assert.Equal(t, wantThought, thought, "split at %d", i)
		assert.Equal(t, 1, starts, "split at %d", i)
		assert.Equal(t, 1, ends, "split at %d", i)
	}

	// Every 3-way partition.
	for i := 0; i <= len(sample); i++ {
		for j := i; j <= len(sample); j++ {
			text, thought, starts, ends := feedAll([]string{sample[:i], sample[i:j], sample[j:]})
			assert.Equal(t, wantText, text, "split at %d,%d", i, j)
			assert.Equal(t, wantThought, thought, "split at %d,%d", i, j)
			assert.Equal(t, 1, starts, "split at %d,%d", i, j)
			assert.Equal(t, 1, ends, "split at %d,%d", i, j)
		}
	}
}

func TestSplitReasoning_TaggedIsIdentity(t *testing.T) {
	text, reasoning := SplitReasoning("<think>R</think>A", "tagged")

	assert.Equal(t, "<think>R</think>A", text)
	assert.Empty(t, reasoning)
}

func TestSplitReasoning_SeparatedStripsBlocks(t *testing.T) {
	text, reasoning := SplitReasoning("<think>R</think>A", "separated")

	assert.Equal(t, "A", text)
	assert.Equal(t, "R", reasoning)
}

func TestSplitReasoning_SeparatedJoinsMultipleBlocks(t *testing.T) {
	text, reasoning := SplitReasoning("<think> first </think>mid<think>second</think> tail", "separated")

	assert.Equal(t, "mid tail", text)
	assert.Equal(t, "first\nsecond", reasoning)
}

func TestSplitReasoning_SeparatedCollapsesBlankRuns(t *testing.T) {
	text, _ := SplitReasoning("a\n\n\n<think>x</think>\n\n\nb", "separated")

	assert.Equal(t, "a\n\nb", text)
	assert.False(t, strings.Contains(text, "\n\n\n"))
}

func TestSplitReasoning_UnknownFormatIsIdentity(t *testing.T) {
	text, reasoning := SplitReasoning("<think>R</think>A", "")

	assert.Equal(t, "<think>R</think>A", text)
	assert.Empty(t, reasoning)
}
