// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package output converts model-generated content into markdown-ready
// text, persisting multimodal parts as durable files along the way.
// Implements: prd004-output-saver R1-R3.
package output

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// Saver persists multimodal content parts and accumulates every saved
// file into Outputs so runs can expose generated files as first-class
// artifacts, not just embedded markdown.
type Saver struct {
	Files   types.FileSaver
	Outputs *[]types.File
	Logger  *slog.Logger
}

// Write converts one message's content into text fragments, invoking
// yield for each as soon as it is available. Text passes through;
// image parts are persisted and replaced by a markdown link; parts of
// unrecognized type degrade to their string form with a warning.
func (s *Saver) Write(message types.PromptMessage, yield func(string)) error {
	if message.Parts == nil {
		if message.Content != "" {
			yield(message.Content)
		}
		return nil
	}

	for _, part := range message.Parts {
		switch part.Type {
		case types.ContentText:
			if part.Data != "" {
				yield(part.Data)
			}
		case types.ContentImage:
			file, err := s.saveImage(part)
			if err != nil {
				return err
			}
			*s.Outputs = append(*s.Outputs, file)
			yield(imageMarkdown(file))
		default:
			s.logger().Warn("unknown content part type in model output", "type", string(part.Type))
			if part.Data != "" {
				yield(part.Data)
			}
		}
	}
	return nil
}

// saveImage persists one image part: remote URLs are downloaded and
// stored, inline payloads are base64-decoded and stored.
func (s *Saver) saveImage(part types.MessageContent) (types.File, error) {
	if part.URL != "" {
		file, err := s.Files.SaveRemoteURL(part.URL, types.FileImage)
		if err != nil {
			return nil, fmt.Errorf("saving remote image: %w", err)
		}
		return file, nil
	}

	data, err := base64.StdEncoding.DecodeString(part.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding inline image: %w", err)
	}
	file, err := s.Files.SaveBinaryString(data, part.MimeType, types.FileImage)
	if err != nil {
		return nil, fmt.Errorf("saving inline image: %w", err)
	}
	return file, nil
}

func (s *Saver) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// imageMarkdown renders a saved file as an inline markdown image.
func imageMarkdown(file types.File) string {
	return fmt.Sprintf("![](%s)", file.GenerateURL())
}
