// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd008-bedrock-provider R5 (message conversion).
package bedrock

import (
	"encoding/base64"
	"fmt"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// ToBedrockMessages converts generic prompt messages into Bedrock's
// Converse shape. System messages become system content blocks; user
// and assistant messages keep their role. Tool messages are folded
// into the user role since tool use is not part of this surface.
// Content parts Bedrock cannot carry (remote-URL media, video, audio,
// documents) are dropped; a message left with no convertible content
// is skipped.
func ToBedrockMessages(messages []types.PromptMessage) ([]brtypes.SystemContentBlock, []brtypes.Message, error) {
	var system []brtypes.SystemContentBlock
	var converted []brtypes.Message

	for _, message := range messages {
		if message.Role == types.RoleSystem {
			text := flattenText(message)
			if text != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: text})
			}
			continue
		}

		blocks, err := contentBlocks(message)
		if err != nil {
			return nil, nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		role := brtypes.ConversationRoleUser
		if message.Role == types.RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		converted = append(converted, brtypes.Message{Role: role, Content: blocks})
	}
	return system, converted, nil
}

func contentBlocks(message types.PromptMessage) ([]brtypes.ContentBlock, error) {
	if message.Parts == nil {
		if message.Content == "" {
			return nil, nil
		}
		return []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: message.Content}}, nil
	}

	var blocks []brtypes.ContentBlock
	for _, part := range message.Parts {
		switch part.Type {
		case types.ContentText:
			if part.Data != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: part.Data})
			}
		case types.ContentImage:
			if part.URL != "" {
				// Converse takes only inline bytes; the assembler
				// resolves files to inline payloads before this point.
				continue
			}
			block, err := imageBlock(part)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

func imageBlock(part types.MessageContent) (brtypes.ContentBlock, error) {
	data, err := base64.StdEncoding.DecodeString(part.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding inline image: %w", err)
	}
	return &brtypes.ContentBlockMemberImage{
		Value: brtypes.ImageBlock{
			Format: imageFormat(part.MimeType),
			Source: &brtypes.ImageSourceMemberBytes{Value: data},
		},
	}, nil
}

func imageFormat(mimeType string) brtypes.ImageFormat {
	switch mimeType {
	case "image/png":
		return brtypes.ImageFormatPng
	case "image/gif":
		return brtypes.ImageFormatGif
	case "image/webp":
		return brtypes.ImageFormatWebp
	default:
		return brtypes.ImageFormatJpeg
	}
}

// flattenText collapses a message's content into plain text, ignoring
// non-text parts.
func flattenText(message types.PromptMessage) string {
	if message.Parts == nil {
		return message.Content
	}
	text := ""
	for _, part := range message.Parts {
		if part.Type == types.ContentText {
			text += part.Data
		}
	}
	return text
}
