// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package bedrock

import (
	"encoding/base64"
	"testing"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/llm-node/pkg/types"
)

func TestToBedrockMessages_RolesRoundTrip(t *testing.T) {
	system, messages, err := ToBedrockMessages([]types.PromptMessage{
		types.TextMessage(types.RoleSystem, "be terse"),
		types.TextMessage(types.RoleUser, "hi"),
		types.TextMessage(types.RoleAssistant, "hello"),
		types.TextMessage(types.RoleUser, "more"),
	})

	require.NoError(t, err)
	require.Len(t, system, 1)
	sys, ok := system[0].(*brtypes.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "be terse", sys.Value)

	require.Len(t, messages, 3)
	assert.Equal(t, brtypes.ConversationRoleUser, messages[0].Role)
	assert.Equal(t, brtypes.ConversationRoleAssistant, messages[1].Role)
	assert.Equal(t, brtypes.ConversationRoleUser, messages[2].Role)
}

func TestToBedrockMessages_ToolRoleFoldsToUser(t *testing.T) {
	_, messages, err := ToBedrockMessages([]types.PromptMessage{
		types.TextMessage(types.RoleTool, "tool result"),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, messages[0].Role)
}

func TestToBedrockMessages_InlineImageDecoded(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	_, messages, err := ToBedrockMessages([]types.PromptMessage{
		types.PartsMessage(types.RoleUser, []types.MessageContent{
			types.TextPart("what is this"),
			{Type: types.ContentImage, Data: base64.StdEncoding.EncodeToString(payload), MimeType: "image/png"},
		}),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Content, 2)

	image, ok := messages[0].Content[1].(*brtypes.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, brtypes.ImageFormatPng, image.Value.Format)
	source, ok := image.Value.Source.(*brtypes.ImageSourceMemberBytes)
	require.True(t, ok)
	assert.Equal(t, payload, source.Value)
}

func TestToBedrockMessages_UnsupportedPartsDropped(t *testing.T) {
	_, messages, err := ToBedrockMessages([]types.PromptMessage{
		types.PartsMessage(types.RoleUser, []types.MessageContent{
			types.TextPart("listen"),
			{Type: types.ContentAudio, Data: "aaaa"},
			{Type: types.ContentImage, URL: "https://remote/pic.png"},
		}),
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Content, 1)
	text, ok := messages[0].Content[0].(*brtypes.ContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "listen", text.Value)
}

func TestToBedrockMessages_EmptyMessagesSkipped(t *testing.T) {
	system, messages, err := ToBedrockMessages([]types.PromptMessage{
		types.TextMessage(types.RoleUser, ""),
		types.PartsMessage(types.RoleUser, []types.MessageContent{
			{Type: types.ContentAudio, Data: "unsupported only"},
		}),
	})

	require.NoError(t, err)
	assert.Empty(t, system)
	assert.Empty(t, messages)
}

func TestToBedrockMessages_BadInlineImageFails(t *testing.T) {
	_, _, err := ToBedrockMessages([]types.PromptMessage{
		types.PartsMessage(types.RoleUser, []types.MessageContent{
			{Type: types.ContentImage, Data: "!!not-base64!!"},
		}),
	})

	assert.Error(t, err)
}

func TestImageFormat_MimeMapping(t *testing.T) {
	assert.Equal(t, brtypes.ImageFormatPng, imageFormat("image/png"))
	assert.Equal(t, brtypes.ImageFormatGif, imageFormat("image/gif"))
	assert.Equal(t, brtypes.ImageFormatWebp, imageFormat("image/webp"))
	assert.Equal(t, brtypes.ImageFormatJpeg, imageFormat("image/jpeg"))
	assert.Equal(t, brtypes.ImageFormatJpeg, imageFormat(""))
}
