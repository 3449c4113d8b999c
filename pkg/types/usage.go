// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-invocation R5 (usage accounting).
package types

import "github.com/shopspring/decimal"

// LLMUsage records token, price, and latency figures for one
// invocation. It starts as EmptyUsage and is filled in as the stream
// drains; once the completion event is emitted it is not mutated again.
// TotalPrice and Currency are the invoker's duty: providers that report
// tokens only, such as Bedrock metadata, leave them at their EmptyUsage
// values.
type LLMUsage struct {
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         string          `json:"currency"`
	Latency          float64         `json:"latency"`             // Total request seconds
	TimeToFirstToken float64         `json:"time_to_first_token"` // Seconds until first non-empty fragment
	TimeToGenerate   float64         `json:"time_to_generate"`    // Seconds from first fragment to stream end
}

// EmptyUsage returns the zero-valued usage record. Absent
// provider-reported usage always degrades to this, never to nil.
func EmptyUsage() LLMUsage {
	return LLMUsage{
		TotalPrice: decimal.Zero,
		Currency:   "USD",
	}
}
