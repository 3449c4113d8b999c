// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package bedrock implements the model-invocation boundary against AWS
// Bedrock's ConverseStream API.
// Implements: prd008-bedrock-provider R1 (client), R4 (error handling).
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/petar-djukic/llm-node/internal/invoke"
	"github.com/petar-djukic/llm-node/pkg/types"
)

const (
	defaultTimeout   = 300 * time.Second
	maxRetryAttempts = 3
	baseRetryDelay   = 1 * time.Second
)

// ErrProvider indicates the Bedrock call failed (network, auth, rate limit).
var ErrProvider = errors.New("bedrock provider failure")

// Config configures the Bedrock invoker.
type Config struct {
	ModelID string        // Bedrock model ID (required)
	Region  string        // AWS region (required)
	Profile string        // AWS credential profile (optional, uses default chain if empty)
	Timeout time.Duration // Request timeout (default 300s)
}

// API abstracts the Bedrock ConverseStream call for testing.
type API interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// Invoker sends prompt messages to a Bedrock model. It implements
// invoke.ModelInvoker.
type Invoker struct {
	api     API
	modelID string
	timeout time.Duration
}

// New creates a Bedrock invoker from the given configuration. It
// initializes the AWS SDK client using the standard credential chain.
func New(ctx context.Context, cfg Config) (*Invoker, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("%w: model ID is required", ErrProvider)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrProvider)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrProvider, err)
	}

	return NewWithAPI(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewWithAPI creates an invoker with a pre-configured API
// implementation. Used for testing with mock clients.
func NewWithAPI(api API, cfg Config) *Invoker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Invoker{
		api:     api,
		modelID: cfg.ModelID,
		timeout: timeout,
	}
}

// Invoke sends the request to Bedrock. Streaming requests return a
// chunk channel fed by a background goroutine; blocking requests drain
// the same stream internally and return one complete result.
func (inv *Invoker) Invoke(ctx context.Context, req invoke.InvokeRequest) (*invoke.InvokeResult, error) {
	system, messages, err := ToBedrockMessages(req.PromptMessages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	// The timeout covers the ConverseStream call and the event stream
	// that follows it, so a stalled provider cannot hold an undeadlined
	// caller forever.
	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)

	output, err := inv.converseWithRetry(callCtx, system, messages, req)
	if err != nil {
		cancel()
		return nil, err
	}

	chunks := make(chan types.LLMResultChunk, 64)
	go func() {
		defer cancel()
		consumeStream(callCtx, inv.modelID, req.PromptMessages, output.GetStream(), chunks)
	}()

	if req.Stream {
		return &invoke.InvokeResult{Stream: chunks}, nil
	}
	return &invoke.InvokeResult{Result: drain(inv.modelID, req.PromptMessages, chunks)}, nil
}

// converseWithRetry calls ConverseStream with exponential backoff on
// throttling errors.
func (inv *Invoker) converseWithRetry(ctx context.Context, system []brtypes.SystemContentBlock, messages []brtypes.Message, req invoke.InvokeRequest) (*bedrockruntime.ConverseStreamOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: context cancelled during retry: %v", ErrProvider, ctx.Err())
			}
		}

		input := &bedrockruntime.ConverseStreamInput{
			ModelId:         aws.String(inv.modelID),
			System:          system,
			Messages:        messages,
			InferenceConfig: inferenceConfig(req.Parameters, req.Stop),
		}

		output, err := inv.api.ConverseStream(ctx, input)
		if err != nil {
			var throttle *brtypes.ThrottlingException
			if errors.As(err, &throttle) {
				lastErr = err
				continue
			}
			return nil, inv.classifyError(err)
		}
		return output, nil
	}

	return nil, fmt.Errorf("%w: rate limited after %d retries: %v", ErrProvider, maxRetryAttempts, lastErr)
}

// inferenceConfig maps the generic parameter bag onto Bedrock's
// inference configuration. Unknown parameters are ignored.
func inferenceConfig(parameters map[string]any, stop []string) *brtypes.InferenceConfiguration {
	cfg := &brtypes.InferenceConfiguration{}
	if v, ok := intValue(parameters["max_tokens"]); ok {
		cfg.MaxTokens = aws.Int32(int32(v))
	}
	if v, ok := floatValue(parameters["temperature"]); ok {
		cfg.Temperature = aws.Float32(float32(v))
	}
	if v, ok := floatValue(parameters["top_p"]); ok {
		cfg.TopP = aws.Float32(float32(v))
	}
	if len(stop) > 0 {
		cfg.StopSequences = stop
	}
	return cfg
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// classifyError wraps Bedrock errors into ErrProvider with descriptive
// messages. Error text references the model ID only, never credentials.
func (inv *Invoker) classifyError(err error) error {
	var accessDenied *brtypes.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return fmt.Errorf("%w: credential or permission issue: %v", ErrProvider, err)
	}

	var notFound *brtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: model not found: %s", ErrProvider, inv.modelID)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", ErrProvider, inv.timeout)
	}

	return fmt.Errorf("%w: %v", ErrProvider, err)
}
