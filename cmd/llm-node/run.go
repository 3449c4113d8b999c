// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd010-cli R2 (run command).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/llm-node/internal/config"
	"github.com/petar-djukic/llm-node/internal/output"
	"github.com/petar-djukic/llm-node/internal/provider/bedrock"
	"github.com/petar-djukic/llm-node/internal/quota"
	"github.com/petar-djukic/llm-node/pkg/node"
	"github.com/petar-djukic/llm-node/pkg/types"
)

// newRunCmd creates the "run" command.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one node run",
		Long:  "Run loads a node configuration document, assembles the prompt with the given query and inputs, invokes the model, and streams the answer to stdout.",
		RunE:  runNode,
	}

	cmd.Flags().StringP("query", "q", "", "User query (required)")
	cmd.Flags().StringToString("input", nil, "Template variable values (key=value, repeatable)")
	cmd.Flags().String("context", "", "Context text injected into the prompt")
	cmd.MarkFlagRequired("query")

	return cmd
}

// runNode executes one node run against Bedrock.
func runNode(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	rawInputs, _ := cmd.Flags().GetStringToString("input")
	contextText, _ := cmd.Flags().GetString("context")

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading node config: %w", err)
	}

	modelID := viper.GetString("model")
	if modelID == "" {
		modelID = cfg.Model.Name
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	invoker, err := bedrock.New(ctx, bedrock.Config{
		ModelID: modelID,
		Region:  viper.GetString("region"),
		Profile: viper.GetString("profile"),
	})
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	inputs := make(map[string]any, len(rawInputs))
	for k, v := range rawInputs {
		inputs[k] = v
	}

	n := &node.Node{
		ID:     "llm",
		Config: cfg,
		Schema: cfg.Schema(),
		Deps: node.Deps{
			Invoker:      invoker,
			TokenCounter: estimateCounter{},
			FileSaver:    &output.LocalFileSaver{Dir: viper.GetString("output-dir")},
			QuotaStore:   quota.NewMemoryStore(),
		},
	}

	req := node.RunRequest{
		Inputs:   inputs,
		Query:    query,
		TenantID: viper.GetString("tenant"),
	}
	if cfg.ContextEnabled {
		req.Context = contextText
	}

	var result *types.NodeRunResult
	for event := range n.Run(ctx, req) {
		switch e := event.(type) {
		case types.StreamChunkEvent:
			fmt.Print(e.Chunk)
		case types.RunCompletedEvent:
			r := e.Result
			result = &r
		}
	}
	fmt.Println()

	if result == nil {
		return fmt.Errorf("run ended without a result")
	}
	printResult(result)
	if result.Status == types.RunFailed {
		return fmt.Errorf("%s: %s", result.ErrorType, result.Error)
	}
	return nil
}

// printResult outputs the run result as JSON to stderr, keeping stdout
// clean for the streamed answer.
func printResult(result *types.NodeRunResult) {
	out, err := json.MarshalIndent(map[string]any{
		"status":  result.Status,
		"outputs": result.Outputs,
		"usage":   result.Usage,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, string(out))
}

// estimateCounter approximates token counts at four characters per
// token. Good enough for budget arithmetic when no model-specific
// tokenizer is wired in.
type estimateCounter struct{}

func (estimateCounter) CountTokens(messages []types.PromptMessage) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
		for _, part := range m.Parts {
			if part.Type == types.ContentText {
				chars += len(part.Data)
			}
		}
	}
	return chars / 4
}
