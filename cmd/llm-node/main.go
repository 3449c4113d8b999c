// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command llm-node runs one LLM workflow node from a configuration
// document against AWS Bedrock, streaming the answer to stdout.
// Implements: prd010-cli R1-R3.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "llm-node",
		Short: "Prompt assembly and LLM invocation node",
		Long:  "llm-node assembles a prompt from a node configuration document, invokes a Bedrock model, and streams the text, reasoning, and usage result.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("config", "node.yaml", "Node configuration file")
	rootCmd.PersistentFlags().String("model", "", "Bedrock model ID (overrides the config document)")
	rootCmd.PersistentFlags().String("region", "", "AWS region for Bedrock")
	rootCmd.PersistentFlags().String("profile", "", "AWS credential profile")
	rootCmd.PersistentFlags().String("output-dir", "out", "Directory for generated files")
	rootCmd.PersistentFlags().String("tenant", "default", "Tenant ID for quota accounting")

	// Bind flags to viper.
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("output-dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))

	// Env vars: LLM_NODE_MODEL, LLM_NODE_REGION, etc.
	viper.SetEnvPrefix("LLM_NODE")
	viper.AutomaticEnv()

	// Config file for CLI defaults (distinct from the node document).
	viper.SetConfigName(".llm-node")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print llm-node version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("llm-node %s\n", version)
		},
	}
}
