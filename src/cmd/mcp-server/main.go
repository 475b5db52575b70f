// Package main provides the MCP server entry point for xcreport.
// Tools are served over stdin/stdout; logs go to stderr.
package main

import (
	"context"
	"fmt"
	"os"

	"xcreport/src/config"
	"xcreport/src/logger"
	"xcreport/src/mcp"
	"xcreport/src/pipeline"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol.
	log := logger.NewWriterLogger(os.Stderr, os.Stderr, cfg.Debug)

	// Reports go to Postgres when configured, otherwise they live for the session.
	cfg.RedpandaBrokers = nil
	backend, err := pipeline.Open(context.Background(), cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	server := mcp.NewServer(backend.Store, log)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
