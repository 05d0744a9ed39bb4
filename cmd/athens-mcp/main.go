// Athens: HDL Language Reference Manual MCP Server
//
// An MCP server that gives any AI coding tool read access to
// pre-indexed HDL reference manuals (Verilog, SystemVerilog, VHDL):
// semantic search, section retrieval, table of contents, code example
// search, and table extraction.
//
// Usage:
//
//	athens-mcp serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/athens-hdl/athens-mcp/internal/config"
	athensserver "github.com/athens-hdl/athens-mcp/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("athens-mcp v%s\n", athensserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	// Logs go to stderr: stdout is the MCP stdio transport.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, cleanup, err := athensserver.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt: the stdio server exits when
	// stdin closes, but a signal should still release the store.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	log.Info().Str("version", athensserver.Version).Str("db", cfg.DBPath).Msg("serving")
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Athens v%s — HDL Language Reference Manual MCP Server

Usage:
  athens-mcp serve    Start the MCP server (stdio transport)

Configuration:
  Settings load from ~/.athens/config.toml and ATHENS_* environment
  variables (ATHENS_DB_PATH, ATHENS_EMBEDDING_URL, ATHENS_OLLAMA_HOST).

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "athens": {
        "command": "athens-mcp",
        "args": ["serve"]
      }
    }
  }
`, athensserver.Version)
}
