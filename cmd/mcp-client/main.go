// Command mcp-client checks MCP health and lists users, devices and
// conditional access policies, printing a transcript to stdout.
//
// Exit status is 0 when every step completes and 1 on any failure (config,
// startup or a failed request). The failure is reported once on stderr as
// "Error in main function: <message>".
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/samvad-hq/mcp-inventory-client/internal/app"
	"github.com/samvad-hq/mcp-inventory-client/internal/config"
	"github.com/samvad-hq/mcp-inventory-client/internal/logger"
)

func main() {
	os.Exit(report(os.Stderr, run()))
}

// report prints err, if any, and returns the process exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	color.New(color.FgRed).Fprintf(w, "Error in main function: %v\n", err)
	return 1
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.DebugObj("mcp client starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, os.Stdout, log)
	if err != nil {
		log.ErrorObj("failed to initialize client", "error", err.Error())
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.ErrorObj("runtime close failed", "error", err.Error())
		}
	}()

	_, err = rt.Run(ctx)
	return err
}
