package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StroyTrack/internal/cli/commands"
	"StroyTrack/internal/config"

	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Load unified config (env + flags)
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion()
		return
	}

	// подробный лог в stderr только по флагу -v
	if cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			commands.Logger = logger.Sugar()
			defer func() { _ = logger.Sync() }()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// dispatcher
	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == 0 {
		return
	}
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("StroyTrack CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
