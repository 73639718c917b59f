package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/apicoin/apicoin/internal/config"
	"github.com/apicoin/apicoin/internal/infra"
	"github.com/apicoin/apicoin/internal/logging"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [command]")
		fmt.Fprintln(os.Stderr, "Commands: up, down, status, redo")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := infra.RunMigrations(ctx, cfg.DatabaseURL, flag.Arg(0), logger); err != nil {
		logger.Error("migration failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	logger.Info("migration finished", "command", flag.Arg(0))
}
