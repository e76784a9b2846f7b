// Package main is the projectlens command-line entrypoint. It analyzes one
// record and exits 0 when the results were written back, 1 otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kiranshivaraju/projectlens/internal/config"
	"github.com/kiranshivaraju/projectlens/internal/pipeline"
)

var errUsage = errors.New("usage: analyze <record-id> (or set PAGE_ID)")

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	recordID, err := recordIDFrom(args)
	if err != nil {
		slog.Error("invalid invocation", "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}

	orch, err := pipeline.FromConfig(cfg)
	if err != nil {
		slog.Error("build pipeline", "error", err)
		return 1
	}

	out := orch.Run(ctx, recordID)
	fmt.Fprint(stdout, out.Summary.String())
	return out.ExitCode()
}

// recordIDFrom takes the record from the first argument, falling back to PAGE_ID.
func recordIDFrom(args []string) (string, error) {
	id := os.Getenv("PAGE_ID")
	if len(args) > 0 {
		id = args[0]
	}
	if len(args) > 1 {
		return "", errUsage
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errUsage
	}
	return id, nil
}
