package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arterio/storefront/app/cmd"
	"github.com/arterio/storefront/app/configs"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	env, err := configs.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := configs.NewLogger(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.RunCli(ctx, os.Args, env, logger, os.Stdout); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			stop()
			logger.Sync()
			os.Exit(exitErr.ExitCode())
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Fatal("Storefront stopped", zap.Error(err))
	}
}
