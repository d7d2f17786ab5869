package main

import (
	"context"
	"fmt"
	"os"

	"site2tg/internal/app"
	"site2tg/internal/config"
	"site2tg/internal/domain"
	"site2tg/internal/logging"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if config.WroteHelp(err) {
			fmt.Println(err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(domain.ExitConfig)
	}

	logger := logging.New(cfg.LogLevel)
	application := app.New(cfg, logger)

	if err := application.Run(context.Background()); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(domain.ExitCode(err))
	}
}
