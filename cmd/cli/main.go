package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/mediaqr/internal/client/cli"
	"github.com/dmitrijs2005/mediaqr/internal/client/config"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, logging.FormatText, slog.LevelWarn)

	app, err := cli.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
