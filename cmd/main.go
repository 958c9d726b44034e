package main

import (
	"context"

	"go.uber.org/zap"

	"gochat/internal/app"
	"gochat/internal/config"
)

func main() {
	logger, _ := zap.NewProduction(zap.AddStacktrace(zap.FatalLevel))
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := app.Run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("failed to run app", "error", err)
	}
}
