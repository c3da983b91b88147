package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/network-goods-institute/index-wallets-backend/internal/common"
	"github.com/network-goods-institute/index-wallets-backend/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	causesFlag := flag.String("causes", "", "Path to causes.yaml (default: CAUSES_FILE env or causes.yaml)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	causesFile := *causesFlag
	if causesFile == "" {
		causesFile = cfg.Database.CausesFile
	}

	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	zap.L().Info("Registering causes", zap.String("file", causesFile))
	if err := common.BootstrapCauses(ctx, dbService, causesFile); err != nil {
		zap.L().Fatal("Failed to bootstrap causes", zap.Error(err))
	}

	causes, err := dbService.GetCauses(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list causes", zap.Error(err))
	}

	common.PrintHeader("REGISTERED CAUSES", common.DefaultWidth)
	for i, c := range causes {
		prefix := common.BoxPrefix(i == len(causes)-1)
		fmt.Printf("%s %-8s %-30s $%.4f/token (%s)\n",
			prefix, c.TokenSymbol, c.Name, c.CurrentPrice, c.Status)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d causes ready", len(causes)), common.DefaultWidth)

	zap.L().Info("Setup complete", zap.Int("causes", len(causes)))
}
