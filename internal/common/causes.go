package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/network-goods-institute/index-wallets-backend/internal/database"
	"github.com/network-goods-institute/index-wallets-backend/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type CauseConfig struct {
	Name          string `yaml:"name"`
	Organization  string `yaml:"organization"`
	Description   string `yaml:"description"`
	TokenName     string `yaml:"token_name"`
	TokenSymbol   string `yaml:"token_symbol"`
	TokenImageUrl string `yaml:"token_image_url"`
}

type CausesConfig struct {
	Causes []CauseConfig `yaml:"causes"`
}

func LoadCauseConfig(causesFile string) ([]CauseConfig, error) {
	var causesPath string
	if filepath.IsAbs(causesFile) {
		causesPath = causesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		causesPath = filepath.Join(wd, causesFile)
	}

	data, err := os.ReadFile(causesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", causesFile, err)
	}

	var config CausesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", causesFile, err)
	}

	for i, cause := range config.Causes {
		if cause.Name == "" {
			return nil, fmt.Errorf("cause at index %d missing name", i)
		}
		if cause.TokenSymbol == "" {
			return nil, fmt.Errorf("cause at index %d missing token symbol", i)
		}
		if cause.TokenName == "" {
			return nil, fmt.Errorf("cause at index %d missing token name", i)
		}
	}

	return config.Causes, nil
}

// BootstrapCauses registers the configured causes and their tokens. Existing
// rows are left alone, so rerunning setup is safe.
func BootstrapCauses(ctx context.Context, db *database.Service, causesFile string) error {
	configs, err := LoadCauseConfig(causesFile)
	if err != nil {
		return err
	}

	for _, c := range configs {
		err := db.CreateCause(ctx, models.Cause{
			Name:          c.Name,
			Organization:  c.Organization,
			Description:   c.Description,
			TokenName:     c.TokenName,
			TokenSymbol:   c.TokenSymbol,
			Status:        models.CauseActive,
			TokenImageUrl: c.TokenImageUrl,
		})
		if err != nil {
			return fmt.Errorf("failed to register cause %s: %w", c.TokenSymbol, err)
		}

		// Placeholder token id until the issuer vault mints; shard 1.
		err = db.CreateToken(ctx, models.Token{
			TokenId:         fmt.Sprintf("%s,1", strings.ToLower(c.TokenSymbol)),
			TokenName:       c.TokenName,
			TokenSymbol:     c.TokenSymbol,
			MarketValuation: 0.01,
			TokenImageUrl:   c.TokenImageUrl,
		})
		if err != nil {
			return fmt.Errorf("failed to register token %s: %w", c.TokenSymbol, err)
		}

		zap.L().Info("Cause registered",
			zap.String("name", c.Name),
			zap.String("symbol", c.TokenSymbol))
	}

	zap.L().Info("Cause bootstrap complete", zap.Int("count", len(configs)))
	return nil
}
