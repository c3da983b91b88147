package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Webhook  WebhookConfig
	Executor ExecutorConfig
	Formance FormanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	CreateDemoUsers bool
	CausesFile      string
}

// WebhookConfig holds checkout webhook listener settings
type WebhookConfig struct {
	Port            int
	SigningSecret   string
	ShutdownTimeout time.Duration
}

// ExecutorConfig holds settings for the vault execution backend client
type ExecutorConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// FormanceConfig holds Formance Stack connection settings for the optional
// ledger mirror. Leave StackURL empty to disable mirroring.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
