package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanSettlementMode decides what the yearly settlement does with ACTIVE loans
type LoanSettlementMode string

const (
	// LoanModeCarryForward rolls the unpaid balance into a new loan for the next year
	LoanModeCarryForward LoanSettlementMode = "carry_forward"
	// LoanModeSettle force-closes the loan at the settlement date
	LoanModeSettle LoanSettlementMode = "settle"
)

const (
	defaultDepositRate    = "2.5"
	defaultLoanRate       = "5.0"
	defaultSettlementCron = "59 23 31 3 *"
	defaultTimezone       = "Asia/Kolkata"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Ledger
	DepositMonthlyRate decimal.Decimal
	LoanMonthlyRate    decimal.Decimal
	SettlementCron     string
	LoanSettlementMode LoanSettlementMode
	// Location decides which calendar date "today" is. It is UTC when Timezone cannot be loaded.
	Timezone string
	Location *time.Location
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		SettlementCron: getEnv("SETTLEMENT_CRON", defaultSettlementCron),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var err error
	if cfg.DepositMonthlyRate, err = getEnvAsRate("DEPOSIT_MONTHLY_RATE", defaultDepositRate); err != nil {
		return nil, err
	}
	if cfg.LoanMonthlyRate, err = getEnvAsRate("LOAN_MONTHLY_RATE", defaultLoanRate); err != nil {
		return nil, err
	}

	mode := LoanSettlementMode(strings.ToLower(getEnv("LOAN_SETTLEMENT_MODE", string(LoanModeCarryForward))))
	switch mode {
	case LoanModeCarryForward, LoanModeSettle:
		cfg.LoanSettlementMode = mode
	default:
		return nil, fmt.Errorf("LOAN_SETTLEMENT_MODE must be %q or %q, got %q", LoanModeCarryForward, LoanModeSettle, mode)
	}

	cfg.Timezone = getEnv("TIMEZONE", defaultTimezone)
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		cfg.Location = time.UTC
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// getEnvAsRate reads a non-negative monthly percentage
func getEnvAsRate(key, defaultValue string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(getEnv(key, defaultValue)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return value, nil
}
