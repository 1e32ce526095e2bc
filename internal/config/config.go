package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WalletConfig describes one of the tracked payment-source identities.
type WalletConfig struct {
	Name       string
	Multiplier int64
	PayDay     int
	Password   string
}

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Income rule
	RateThreshold string

	// Wallets
	Wallets []WalletConfig

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets audit export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/cartera.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		RateThreshold: getEnv("RATE_THRESHOLD", "4400"),

		Wallets: []WalletConfig{
			{
				Name:       getEnv("WALLET_1_NAME", "rafael"),
				Multiplier: getEnvInt64("WALLET_1_MULTIPLIER", 2300),
				PayDay:     getEnvInt("WALLET_1_PAYDAY", 25),
				Password:   getEnv("WALLET_1_PASSWORD", ""),
			},
			{
				Name:       getEnv("WALLET_2_NAME", "jessica"),
				Multiplier: getEnvInt64("WALLET_2_MULTIPLIER", 3000),
				PayDay:     getEnvInt("WALLET_2_PAYDAY", 20),
				Password:   getEnv("WALLET_2_PASSWORD", ""),
			},
		},

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "cartera"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT secret must be at least 16 characters")
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if threshold, err := decimal.NewFromString(c.RateThreshold); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rate threshold '%s': must be a decimal number", c.RateThreshold))
	} else if !threshold.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid rate threshold %s: must be positive", threshold))
	}

	if len(c.Wallets) != 2 {
		errors = append(errors, fmt.Sprintf("expected exactly 2 wallets, got %d", len(c.Wallets)))
	}
	seen := map[string]bool{}
	for _, w := range c.Wallets {
		if w.Name == "" {
			errors = append(errors, "wallet name cannot be empty")
			continue
		}
		if seen[w.Name] {
			errors = append(errors, fmt.Sprintf("duplicate wallet name '%s'", w.Name))
		}
		seen[w.Name] = true
		if w.Multiplier < 1 {
			errors = append(errors, fmt.Sprintf("invalid multiplier %d for wallet '%s': must be at least 1", w.Multiplier, w.Name))
		}
		if w.PayDay < 1 || w.PayDay > 31 {
			errors = append(errors, fmt.Sprintf("invalid payday %d for wallet '%s': must be between 1 and 31", w.PayDay, w.Name))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Sheets export is optional, but when a spreadsheet is configured the
	// credentials must come from somewhere.
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google sheet name is required when a spreadsheet ID is configured")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Threshold returns the parsed income rate threshold. Validate must have
// passed first.
func (c *Config) Threshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.RateThreshold)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
