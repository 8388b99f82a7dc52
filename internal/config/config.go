// Package config loads the tool's configuration from the environment.
// Everything the engine needs is handed over as explicit structs; no
// package reads environment variables at use time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dvloznov/bill-ledger/internal/extract"
	"github.com/dvloznov/bill-ledger/internal/ledger"
)

// Config holds all runtime settings.
type Config struct {
	// LedgerPath is the spreadsheet file bills are merged into.
	LedgerPath string

	// Column indices of the fixed ledger layout (0-indexed).
	ColDate  int
	ColStore int
	ColItem  int
	ColPrice int
	ColTotal int

	// TotalTolerance is the duplicate-detection slack in currency units.
	TotalTolerance float64

	// GeminiModel selects the extraction model.
	GeminiModel string

	// GCSBucket enables source-PDF archival when non-empty.
	GCSBucket string
	// GoogleCredentialsFile overrides Application Default Credentials.
	GoogleCredentialsFile string
}

// Load reads the configuration from the environment. A .env file in
// the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	defaults := ledger.DefaultConfig()
	return &Config{
		LedgerPath: getEnv("LEDGER_FILE", ""),

		ColDate:  getEnvInt("LEDGER_COL_DATE", defaults.Columns.Date),
		ColStore: getEnvInt("LEDGER_COL_STORE", defaults.Columns.Store),
		ColItem:  getEnvInt("LEDGER_COL_ITEM", defaults.Columns.Item),
		ColPrice: getEnvInt("LEDGER_COL_PRICE", defaults.Columns.Price),
		ColTotal: getEnvInt("LEDGER_COL_TOTAL", defaults.Columns.Total),

		TotalTolerance: getEnvFloat("LEDGER_TOTAL_TOLERANCE", defaults.Tolerance),

		GeminiModel: getEnv("GEMINI_MODEL", extract.DefaultModel),

		GCSBucket:             getEnv("GCS_BUCKET", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.LedgerPath == "" {
		return fmt.Errorf("LEDGER_FILE must be set")
	}
	if ext := filepath.Ext(c.LedgerPath); ext == "" {
		return fmt.Errorf("ledger file %q has no extension; backup naming needs one", c.LedgerPath)
	}
	return c.Ledger().Validate()
}

// Ledger builds the engine configuration.
func (c *Config) Ledger() ledger.Config {
	return ledger.Config{
		Columns: ledger.Columns{
			Date:  c.ColDate,
			Store: c.ColStore,
			Item:  c.ColItem,
			Price: c.ColPrice,
			Total: c.ColTotal,
		},
		Tolerance: c.TotalTolerance,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
