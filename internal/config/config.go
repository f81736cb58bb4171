// Package config loads the TOML configuration file and supplies defaults.
// Rule tables (vendor aliases, category keywords, exclusion keywords) are
// plain values injected into the pipeline, never ambient globals.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Store      StoreConfig      `toml:"store"`
	Extraction ExtractionConfig `toml:"extraction"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Recurring  RecurringConfig  `toml:"recurring"`
	Rules      RulesConfig      `toml:"rules"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Metrics        bool     `toml:"metrics"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `toml:"backend"`
	// Path is the SQLite database file, used when Backend is "sqlite".
	Path string `toml:"path"`
}

// ExtractionConfig configures the OCR+LLM extraction collaborator.
type ExtractionConfig struct {
	// GeminiAPIKey falls back to the GEMINI_API_KEY environment variable.
	GeminiAPIKey string `toml:"gemini_api_key"`
	Model        string `toml:"model"`
	// JobTTLMinutes bounds how long finished extraction jobs are kept.
	JobTTLMinutes int `toml:"job_ttl_minutes"`
}

// PipelineConfig holds the tunables of the normalize/validate/resolve core.
type PipelineConfig struct {
	// VATRate is the jurisdiction VAT rate. UAE regime: 0.05.
	VATRate float64 `toml:"vat_rate"`
	// ConfidenceThreshold is the per-field extractor confidence below which
	// a confirm-or-correct question is raised.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	DefaultCurrency     string  `toml:"default_currency"`
	// CategoryFallback is "none" (leave unset, ask the reviewer) or "other"
	// (assign Other Business Expenses when no rule matches).
	CategoryFallback string `toml:"category_fallback"`
	// AssumeNetWhenUnflagged treats an amount with no tax figure and no
	// VAT flag as net instead of asking the reviewer.
	AssumeNetWhenUnflagged bool `toml:"assume_net_when_unflagged"`
}

// RecurringConfig configures the recurring expense detector.
type RecurringConfig struct {
	// ExcludeKeywords drops vendors whose name contains any keyword.
	// Government and one-off payment vendors never recur meaningfully.
	ExcludeKeywords []string `toml:"exclude_keywords"`
}

// VendorRule collapses vendor name variants to a canonical display name
// and optionally assigns a category. First matching rule wins.
type VendorRule struct {
	// Match is a case-insensitive substring of the raw vendor name.
	Match string `toml:"match"`
	Name  string `toml:"name"`
	// Category must be one of the closed category set; empty leaves the
	// category to keyword rules.
	Category string `toml:"category"`
}

// KeywordRule assigns a category when the keyword appears in the vendor
// name or document notes.
type KeywordRule struct {
	Keyword  string `toml:"keyword"`
	Category string `toml:"category"`
}

// RulesConfig carries the vendor and category rule tables.
type RulesConfig struct {
	Vendors  []VendorRule  `toml:"vendors"`
	Keywords []KeywordRule `toml:"keywords"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8211,
			AllowedOrigins: []string{"http://localhost:1234", "http://127.0.0.1:1234"},
			Metrics:        true,
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "expenselens.db",
		},
		Extraction: ExtractionConfig{
			Model:         "gemini-1.5-flash",
			JobTTLMinutes: 60,
		},
		Pipeline: PipelineConfig{
			VATRate:             0.05,
			ConfidenceThreshold: 0.70,
			DefaultCurrency:     "AED",
			CategoryFallback:    "none",
		},
		Recurring: RecurringConfig{
			ExcludeKeywords: []string{
				"traffic", "fine", "visa", "immigration", "municipality",
				"court", "police", "customs", "ministry",
			},
		},
		Rules: RulesConfig{
			Vendors:  defaultVendorRules(),
			Keywords: defaultKeywordRules(),
		},
	}
}

// Load reads a TOML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Extraction.GeminiAPIKey == "" {
		c.Extraction.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c *Config) validate() error {
	if c.Pipeline.VATRate < 0 || c.Pipeline.VATRate >= 1 {
		return fmt.Errorf("pipeline.vat_rate %v out of range [0,1)", c.Pipeline.VATRate)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline.confidence_threshold %v out of range [0,1]", c.Pipeline.ConfidenceThreshold)
	}
	switch c.Pipeline.CategoryFallback {
	case "none", "other":
	default:
		return fmt.Errorf("pipeline.category_fallback must be %q or %q, got %q", "none", "other", c.Pipeline.CategoryFallback)
	}
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", "memory", "sqlite", c.Store.Backend)
	}
	return nil
}
