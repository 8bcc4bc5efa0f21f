package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"

	"statement-categorizer/internal/categorizer"
	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	"statement-categorizer/internal/parsers"
	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

// EnvPrefix is the prefix of environment variables read by the CLI, e.g.
// CATEGORIZER_STORE_PATH
const EnvPrefix = "CATEGORIZER"

// Config is the file and environment configuration of the CLI
type Config struct {
	Store      StoreConfig                `mapstructure:"store"`
	Log        LogConfig                  `mapstructure:"log"`
	Ingest     IngestConfig               `mapstructure:"ingest"`
	Categories []models.Category          `mapstructure:"categories"`
	Patterns   categorizer.PatternLibrary `mapstructure:"patterns"`
	Merchants  []normalize.MerchantAlias  `mapstructure:"merchants"`
}

// StoreConfig locates the learned override database
type StoreConfig struct {
	Path   string `mapstructure:"path"`
	Bucket string `mapstructure:"bucket"`
}

// LogConfig selects log verbosity and layout
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// IngestConfig holds ingestion defaults
type IngestConfig struct {
	// DefaultYear is used for year-less dates when the statement header has
	// none. Zero means the current year.
	DefaultYear int `mapstructure:"default_year"`
	// Delimiter forces the CSV delimiter. Empty sniffs it.
	Delimiter string `mapstructure:"delimiter"`
}

// DefaultStorePath returns the per-user location of the override database
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "statement-categorizer", "overrides.db")
}

// SetDefaults registers defaults for every scalar key so that environment
// variables can override them
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.bucket", categorizer.DefaultBucket)
	v.SetDefault("log.level", string(logger.WarnLevel))
	v.SetDefault("log.format", string(logger.TextFormat))
	v.SetDefault("log.file", "")
	v.SetDefault("ingest.default_year", 0)
	v.SetDefault("ingest.delimiter", "")
}

// BindEnv makes nested keys readable from CATEGORIZER_* variables
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "store.path", c.Store.Path,
			fmt.Errorf("store path cannot be empty"))
	}

	if err := c.LoggerConfig(false).Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", c.Log.Level, err)
	}

	if c.Ingest.DefaultYear != 0 && (c.Ingest.DefaultYear < 1900 || c.Ingest.DefaultYear > 2100) {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "ingest.default_year", c.Ingest.DefaultYear,
			fmt.Errorf("year must be between 1900 and 2100"))
	}

	rowConfig, err := c.RowConfig()
	if err != nil {
		return err
	}
	if err := rowConfig.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "ingest.delimiter", c.Ingest.Delimiter, err)
	}

	catalog := c.Catalog()
	if err := catalog.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "categories", len(c.Categories), err)
	}
	if err := c.PatternLibrary().Validate(catalog); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "patterns", len(c.Patterns), err)
	}

	for i, alias := range c.Merchants {
		if normalize.Key(alias.Variant) == "" || strings.TrimSpace(alias.Canonical) == "" {
			return errors.ConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("merchants[%d]", i), alias.Variant,
				fmt.Errorf("merchant alias needs both a variant and a canonical name"))
		}
	}

	return nil
}

// Catalog returns the configured categories, or the built-in catalog
func (c *Config) Catalog() models.Catalog {
	if len(c.Categories) == 0 {
		return models.DefaultCatalog()
	}
	return models.Catalog(c.Categories)
}

// PatternLibrary returns the configured patterns, or the built-in library
func (c *Config) PatternLibrary() categorizer.PatternLibrary {
	if len(c.Patterns) == 0 {
		return categorizer.DefaultPatterns()
	}
	return c.Patterns
}

// MerchantAliases returns the configured aliases, or the built-in table
func (c *Config) MerchantAliases() []normalize.MerchantAlias {
	if len(c.Merchants) == 0 {
		return normalize.DefaultMerchantAliases
	}
	return c.Merchants
}

// RowConfig builds the CSV row configuration
func (c *Config) RowConfig() (*parsers.RowConfig, error) {
	rowConfig := parsers.DefaultRowConfig()

	switch delimiter := c.Ingest.Delimiter; {
	case delimiter == "":
	case delimiter == `\t` || delimiter == "tab":
		rowConfig.Delimiter = '\t'
	case utf8.RuneCountInString(delimiter) == 1:
		rowConfig.Delimiter, _ = utf8.DecodeRuneInString(delimiter)
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ingest.delimiter", delimiter,
			fmt.Errorf("delimiter must be a single character"))
	}

	return rowConfig, nil
}

// LoggerConfig builds the logger configuration. Verbose forces debug level.
func (c *Config) LoggerConfig(verbose bool) *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Log.Level != "" {
		cfg.Level = logger.Level(strings.ToLower(c.Log.Level))
	}
	if c.Log.Format != "" {
		cfg.Format = logger.Format(strings.ToLower(c.Log.Format))
	}
	if c.Log.File != "" {
		cfg.Output = logger.FileOutput
		cfg.File = c.Log.File
	}
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	return cfg
}
