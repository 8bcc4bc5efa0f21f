package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"statement-categorizer/internal/categorizer"
	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

func loadYAML(t *testing.T, content string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Path != DefaultStorePath() {
		t.Errorf("expected default store path, got %s", cfg.Store.Path)
	}
	if cfg.Store.Bucket != categorizer.DefaultBucket {
		t.Errorf("expected default bucket, got %s", cfg.Store.Bucket)
	}
	if len(cfg.Catalog()) != len(models.DefaultCatalog()) {
		t.Error("expected the built-in catalog")
	}
	if len(cfg.PatternLibrary()) != len(categorizer.DefaultPatterns()) {
		t.Error("expected the built-in pattern library")
	}
	if len(cfg.MerchantAliases()) != len(normalize.DefaultMerchantAliases) {
		t.Error("expected the built-in merchant aliases")
	}

	logConfig := cfg.LoggerConfig(false)
	if logConfig.Level != logger.WarnLevel || logConfig.Format != logger.TextFormat {
		t.Errorf("unexpected logger defaults: %+v", logConfig)
	}
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := loadYAML(t, `
store:
  path: /tmp/categorizer/test.db
  bucket: pruebas
log:
  level: INFO
  format: json
ingest:
  default_year: 2023
  delimiter: ";"
categories:
  - id: supermercado
    name: Supermercado
  - id: bencina
    name: Bencina
patterns:
  - id: supermercado
    keywords: [lider, jumbo]
  - id: bencina
    keywords: [copec, shell]
merchants:
  - variant: shell
    canonical: Shell
`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Path != "/tmp/categorizer/test.db" || cfg.Store.Bucket != "pruebas" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Ingest.DefaultYear != 2023 {
		t.Errorf("expected default year 2023, got %d", cfg.Ingest.DefaultYear)
	}

	catalog := cfg.Catalog()
	if len(catalog) != 2 || catalog[1].ID != "bencina" {
		t.Errorf("unexpected catalog: %+v", catalog)
	}

	patterns := cfg.PatternLibrary()
	if len(patterns) != 2 || patterns[0].ID != "supermercado" || patterns[1].Keywords[1] != "shell" {
		t.Errorf("unexpected patterns: %+v", patterns)
	}

	if aliases := cfg.MerchantAliases(); len(aliases) != 1 || aliases[0].Canonical != "Shell" {
		t.Errorf("unexpected merchant aliases: %+v", aliases)
	}

	rowConfig, err := cfg.RowConfig()
	if err != nil {
		t.Fatalf("RowConfig() error = %v", err)
	}
	if rowConfig.Delimiter != ';' {
		t.Errorf("expected ';' delimiter, got %q", rowConfig.Delimiter)
	}

	logConfig := cfg.LoggerConfig(false)
	if logConfig.Level != logger.InfoLevel || logConfig.Format != logger.JSONFormat {
		t.Errorf("unexpected logger config: %+v", logConfig)
	}
	if cfg.LoggerConfig(true).Level != logger.DebugLevel {
		t.Error("expected verbose to force debug level")
	}
}

func TestLoad_Environment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("CATEGORIZER_STORE_PATH", path)
	t.Setenv("CATEGORIZER_INGEST_DEFAULT_YEAR", "2022")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Path != path {
		t.Errorf("expected store path from environment, got %s", cfg.Store.Path)
	}
	if cfg.Ingest.DefaultYear != 2022 {
		t.Errorf("expected default year from environment, got %d", cfg.Ingest.DefaultYear)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		setting string
	}{
		{
			name:    "bad log level",
			content: "log:\n  level: loud\n",
			setting: "log",
		},
		{
			name:    "year out of range",
			content: "ingest:\n  default_year: 24\n",
			setting: "ingest.default_year",
		},
		{
			name:    "multi character delimiter",
			content: "ingest:\n  delimiter: \"::\"\n",
			setting: "ingest.delimiter",
		},
		{
			name:    "unsupported delimiter",
			content: "ingest:\n  delimiter: \"#\"\n",
			setting: "ingest.delimiter",
		},
		{
			name:    "duplicate categories",
			content: "categories:\n  - id: hogar\n  - id: hogar\n",
			setting: "categories",
		},
		{
			name:    "pattern outside catalog",
			content: "patterns:\n  - id: mascotas\n    keywords: [petco]\n",
			setting: "patterns",
		},
		{
			name:    "pattern without keywords",
			content: "patterns:\n  - id: hogar\n    keywords: []\n",
			setting: "patterns",
		},
		{
			name:    "incomplete merchant alias",
			content: "merchants:\n  - variant: shell\n",
			setting: "merchants[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.content)
			if err == nil {
				t.Fatal("expected an error")
			}

			categorizerErr, ok := errors.AsCategorizerError(err)
			if !ok {
				t.Fatalf("expected CategorizerError, got %T", err)
			}
			if categorizerErr.Category != errors.CategoryConfiguration {
				t.Errorf("expected configuration category, got %s", categorizerErr.Category)
			}
			if categorizerErr.Context["setting"] != tt.setting {
				t.Errorf("expected setting %s, got %v", tt.setting, categorizerErr.Context["setting"])
			}
		})
	}
}

func TestRowConfig_Tab(t *testing.T) {
	cfg := &Config{Ingest: IngestConfig{Delimiter: "tab"}}
	rowConfig, err := cfg.RowConfig()
	if err != nil {
		t.Fatalf("RowConfig() error = %v", err)
	}
	if rowConfig.Delimiter != '\t' {
		t.Errorf("expected tab delimiter, got %q", rowConfig.Delimiter)
	}
}
