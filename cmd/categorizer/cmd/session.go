package cmd

import (
	"github.com/spf13/viper"

	"statement-categorizer/cmd/categorizer/config"
	"statement-categorizer/internal/categorizer"
	"statement-categorizer/internal/reporter"
	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

// session bundles what a command needs: the loaded configuration and, for
// commands that read or write learned overrides, the open store and engine
type session struct {
	config *config.Config
	store  *categorizer.BoltStore
	engine *categorizer.Engine
	logger logger.Logger
}

// loadConfig decodes the configuration and installs the process logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.LoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", cfg.Log.Level, err)
	}
	logger.SetGlobalLogger(log)

	return cfg, nil
}

// openSession loads the configuration and opens the persistent engine.
// Callers must Close the session to release the store lock.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{config: cfg, logger: logger.WithComponent("cli")}

	s.store, err = categorizer.OpenBoltStore(cfg.Store.Path, cfg.Store.Bucket)
	if err != nil {
		return nil, err
	}

	s.engine, err = categorizer.NewEngine(s.store,
		categorizer.WithCatalog(cfg.Catalog()),
		categorizer.WithPatterns(cfg.PatternLibrary()),
	)
	if err != nil {
		s.store.Close()
		return nil, err
	}

	s.logger.WithField("store", s.store.Path()).Debug("Opened learned categories store")
	return s, nil
}

// memorySession is a session whose engine does not touch the store, for
// commands that only read the pattern library
func memorySession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	engine, err := categorizer.NewEngine(categorizer.NewMemoryStore(),
		categorizer.WithCatalog(cfg.Catalog()),
		categorizer.WithPatterns(cfg.PatternLibrary()),
	)
	if err != nil {
		return nil, err
	}
	return &session{config: cfg, engine: engine, logger: logger.WithComponent("cli")}, nil
}

// Close releases the store, if one is open
func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.WithError(err).Warn("Failed to close learned categories store")
	}
}

// reportGenerator builds a generator for format using the session catalog
func (s *session) reportGenerator(format string, colors bool) (*reporter.ReportGenerator, error) {
	reportConfig := reporter.DefaultReportConfig()
	reportConfig.Format = reporter.OutputFormat(format)
	reportConfig.UseColors = colors
	reportConfig.Catalog = s.config.Catalog()

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "output-format", format, err)
	}
	return generator, nil
}

// overwriteStore validates payload against the configured catalog and
// writes it over the stored table without loading the old one, which is
// how a corrupt table gets replaced. It returns the number of entries
// written.
func overwriteStore(payload string) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}

	scratch, err := categorizer.NewEngine(categorizer.NewMemoryStore(),
		categorizer.WithCatalog(cfg.Catalog()),
		categorizer.WithPatterns(cfg.PatternLibrary()),
	)
	if err != nil {
		return 0, err
	}
	if err := scratch.Import(payload); err != nil {
		return 0, err
	}

	encoded, err := scratch.Export()
	if err != nil {
		return 0, err
	}

	store, err := categorizer.OpenBoltStore(cfg.Store.Path, cfg.Store.Bucket)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.Set(categorizer.LearnedOverridesKey, encoded); err != nil {
		return 0, err
	}

	logger.WithComponent("cli").WithField("store", store.Path()).Warn("Replaced unreadable learned categories table")
	return len(scratch.Learned()), nil
}
