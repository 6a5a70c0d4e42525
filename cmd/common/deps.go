// Package common provides shared wiring for command implementations.
package common

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/fetcher"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform/plugins"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/scraper"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the configuration from viper and builds the logger.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CommandDeps{}, err
	}

	logCfg := cfg.Logger
	logCfg.Service = cfg.App.Name
	log, err := logger.New(logCfg)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}
	return deps, deps.Validate()
}

// OpenDatabase connects to Postgres.
func (d CommandDeps) OpenDatabase(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(ctx, d.Config.Database)
	if err != nil {
		return nil, err
	}
	d.Logger.Debug("Connected to database",
		logger.String("host", d.Config.Database.Host),
		logger.String("database", d.Config.Database.DBName),
	)
	return db, nil
}

// ServiceOptions selects the optional collaborators of NewService.
type ServiceOptions struct {
	Fetch   bool
	Store   scraper.RecordStore
	Metrics *metrics.Metrics
}

// NewService builds the scraper service over the configured platform registry.
func (d CommandDeps) NewService(opts ServiceOptions) (*scraper.Service, error) {
	registry, err := plugins.NewRegistry(d.Config.Platforms, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("load platforms: %w", err)
	}

	svcOpts := []scraper.Option{
		scraper.WithLogger(d.Logger.With(logger.Component("scraper"))),
		scraper.WithMetrics(opts.Metrics),
	}
	if opts.Fetch {
		f := fetcher.New(d.Config.Fetcher, d.Logger.With(logger.Component("fetcher")), opts.Metrics)
		svcOpts = append(svcOpts, scraper.WithFetcher(f))
	}
	if opts.Store != nil {
		svcOpts = append(svcOpts, scraper.WithStore(opts.Store))
	}

	return scraper.NewService(registry, svcOpts...), nil
}

// ReadPage returns the contents of path, or stdin when path is "-".
func ReadPage(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(data), nil
}
