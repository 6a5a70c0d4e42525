// Package httpd implements the HTTP server command.
package httpd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/api"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/jobs"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
)

// Command returns the httpd command.
func Command(version func() string) *cobra.Command {
	var (
		noDB     bool
		runJobs  bool
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "httpd",
		Short: "Serve the permit API",
		Long: `Serve the permit API. With a database the records and jobs endpoints are
enabled and, with --jobs, queued scrape jobs are processed on a schedule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noDB && runJobs {
				return errors.New("--jobs requires a database")
			}

			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx := cmd.Context()
			m := metrics.New()

			var (
				records *database.RecordRepository
				queue   *database.JobRepository
				pinger  api.Pinger
			)
			if !noDB {
				db, dbErr := deps.OpenDatabase(ctx)
				if dbErr != nil {
					return dbErr
				}
				defer db.Close()

				records = database.NewRecordRepository(db)
				queue = database.NewJobRepository(db)
				pinger = db
			}

			opts := common.ServiceOptions{Fetch: true, Metrics: m}
			if records != nil {
				opts.Store = records
			}
			svc, err := deps.NewService(opts)
			if err != nil {
				return err
			}

			var handler *api.Handler
			if noDB {
				handler = api.NewHandler(svc, nil, nil)
			} else {
				handler = api.NewHandler(svc, records, queue)
			}

			router := api.NewRouter(api.RouterDeps{
				Handler: handler,
				Metrics: m,
				DB:      pinger,
				Logger:  deps.Logger.With(logger.Component("http")),
				Version: version(),
				Debug:   deps.Config.App.Debug,
			})
			server := api.NewServer(deps.Config.Server, router, deps.Logger)

			if runJobs {
				if schedule == "" {
					schedule = deps.Config.Jobs.Schedule
				}
				processor := jobs.NewProcessor(queue, svc, deps.Config.Jobs,
					jobs.WithRateLimit(deps.Config.Fetcher.RateLimit, deps.Config.Fetcher.Burst),
					jobs.WithMetrics(m),
					jobs.WithLogger(deps.Logger.With(logger.Component("jobs"))),
				)
				if startErr := processor.Start(ctx, schedule); startErr != nil {
					return startErr
				}
				defer processor.Stop()
			}

			if err = server.Run(ctx); err != nil {
				return fmt.Errorf("httpd: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDB, "no-db", false, "serve detect and extract only, without a database")
	cmd.Flags().BoolVar(&runJobs, "jobs", false, "process queued scrape jobs on a schedule")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule for --jobs (default from jobs.schedule)")

	return cmd
}
