// Package jobs implements the scrape job queue commands.
package jobs

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	internaljobs "github.com/jonesrussell/north-cloud/permit-scraper/internal/jobs"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
)

// Command returns the jobs command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage the scrape job queue",
	}

	cmd.AddCommand(enqueueCommand())
	cmd.AddCommand(seedCommand())
	cmd.AddCommand(runCommand())
	cmd.AddCommand(listCommand())

	return cmd
}

func enqueueCommand() *cobra.Command {
	var j domain.Jurisdiction

	cmd := &cobra.Command{
		Use:   "enqueue URL...",
		Short: "Queue pages for scraping",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds := make([]internaljobs.Seed, 0, len(args))
			for _, arg := range args {
				u := strings.TrimSpace(arg)
				if err := internaljobs.ValidateURL(u); err != nil {
					return err
				}
				seeds = append(seeds, internaljobs.Seed{URL: u, Jurisdiction: j})
			}
			return enqueue(cmd, seeds)
		},
	}

	cmd.Flags().StringVar(&j.State, "state", "", "known state of the pages")
	cmd.Flags().StringVar(&j.County, "county", "", "known county of the pages")
	cmd.Flags().StringVar(&j.City, "city", "", "known city of the pages")

	return cmd
}

func seedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Queue every page listed in a seeds file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeds, err := internaljobs.LoadSeeds(file)
			if err != nil {
				return err
			}
			return enqueue(cmd, seeds)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seeds.yaml", "seeds file")
	return cmd
}

func enqueue(cmd *cobra.Command, seeds []internaljobs.Seed) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return err
	}

	db, err := deps.OpenDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	created, existing, err := internaljobs.SeedJobs(cmd.Context(), database.NewJobRepository(db), seeds)
	if err != nil {
		return err
	}

	deps.Logger.Info("Scrape jobs queued",
		logger.Int("created", created),
		logger.Int("already_queued", existing),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "queued %d job(s), %d already queued\n", created, existing)
	return nil
}

func runCommand() *cobra.Command {
	var (
		once     bool
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued scrape jobs",
		Long: `Process queued scrape jobs. With --once a single batch is processed;
otherwise batches run on the cron schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx := cmd.Context()
			db, err := deps.OpenDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			m := metrics.New()
			svc, err := deps.NewService(common.ServiceOptions{
				Fetch:   true,
				Store:   database.NewRecordRepository(db),
				Metrics: m,
			})
			if err != nil {
				return err
			}

			processor := internaljobs.NewProcessor(database.NewJobRepository(db), svc, deps.Config.Jobs,
				internaljobs.WithRateLimit(deps.Config.Fetcher.RateLimit, deps.Config.Fetcher.Burst),
				internaljobs.WithMetrics(m),
				internaljobs.WithLogger(deps.Logger.With(logger.Component("jobs"))),
			)

			if once {
				summary, runErr := processor.RunOnce(ctx)
				if runErr != nil {
					return runErr
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"claimed %d: %d extracted, %d no platform, %d low confidence, %d requeued, %d failed\n",
					summary.Claimed, summary.Extracted, summary.NoPlatform, summary.LowConfidence,
					summary.Requeued, summary.Failed)
				return nil
			}

			if schedule == "" {
				schedule = deps.Config.Jobs.Schedule
			}
			if err = processor.Start(ctx, schedule); err != nil {
				return err
			}
			<-ctx.Done()
			processor.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "process one batch and exit")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from jobs.schedule)")

	return cmd
}

func listCommand() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scrape jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}

			db, err := deps.OpenDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			repo := database.NewJobRepository(db)
			list, err := repo.List(cmd.Context(), domain.JobStatus(status), limit)
			if err != nil {
				return err
			}
			counts, err := repo.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "URL", "Status", "Attempts", "Outcome", "Last error", "Created"})
			for _, job := range list {
				t.AppendRow(table.Row{
					job.ID, job.URL, job.Status, job.Attempts, job.Outcome, job.LastError,
					job.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			t.AppendFooter(table.Row{"", "", "pending", counts[domain.JobStatusPending], "failed", counts[domain.JobStatusFailed], ""})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 60}, {Number: 6, WidthMax: 40}})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, processing, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of jobs")

	return cmd
}
