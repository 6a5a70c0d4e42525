// Package extract implements the extract command.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/scraper"
)

type options struct {
	file   string
	save   bool
	asJSON bool
	state  string
	county string
	city   string
}

// Command returns the extract command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "extract URL",
		Short: "Extract a permit office record from a page",
		Long: `Detect the platform of a page and extract a permit office record from it.
The page is fetched from URL unless --file names a saved copy ("-" reads stdin).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := strings.TrimSpace(args[0])
			if pageURL == "" {
				return common.ErrURLRequired
			}
			return run(cmd, pageURL, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the page from a file instead of fetching it")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the record in the database")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the record as JSON")
	cmd.Flags().StringVar(&opts.state, "state", "", "known state of the page")
	cmd.Flags().StringVar(&opts.county, "county", "", "known county of the page")
	cmd.Flags().StringVar(&opts.city, "city", "", "known city of the page")

	return cmd
}

func run(cmd *cobra.Command, pageURL string, opts options) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svcOpts := common.ServiceOptions{Fetch: opts.file == ""}
	if opts.save {
		db, dbErr := deps.OpenDatabase(ctx)
		if dbErr != nil {
			return dbErr
		}
		defer db.Close()
		svcOpts.Store = database.NewRecordRepository(db)
	}

	svc, err := deps.NewService(svcOpts)
	if err != nil {
		return err
	}

	j := domain.Jurisdiction{State: opts.state, County: opts.county, City: opts.city}

	var result *scraper.Result
	if opts.file != "" {
		html, readErr := common.ReadPage(opts.file)
		if readErr != nil {
			return readErr
		}
		result, err = svc.ProcessWithJurisdiction(ctx, pageURL, html, j)
	} else {
		result, err = svc.ProcessURLWithJurisdiction(ctx, pageURL, j)
	}
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result.Record)
	}

	RenderRecord(cmd.OutOrStdout(), result.Record)
	return nil
}

// RenderRecord prints rec as a two-column field table followed by its rule evidence.
func RenderRecord(w io.Writer, rec *domain.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("%s (%s)", rec.SourceURL, rec.Platform)
	t.AppendHeader(table.Row{"Field", "Value"})

	downloads := make([]string, 0, len(rec.DownloadableApplications))
	for _, d := range rec.DownloadableApplications {
		downloads = append(downloads, d.Title+": "+d.URL)
	}

	t.AppendRows([]table.Row{
		{"State", rec.State},
		{"County", rec.County},
		{"City", rec.City},
		{"Department", rec.DepartmentName},
		{"Instructions", rec.ProcessingInstructions},
		{"Permit fee", rec.PermitFee},
		{"Phone", rec.Phone},
		{"Email", rec.Email},
		{"Address", rec.Address},
		{"Hours", rec.Hours},
		{"Turnaround", rec.TurnaroundTime},
		{"Applications", strings.Join(downloads, "\n")},
	})
	t.AppendFooter(table.Row{"Confidence", fmt.Sprintf("%.2f", rec.Confidence)})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	t.Render()

	if len(rec.Evidence) == 0 {
		return
	}

	ev := table.NewWriter()
	ev.SetOutputMirror(w)
	ev.SetStyle(table.StyleLight)
	ev.AppendHeader(table.Row{"Rule", "Fired", "Delta", "Skip reason"})
	for _, r := range rec.Evidence {
		ev.AppendRow(table.Row{r.Rule, r.Fired, fmt.Sprintf("%+.2f", r.Delta), r.SkipReason})
	}
	ev.Render()
}
