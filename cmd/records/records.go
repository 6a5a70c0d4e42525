// Package records implements the stored record commands.
package records

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/database"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/export"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// Command returns the records command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and export stored permit records",
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(exportCommand())

	return cmd
}

func addFilterFlags(cmd *cobra.Command, f *database.RecordFilter) {
	cmd.Flags().StringVar(&f.Platform, "platform", "", "filter by platform")
	cmd.Flags().StringVar(&f.State, "state", "", "filter by state")
	cmd.Flags().StringVar(&f.County, "county", "", "filter by county")
	cmd.Flags().StringVar(&f.City, "city", "", "filter by city")
	cmd.Flags().StringVarP(&f.Search, "search", "q", "", "match source URL or department")
	cmd.Flags().Float64Var(&f.MinConfidence, "min-confidence", 0, "minimum confidence")
}

func listCommand() *cobra.Command {
	var filter database.RecordFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
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

			repo := database.NewRecordRepository(db)
			list, err := repo.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			total, err := repo.Count(cmd.Context(), filter)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Platform", "State", "County", "City", "Department", "Phone", "Confidence"})
			for _, rec := range list {
				t.AppendRow(table.Row{
					rec.ID, rec.Platform, rec.State, rec.County, rec.City, rec.DepartmentName, rec.Phone,
					fmt.Sprintf("%.2f", rec.Confidence),
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", total})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 6, WidthMax: 40}})
			t.Render()
			return nil
		},
	}

	addFilterFlags(cmd, &filter)
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of records")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "records to skip")

	return cmd
}

func exportCommand() *cobra.Command {
	var (
		filter database.RecordFilter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored records to an .xlsx spreadsheet",
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

			list, err := database.NewRecordRepository(db).List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			if err = export.WriteXLSX(f, list); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			deps.Logger.Info("Records exported", logger.String("file", out), logger.Int("records", len(list)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d record(s) to %s\n", len(list), out)
			return nil
		},
	}

	addFilterFlags(cmd, &filter)
	cmd.Flags().IntVar(&filter.Limit, "limit", 500, "maximum number of records")
	cmd.Flags().StringVarP(&out, "out", "o", "permit-offices.xlsx", "output file")

	return cmd
}
