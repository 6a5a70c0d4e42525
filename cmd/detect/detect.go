// Package detect implements the detect command.
package detect

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/common"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/fetcher"
)

// Command returns the detect command.
func Command() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "detect URL",
		Short: "Report which platforms recognise a page",
		Long: `Report which platforms recognise a page. The page is fetched from URL
unless --file names a saved copy ("-" reads stdin).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := strings.TrimSpace(args[0])
			if pageURL == "" {
				return common.ErrURLRequired
			}

			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}

			svc, err := deps.NewService(common.ServiceOptions{})
			if err != nil {
				return err
			}

			html, err := loadPage(cmd, deps, pageURL, file)
			if err != nil {
				return err
			}

			detections := svc.Detect(pageURL, html)
			out := cmd.OutOrStdout()
			if len(detections) == 0 {
				fmt.Fprintln(out, "no platform detected")
				return nil
			}
			for _, d := range detections {
				fmt.Fprintf(out, "%s\t%s\n", d.Platform, strings.Join(d.Signatures, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the page from a file instead of fetching it")
	return cmd
}

func loadPage(cmd *cobra.Command, deps common.CommandDeps, pageURL, file string) (string, error) {
	if file != "" {
		return common.ReadPage(file)
	}

	page, err := fetcher.New(deps.Config.Fetcher, deps.Logger, nil).Fetch(cmd.Context(), pageURL)
	if err != nil {
		return "", err
	}
	return page.Body, nil
}
