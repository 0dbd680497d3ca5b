// Package cmd — extract command.
// Reads a schedule out of a local file or URL:
// fetch → detect → locate table → items, and optionally persists them.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/core/fetch"
)

var flagProject string

var extractCmd = &cobra.Command{
	Use:   "extract <path-or-url>",
	Short: "Read schedule items from a PDF or HTML document",
	Long: `Extract locates the schedule table on the first page of a PDF or in an HTML
document and prints the items as JSON. With --project the items are saved as
the project's next schedule version instead.

Examples:
  schedpdf extract ./schedule.pdf
  schedpdf extract https://example.com/schedule.html --project 3f2a…`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&flagProject, "project", "", "Save the items as a new version of this project")
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := readDocument(cmd.Context(), args[0], fetch.New(cfg.Upload.MaxFileSize), cfg.Upload.MaxFileSize)
	if err != nil {
		return err
	}

	if flagProject == "" {
		items, err := extract.New(extract.WithLogger(logger)).Extract(raw)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	st, svc, err := openService()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := svc.Import(cmd.Context(), flagProject, raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Saved %s v%d (%d items): %s\n",
		doc.ProjectInfo.ProjectName, doc.Version, len(doc.Items), doc.ScheduleID)
	return nil
}

// readDocument loads target from an http(s) URL through fetcher, or from the
// local filesystem. Either way documents above maxBytes are refused.
func readDocument(ctx context.Context, target string, fetcher core.Fetcher, maxBytes int64) ([]byte, error) {
	if u, err := url.Parse(target); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		res, err := fetcher.Fetch(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return res.Body, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", target, fetch.ErrTooLarge, info.Size(), maxBytes)
	}
	return os.ReadFile(target)
}
