// Package cmd — render command.
// Loads one stored schedule version and writes it in the chosen format:
// load → render → write.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/output"
	"github.com/gaurav-prasanna/schedpdf/core/render"
)

// Format flag variables.
var (
	flagPDF       bool
	flagHTML      bool
	flagMarkdown  bool
	flagJSON      bool
	flagOutputDir string
)

var renderCmd = &cobra.Command{
	Use:   "render <schedule-id>",
	Short: "Render a stored schedule to a file",
	Long: `Render loads a schedule version from the database and writes it as PDF,
HTML, Markdown or JSON.

Examples:
  schedpdf render 3f2a… --pdf
  schedpdf render 3f2a… --markdown --output_dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	// Output format flags (mutually exclusive).
	renderCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	renderCmd.Flags().BoolVar(&flagHTML, "html", false, "Output HTML")
	renderCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	renderCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")

	renderCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: output.dir or current directory)")
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	st, svc, err := openService()
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := svc.Document(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	renderer := selectRenderer(svc)
	data, err := renderer.Render(*doc)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	dir := flagOutputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	writer, err := output.New(dir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	path, err := writer.Write(render.Filename(*doc, time.Now(), renderer.Extension()), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// validateFlags checks that exactly one output format is chosen.
func validateFlags() error {
	formatCount := 0
	for _, set := range []bool{flagPDF, flagHTML, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}

	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --pdf, --html, --markdown, or --json")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}
	return nil
}

// pdfSource is the part of the schedule service that owns the PDF renderer.
type pdfSource interface {
	PDFRenderer() *render.PDFRenderer
}

// selectRenderer creates the Renderer chosen by the format flags. The PDF
// renderer is shared with the service so it embeds the resolved font.
func selectRenderer(svc pdfSource) core.Renderer {
	switch {
	case flagHTML:
		return render.NewHTMLRenderer()
	case flagMarkdown:
		return render.NewMarkdownRenderer()
	case flagJSON:
		return render.NewJSONRenderer()
	default:
		return svc.PDFRenderer()
	}
}
