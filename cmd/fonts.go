package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/schedpdf/core/fonts"
)

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "Show the font candidates and the one PDFs will embed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printFonts(os.Stdout, fonts.NewResolver(cfg.Fonts.Candidates))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fontsCmd)
}

func printFonts(w io.Writer, res *fonts.Resolver) {
	font := res.Resolve()
	for _, path := range res.Candidates() {
		mark := " "
		if path == font.Path {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s\n", mark, path)
	}
	if !font.Available() {
		fmt.Fprintln(w, "no candidate found: PDFs use Helvetica with Latin labels")
		return
	}
	fmt.Fprintf(w, "embedding: %s\n", font.Name())
}
