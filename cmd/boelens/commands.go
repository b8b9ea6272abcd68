package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/highlight"
	"github.com/dgallion1/boelens/internal/parser"
)

var rootCmd = &cobra.Command{
	Use:          "boelens",
	Short:        "Highlight terms in BOE documents",
	SilenceUsage: true,
}

var highlightCmd = &cobra.Command{
	Use:   "highlight [file]",
	Short: "Mark terms in a document and print the annotated HTML",
	Long: `Loads a document (html, md, txt, csv, pdf or docx), wraps every
occurrence of the given terms in highlight markers and prints the resulting
HTML content. The number of markers is written to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

var stripCmd = &cobra.Command{
	Use:   "strip [file]",
	Short: "Remove highlight markers of one category from an HTML fragment",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrip,
}

var (
	highlightTerms    []string
	highlightCategory string
	stripCategory     string
)

func init() {
	highlightCmd.Flags().StringSliceVarP(&highlightTerms, "term", "t", nil, "Term to highlight (repeatable)")
	highlightCmd.Flags().StringVarP(&highlightCategory, "category", "c", "search", "Marker category: alert or search")
	stripCmd.Flags().StringVarP(&stripCategory, "category", "c", "search", "Marker category to remove: alert or search")

	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(stripCmd)
}

func parseCategory(s string) (highlight.Category, error) {
	switch s {
	case "alert", string(highlight.CategoryAlert):
		return highlight.CategoryAlert, nil
	case "search", string(highlight.CategorySearch):
		return highlight.CategorySearch, nil
	}
	return "", fmt.Errorf("unknown category %q (want alert or search)", s)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	cat, err := parseCategory(highlightCategory)
	if err != nil {
		return err
	}
	p, err := parser.ForFile(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(args[0]))
	if err != nil {
		return err
	}

	n := highlight.Annotate(doc.Content, highlight.NewMatcher(highlightTerms), cat)
	out, err := document.Render(doc.Content)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d markers\n", n)
	return nil
}

func runStrip(cmd *cobra.Command, args []string) error {
	cat, err := parseCategory(stripCategory)
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	root, err := document.ParseContent(f)
	if err != nil {
		return err
	}
	n := highlight.Remove(root, cat)
	out, err := document.Render(root)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d markers removed\n", n)
	return nil
}
