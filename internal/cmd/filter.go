package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praveen420coder/sf-log-analyzer/internal/filter"
)

var (
	filterCategory string
	filterSearch   string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Filter raw debug log lines by category or text",
	Long: `Print raw debug log lines matching a category filter and/or a
case-insensitive text search. Filters run on the original lines, not on the
parsed structure, so they also work on truncated traces.

Categories: all, debug, errors, soql, limits

Examples:
  sflog filter trace.log --category errors
  sflog filter trace.log --category soql --grep Account
  sflog filter trace.log --grep "duplicate value"`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterCategory, "category", "k", "all", "line category: all, debug, errors, soql, limits")
	filterCmd.Flags().StringVarP(&filterSearch, "grep", "g", "", "case-insensitive free-text match")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	cat := filter.Category(filterCategory)
	if !filter.Valid(cat) {
		return fmt.Errorf("unknown category %q", filterCategory)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	for _, line := range filter.Lines(string(raw), cat, filterSearch) {
		fmt.Println(line)
	}
	return nil
}
