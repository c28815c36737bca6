package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praveen420coder/sf-log-analyzer/internal/analyzer"
	"github.com/praveen420coder/sf-log-analyzer/internal/output"
	"github.com/praveen420coder/sf-log-analyzer/internal/parser"
)

var execStatus string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a debug log for performance issues",
	Long: `Parse a raw Apex debug log and derive performance insights and
aggregate metrics: limit consumption, slow queries, N+1 patterns and more.

Examples:
  sflog analyze trace.log
  sflog analyze trace.log --status "Failed: System.LimitException"
  sflog analyze trace.log --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&execStatus, "status", "s", "", "execution status reported for the transaction")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	parsed, err := parser.Parse(string(raw))
	if err != nil {
		return err
	}

	insights, metrics := analyzer.Analyze(parsed, execStatus)

	return chooseRenderer().Render(output.Report{
		Path:     args[0],
		Parsed:   parsed,
		Insights: insights,
		Metrics:  &metrics,
	})
}
