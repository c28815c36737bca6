package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praveen420coder/sf-log-analyzer/internal/output"
	"github.com/praveen420coder/sf-log-analyzer/internal/parser"
)

var showTimeline bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a debug log into a call tree",
	Long: `Parse a raw Apex debug log file and print its reconstructed call
tree, SOQL queries, DML operations and governor limit usage.

Examples:
  sflog parse trace.log
  sflog parse trace.log --timeline
  sflog parse trace.log --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "show the flattened timeline instead of the tree")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	parsed, err := parser.Parse(string(raw))
	if err != nil {
		return err
	}

	return chooseRenderer().Render(output.Report{
		Path:     args[0],
		Parsed:   parsed,
		Timeline: showTimeline,
	})
}

// chooseRenderer maps the --output flag onto a Renderer.
func chooseRenderer() output.Renderer {
	switch strings.ToLower(outputFmt) {
	case "json":
		return output.NewJSONRenderer()
	default:
		return output.NewTextRenderer()
	}
}
