package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/praveen420coder/sf-log-analyzer/internal/aggregator"
	"github.com/praveen420coder/sf-log-analyzer/internal/hub"
	"github.com/praveen420coder/sf-log-analyzer/internal/model"
	"github.com/praveen420coder/sf-log-analyzer/internal/monitor"
	"github.com/praveen420coder/sf-log-analyzer/internal/server"
	"github.com/praveen420coder/sf-log-analyzer/internal/watcher"
)

var watchPort string

var watchCmd = &cobra.Command{
	Use:   "watch [patterns...]",
	Short: "Watch trace files and serve a live dashboard",
	Long: `Watch one or more debug log files (or glob patterns), re-analyze a
trace whenever its file changes, and serve the results on a live web
dashboard with a WebSocket feed.

Examples:
  sflog watch logs/trace.log
  sflog watch "logs/**/*.log" --port 8878`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchPort, "port", "p", "8878", "dashboard port")
	_ = viper.BindPFlag("port", watchCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	w, err := watcher.New(args)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watched := w.Paths()
	if len(watched) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}
	for _, p := range watched {
		log.Info().Str("path", p).Msg("watching trace file")
	}

	state, err := monitor.NewState(filepath.Join(".", ".sflog-state.json"))
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	mon := monitor.New(w, state)
	h := hub.New(mon.Logs())
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(w.Paths()) })
	srv := server.New(h, agg, viper.GetString("port"))

	// Terminal feed alongside the dashboard.
	summaries := h.Subscribe()
	go func() {
		for res := range summaries {
			logResult(res)
		}
	}()

	go w.Start(ctx)
	go mon.Start(ctx)
	go h.Start(ctx)
	go agg.Start(ctx)

	log.Info().Str("port", viper.GetString("port")).Msg("dashboard listening")
	return srv.Start()
}

// logResult prints a one-line summary of an analysis to the terminal feed.
func logResult(res model.AnalysisResult) {
	if res.Err != "" {
		log.Warn().Str("path", res.Path).Str("error", res.Err).Msg("trace rejected")
		return
	}

	top := ""
	if len(res.Insights) > 0 {
		top = res.Insights[0].Title
	}
	log.Info().
		Str("path", res.Path).
		Int("roots", res.RootCount).
		Int("events", res.EventCount).
		Int("soql", res.QueryCount).
		Int("dml", res.DmlCount).
		Str("top_insight", top).
		Msg("trace analyzed")
}
