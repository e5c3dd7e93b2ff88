// Package main is the CLI entry point for tracklog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/config"
	"github.com/eliteGoblin/focusd/tracklog/internal/daemon"
	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
	"github.com/eliteGoblin/focusd/tracklog/internal/format"
	"github.com/eliteGoblin/focusd/tracklog/internal/infra"
	"github.com/eliteGoblin/focusd/tracklog/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tracklog",
	Short: "Rebuild activity timelines from tracker logs",
	Long: `tracklog reads the registry (.ttr) and trace (.tte) files written by the
time tracking agent and reconstructs the timeline of processes, websites and
editor projects.

Every command takes a base path; the file extensions are appended to it.`,
	Version:      Version,
	SilenceUsage: true,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline [base]",
	Short: "Print the reconciled timeline",
	Long: `Decodes the registry and trace files and prints one interval per domain
state change. Runtime and Activity intervals are hidden unless --all is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimeline,
}

var datesCmd = &cobra.Command{
	Use:   "dates [base]",
	Short: "List recorded dates",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDates,
}

var exportCmd = &cobra.Command{
	Use:   "export [base]",
	Short: "Write the timeline to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var archiveCmd = &cobra.Command{
	Use:   "archive [base]",
	Short: "Store the timeline in the encrypted archive",
	Long: `Stores the reconciled timeline in an encrypted SQLite archive. The key is
generated on first use and kept next to the archive. Use --list to show
archived sources.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchive,
}

var followCmd = &cobra.Command{
	Use:   "follow [base]",
	Short: "Reprint the timeline whenever the agent writes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFollow,
}

var statusCmd = &cobra.Command{
	Use:   "status [base]",
	Short: "Check whether the tracking agent is recording",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

var fixtureCmd = &cobra.Command{
	Use:   "fixture <base>",
	Short: "Write a sample registry/trace pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runFixture,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	logFile    string
	verbose    bool

	showAll    bool
	flushSlots bool
	sortStart  bool
	jsonOutput bool
	outPath    string
	listOnly   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write diagnostics to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log informational diagnostics")

	for _, c := range []*cobra.Command{timelineCmd, exportCmd, archiveCmd, followCmd} {
		c.Flags().BoolVar(&showAll, "all", false, "Include Runtime and Activity intervals")
		c.Flags().BoolVar(&flushSlots, "flush", false, "Close intervals still open at the last event")
	}
	timelineCmd.Flags().BoolVar(&sortStart, "sort", false, "Sort intervals by start time")
	timelineCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output intervals as JSON")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "timeline.json", "Output file")
	archiveCmd.Flags().BoolVar(&listOnly, "list", false, "List archived sources")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(datesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fixtureCmd)
	rootCmd.AddCommand(versionCmd)
}

// session bundles what every command needs.
type session struct {
	cfg    config.Config
	fs     *infra.FileSystemManagerImpl
	logger *zap.Logger
	diag   *infra.ZapDiagnostics
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("all") {
		cfg.IncludeHidden = showAll
	}
	if cmd.Flags().Changed("flush") {
		cfg.FlushOpenSlots = flushSlots
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	fs := infra.NewFileSystemManager().(*infra.FileSystemManagerImpl)
	logPath := cfg.LogFile
	if logPath != "" {
		logPath = fs.ExpandHome(logPath)
	}
	logger := infra.NewLogger(logPath, verbose)
	return &session{cfg: cfg, fs: fs, logger: logger, diag: infra.NewZapDiagnostics(logger)}, nil
}

func (s *session) close() { _ = s.logger.Sync() }

func (s *session) base(args []string) string {
	if len(args) > 0 {
		return s.fs.ExpandHome(args[0])
	}
	return s.fs.ExpandHome(s.cfg.BasePath)
}

func (s *session) build(base string) (*usecase.TimelineResult, error) {
	builder := usecase.NewTimelineBuilder(s.cfg.ReconcilerOptions(), s.diag)
	res, err := builder.Build(base)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline for %s: %w", base, err)
	}
	return res, nil
}

func runTimeline(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.build(s.base(args))
	if err != nil {
		return err
	}
	intervals := res.Intervals
	if sortStart {
		usecase.SortByStart(intervals)
	}
	if jsonOutput {
		return renderIntervalsJSON(cmd.OutOrStdout(), intervals)
	}
	return renderIntervals(cmd.OutOrStdout(), intervals)
}

func runDates(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	_, tracePath := format.Paths(s.base(args))
	trace := format.OpenTrace(tracePath, s.diag)
	if !trace.Ready() {
		return fmt.Errorf("failed to read trace: %w", trace.Err())
	}
	counts := make(map[domain.Date]int)
	for _, e := range trace.Events() {
		counts[e.Date]++
	}
	return renderDates(cmd.OutOrStdout(), trace.Dates(), counts)
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	base := s.base(args)
	res, err := s.build(base)
	if err != nil {
		return err
	}
	if err := infra.NewJSONExporter(outPath).Export(base, res.Intervals); err != nil {
		return fmt.Errorf("failed to export timeline: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d intervals to %s\n", len(res.Intervals), outPath)
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	archive, err := infra.OpenArchive(s.fs.ExpandHome(s.cfg.Archive.Dir))
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listOnly {
		sources, err := archive.Sources(ctx)
		if err != nil {
			return err
		}
		for _, src := range sources {
			fmt.Fprintln(cmd.OutOrStdout(), src)
		}
		return nil
	}

	base := s.base(args)
	res, err := s.build(base)
	if err != nil {
		return err
	}
	if err := archive.Save(ctx, base, res.Intervals); err != nil {
		return fmt.Errorf("failed to archive timeline: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d intervals to %s\n", len(res.Intervals), archive.Path())
	return nil
}

func runFollow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	followCfg := daemon.DefaultFollowerConfig()
	if s.cfg.Follow.Debounce > 0 {
		followCfg.Debounce = s.cfg.Follow.Debounce
	}
	builder := usecase.NewTimelineBuilder(s.cfg.ReconcilerOptions(), s.diag)
	follower := daemon.NewFollower(followCfg, s.base(args), builder, func(res *usecase.TimelineResult) {
		fmt.Fprintf(out, "\n=== %s (%d intervals) ===\n", time.Now().Format(timeLayout), len(res.Intervals))
		_ = renderIntervals(out, res.Intervals)
	}, s.logger)

	if err := follower.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== tracklog Status ===")

	status, err := infra.DetectAgent(infra.NewProcessManager(), s.cfg.AgentProcess)
	switch {
	case err != nil:
		fmt.Fprintf(out, "Agent: UNKNOWN (%v)\n", err)
	case status.Running():
		fmt.Fprintf(out, "Agent: RECORDING (%s, pid %v)\n", status.Process, status.PIDs)
	default:
		fmt.Fprintf(out, "Agent: NOT RUNNING (%s)\n", status.Process)
	}

	base := s.base(args)
	hasRegistry, hasTrace := infra.TrackingFilesExist(s.fs, base)
	fmt.Fprintf(out, "Base path: %s\n", base)
	fmt.Fprintf(out, "Registry: %s\n", presence(hasRegistry))
	fmt.Fprintf(out, "Trace: %s\n", presence(hasTrace))

	if hasTrace {
		_, tracePath := format.Paths(base)
		trace := format.OpenTrace(tracePath, s.diag)
		if last, ok := trace.LastEvent(); ok {
			fmt.Fprintf(out, "Last event: %s\n", last.Timestamp().Format(timeLayout))
		}
	}
	fmt.Fprintln(out, "=======================")
	return nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}

func runFixture(cmd *cobra.Command, args []string) error {
	base := args[0]
	day := time.Now().UTC()
	if err := format.SamplePair(day).Write(base); err != nil {
		return err
	}
	registryPath, tracePath := format.Paths(base)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", registryPath, tracePath)
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), `{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "tracklog %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
