package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/parties247/party-fetcher/internal/backend"
	"github.com/parties247/party-fetcher/internal/config"
	"github.com/parties247/party-fetcher/internal/goout"
	"github.com/parties247/party-fetcher/internal/jobs"
	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/metrics"
	"github.com/parties247/party-fetcher/internal/myevents"
	"github.com/parties247/party-fetcher/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds the flag values of one command tree
type options struct {
	referral    string
	logLevel    string
	configPath  string
	envFile     string
	outputDir   string
	jobs        string
	dryRun      bool
	metricsFile string
	format      string
}

// backendSink is what the jobs hand their URLs to
type backendSink interface {
	jobs.CarouselImporter
	jobs.PartyAdder
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "party-fetcher",
		Short: "Fetch Go Out events and forward them to Parties247",
		Long: `A CLI tool that fetches event listings from Go Out (JSON API with an HTML
fallback), builds affiliate-tagged event URLs and sends them to the Parties247
admin backend for its carousels.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, opts, opts.jobs)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.referral, "referral", "", "Affiliate code appended to public Go Out event URLs")
	flags.StringVar(&opts.logLevel, "log-level", "INFO", "Logging level (DEBUG, INFO, WARNING, ERROR)")
	flags.StringVar(&opts.configPath, "config", "", "Optional YAML file overriding endpoints and timeouts")
	flags.StringVar(&opts.envFile, "env-file", "", "File holding PARTIES247_ADMIN_PASSWORD (default .env)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory for events_<job>.json files (disabled when empty)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print what would be sent to the backend without sending")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.jobs, "jobs", strings.Join(jobs.Names, ","), "Comma-separated jobs to run")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the selected jobs in order and merge their records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, opts, opts.jobs)
		},
	}
	run.Flags().StringVar(&opts.jobs, "jobs", strings.Join(jobs.Names, ","), "Comma-separated jobs to run")

	cmd.AddCommand(
		run,
		singleJobCmd(opts, "nightlife", jobs.NameNightlife, "Fetch Tel Aviv nightlife events into the nightlife carousel"),
		singleJobCmd(opts, "weekend", jobs.NameWeekend, "Fetch this weekend's events into the weekend carousel"),
		singleJobCmd(opts, "my-events", jobs.NameMyEvents, "Fetch the account's own events and add them as parties"),
	)

	return cmd
}

func singleJobCmd(opts *options, use, job, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, opts, job)
		},
	}
}

// parseJobs validates a comma-separated job list, accepting "my-events" for "my_events"
func parseJobs(value string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(part)), "-", "_")
		if name == "" {
			continue
		}
		if !isKnownJob(name) {
			return nil, fmt.Errorf("unknown job: %s (must be one of %s)", part, strings.Join(jobs.Names, ", "))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no jobs selected")
	}
	return names, nil
}

func isKnownJob(name string) bool {
	for _, known := range jobs.Names {
		if name == known {
			return true
		}
	}
	return false
}

// runJobs is the main command logic
func runJobs(cmd *cobra.Command, opts *options, jobList string) error {
	// Validate format
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	names, err := parseJobs(jobList)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.New(logger.ParseLevel(opts.logLevel), cmd.ErrOrStderr()).With(logger.Fields{"run_id": runID})
	previous := logger.Default()
	logger.SetDefault(log)
	defer func() {
		_ = log.Sync()
		logger.SetDefault(previous)
	}()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.envFile != "" {
		cfg.Backend.EnvFile = opts.envFile
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	recorder := metrics.New()
	metrics.SetDefault(recorder)

	selected, err := buildJobs(cmd, cfg, opts, names)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting fetcher", logger.Fields{"jobs": strings.Join(names, ","), "dry_run": opts.dryRun})
	records, runErr := jobs.RunAll(ctx, selected...)

	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			logger.Error("Failed to write metrics file", logger.Fields{"path": opts.metricsFile}, err)
		}
	}

	if runErr != nil {
		logger.Error("Fetcher failed", logger.Fields{"jobs": strings.Join(names, ",")}, runErr)
		return runErr
	}

	result := &OutputResult{
		RunID:       runID,
		CompletedAt: time.Now().UTC(),
		Jobs:        names,
		Count:       len(records),
		Events:      records,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// buildJobs creates the selected jobs and only the collaborators they need
func buildJobs(cmd *cobra.Command, cfg config.Config, opts *options, names []string) ([]jobs.Job, error) {
	var sink backendSink
	if opts.dryRun {
		sink = backend.NewDryRun(cmd.OutOrStdout())
	} else {
		client, err := backend.NewClient(cfg.Backend)
		if err != nil {
			return nil, fmt.Errorf("initializing backend client: %w", err)
		}
		sink = client
	}

	var output *storage.Storage
	if cfg.Output.Dir != "" {
		store, err := storage.New(cfg.Output.Dir)
		if err != nil {
			return nil, fmt.Errorf("initializing output storage: %w", err)
		}
		output = store
	}

	fetcher := goout.New(cfg.GoOut, opts.referral)

	selected := make([]jobs.Job, 0, len(names))
	for _, name := range names {
		switch name {
		case jobs.NameNightlife:
			selected = append(selected, jobs.NewNightlife(fetcher, sink, output))
		case jobs.NameWeekend:
			selected = append(selected, jobs.NewWeekend(fetcher, sink, output))
		case jobs.NameMyEvents:
			payload, err := storage.New(cfg.MyEvents.PayloadDir)
			if err != nil {
				return nil, fmt.Errorf("initializing auth payload storage: %w", err)
			}
			browser := myevents.NewBrowserCookieSource(cfg.MyEvents.SiteURL, 0)
			client := myevents.NewClient(cfg.MyEvents, payload, browser)
			selected = append(selected, jobs.NewMyEvents(client, sink, cfg.GoOut.EventBaseURL(), output))
		}
	}
	return selected, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
