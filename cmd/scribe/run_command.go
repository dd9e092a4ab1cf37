package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/layout"
	"scribe/internal/logging"
	"scribe/internal/pacing"
	"scribe/internal/runstate"
	"scribe/internal/services/captions"
	"scribe/internal/services/ytdlp"
	"scribe/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var expandPlaylists bool
	var posture string
	var languages []string

	cmd := &cobra.Command{
		Use:   "run URL [URL...]",
		Short: "Fetch caption tracks for one or more collections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if posture != "" {
				cfg.Pacing.Posture = posture
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if len(languages) > 0 {
				cfg.Languages.Requested = languages
			}
			return runFetch(cmd.Context(), cfg, args, workflow.Options{
				ExpandPlaylists: expandPlaylists,
			})
		},
	}

	cmd.Flags().BoolVar(&expandPlaylists, "playlists", false, "Expand each URL into its individual playlists")
	cmd.Flags().StringVar(&posture, "posture", "", "Override the pacing posture (conservative, balanced, aggressive)")
	cmd.Flags().StringSliceVar(&languages, "language", nil, "Override the requested caption languages")
	return cmd
}

func runFetch(cmdCtx context.Context, cfg *config.Config, urls []string, opts workflow.Options) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another scribe run is already in progress (lock %s)", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("scribe-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client := ytdlp.NewClient(cfg.Discovery.Binary, time.Duration(cfg.Discovery.ListTimeoutSeconds)*time.Second, logger)
	if err := client.Available(); err != nil {
		return err
	}

	fetcher := captions.NewFetcher(time.Duration(cfg.Retrieval.FetchTimeoutSeconds)*time.Second, logger)

	settings, err := pacing.SettingsFromConfig(cfg.Pacing)
	if err != nil {
		return err
	}
	pacer := pacing.New(settings, logger)

	eng := layout.New(cfg.Paths.OutputDir, cfg.Output.StrictFilenames, logger)

	store, err := runstate.Open(cfg)
	if err != nil {
		// Run reporting is an observability aid, never a reason to refuse work.
		fmt.Fprintf(os.Stderr, "warn: run reporting disabled: %v\n", err)
		store = nil
	} else {
		defer store.Close()
	}

	retrieval := &trackRetrieval{client: client, fetcher: fetcher}
	mgr := workflow.NewManager(cfg, client, retrieval, pacer, eng, store, logger)

	summary, runErr := mgr.Run(signalCtx, urls, opts)
	printSummary(os.Stdout, summary)
	if runErr != nil {
		return runErr
	}
	if summary.Failed() > 0 {
		return fmt.Errorf("%d item(s) failed; see the log for details", summary.Failed())
	}
	return nil
}

// trackRetrieval pairs variant listing (yt-dlp) with track download (HTTP)
// behind the single retrieval interface the workflow manager expects.
type trackRetrieval struct {
	client  *ytdlp.Client
	fetcher *captions.Fetcher
}

func (r *trackRetrieval) ListVariants(ctx context.Context, itemID string) ([]ytdlp.TrackVariant, error) {
	return r.client.ListVariants(ctx, itemID)
}

func (r *trackRetrieval) Fetch(ctx context.Context, trackURL string) (captions.Track, error) {
	return r.fetcher.Fetch(ctx, trackURL)
}

func printSummary(w *os.File, summary workflow.Summary) {
	rows := make([][]string, 0, len(summary.Collections))
	for _, col := range summary.Collections {
		name := col.Name
		if name == "" {
			name = col.URL
		}
		status := "ok"
		if col.Err != nil {
			status = col.Err.Error()
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(col.Total),
			strconv.Itoa(col.Processed),
			strconv.Itoa(col.Skipped),
			strconv.Itoa(col.Failed),
			strconv.Itoa(col.NoVariant),
			status,
		})
	}
	headers := []string{"Collection", "Total", "Processed", "Skipped", "Failed", "No Variant", "Status"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))
	if summary.RateLimitEvents > 0 {
		fmt.Fprintf(w, "Rate limit events: %d\n", summary.RateLimitEvents)
	}
}
