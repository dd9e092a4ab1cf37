package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"scribe/internal/layout"
	"scribe/internal/ledger"
	"scribe/internal/logging"
	"scribe/internal/pacing"
	"scribe/internal/runstate"
	"scribe/internal/services/ytdlp"
	"scribe/internal/variant"
)

// Run processes every collection URL and returns the aggregated summary.
// Per-item failures never abort the run; a discovery failure aborts only its
// own collection. Cancellation stops dispatching promptly and returns the
// partial summary alongside the context error.
func (m *Manager) Run(ctx context.Context, urls []string, opts Options) (Summary, error) {
	var summary Summary

	refs, err := m.expandURLs(ctx, urls, opts)
	if err != nil {
		return summary, err
	}

	runID := m.beginRun(ctx)
	started := time.Now()

	var runErr error
	for _, ref := range refs {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		col := m.runCollection(ctx, runID, ref)
		summary.Collections = append(summary.Collections, col)
	}

	m.mu.Lock()
	summary.RateLimitEvents = m.rateLimitEvents
	m.mu.Unlock()

	m.finishRun(ctx, runID, summary)
	m.logger.Info("run complete",
		logging.Int("collections", len(summary.Collections)),
		logging.Int("processed", summary.Processed()),
		logging.Int("skipped", summary.Skipped()),
		logging.Int("failed", summary.Failed()),
		logging.Int("no_variant", summary.NoVariant()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, runErr
}

// collectionRef is one collection to process; parent is the channel name
// when the collection came from a playlists fan-out.
type collectionRef struct {
	url    string
	parent string
}

// expandURLs optionally fans channel URLs out into their playlists. Expanded
// playlists carry their channel name so their output nests under it.
func (m *Manager) expandURLs(ctx context.Context, urls []string, opts Options) ([]collectionRef, error) {
	refs := make([]collectionRef, 0, len(urls))
	if !opts.ExpandPlaylists {
		for _, url := range urls {
			refs = append(refs, collectionRef{url: url})
		}
		return refs, nil
	}
	for _, url := range urls {
		channel, playlists, err := m.discovery.ListPlaylists(ctx, url)
		if err != nil {
			return nil, err
		}
		if len(playlists) == 0 {
			refs = append(refs, collectionRef{url: url})
			continue
		}
		for _, playlist := range playlists {
			refs = append(refs, collectionRef{url: playlist, parent: channel})
		}
	}
	return refs, nil
}

func (m *Manager) beginRun(ctx context.Context) string {
	if m.store == nil {
		return ""
	}
	runID, err := m.store.BeginRun(ctx, m.pacer.Posture().String())
	if err != nil {
		m.logger.Warn("run reporting disabled", logging.Error(err))
		return ""
	}
	return runID
}

func (m *Manager) finishRun(ctx context.Context, runID string, summary Summary) {
	if m.store == nil || runID == "" {
		return
	}
	err := m.store.FinishRun(ctx, runID, runstate.Run{
		Processed:       summary.Processed(),
		Skipped:         summary.Skipped(),
		Failed:          summary.Failed(),
		NoVariant:       summary.NoVariant(),
		RateLimitEvents: summary.RateLimitEvents,
	})
	if err != nil {
		m.logger.Warn("record run summary", logging.Error(err))
	}
}

// runCollection drives one collection from discovery to summary.
func (m *Manager) runCollection(ctx context.Context, runID string, ref collectionRef) CollectionSummary {
	summary := CollectionSummary{URL: ref.url}
	logger := m.logger.With(logging.String(logging.FieldCollection, ref.url))

	col, err := m.discovery.ListItems(ctx, ref.url, m.cfg.Discovery.MaxItems)
	if err != nil {
		logger.Error("collection discovery failed", logging.Error(err))
		summary.Err = err
		return summary
	}
	summary.Name = col.Name
	if ref.parent != "" {
		summary.Name = ref.parent + "/" + col.Name
	}
	summary.Total = len(col.Items)
	logger = m.logger.With(logging.String(logging.FieldCollection, summary.Name))

	collectionDir := m.layout.NestedCollectionDir(ref.parent, col.Name)

	led, err := m.openLedger(collectionDir)
	if err != nil {
		// A ledger read problem degrades to an empty ledger that still
		// records: the run refetches everything but keeps resume state.
		logger.Warn("ledger unreadable, treating as empty", logging.Error(err))
		led = ledger.EmptyForCollection(collectionDir)
	}

	mode, err := m.reconcileLayout(collectionDir, logger)
	if err != nil {
		summary.Err = err
		return summary
	}

	policy := variant.Policy{
		Requested:    m.cfg.Languages.Requested,
		Default:      m.cfg.Languages.Default,
		AllowAll:     m.cfg.Languages.AllowAll,
		DetectLocale: m.cfg.Languages.DetectLocale,
	}

	results := make([]itemResult, len(col.Items))

	group, groupCtx := errgroup.WithContext(ctx)
	// The pacer's slot gate enforces the live posture-dependent ceiling;
	// this limit only bounds idle goroutines.
	group.SetLimit(maxWorkers(m.cfg.Pacing.WorkerCeiling))

	for i, item := range col.Items {
		group.Go(func() error {
			res, err := m.processItem(groupCtx, itemJob{
				collection:    summary.Name,
				collectionDir: collectionDir,
				item:          item,
				mode:          mode,
				policy:        policy,
				ledger:        led,
			})
			results[i] = res
			return err
		})
	}
	if err := group.Wait(); err != nil {
		summary.Err = err
		logger.Error("collection aborted", logging.Error(err))
	}

	for i, item := range col.Items {
		m.tally(&summary, item, results[i])
		m.recordItem(ctx, runID, summary.Name, item, results[i])
	}
	sort.Slice(summary.FailedItems, func(i, j int) bool {
		return summary.FailedItems[i].ItemID < summary.FailedItems[j].ItemID
	})

	logger.Info("collection complete",
		logging.Int("total", summary.Total),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("no_variant", summary.NoVariant),
	)
	return summary
}

func maxWorkers(ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	// Leave headroom for the most aggressive posture (multiplier < 1).
	return ceiling * 2
}

func (m *Manager) openLedger(collectionDir string) (*ledger.Ledger, error) {
	if !m.cfg.Ledger.Enabled {
		return nil, nil
	}
	return ledger.ForCollection(collectionDir)
}

// reconcileLayout determines the layout mode for this run and migrates the
// existing tree when the mode changed. The override short-circuits
// reconciliation but still triggers the migration.
func (m *Manager) reconcileLayout(collectionDir string, logger *slog.Logger) (layout.Mode, error) {
	requested := m.effectiveLanguages()

	current, err := m.layout.ReconcileMode(collectionDir, requested)
	if err != nil {
		return current, err
	}

	target := current
	if override, ok, err := layout.ParseMode(m.cfg.Output.ModeOverride); err == nil && ok {
		target = override
	}
	// Fetching every available language needs per-language folders: the
	// language set varies per item, so reconciliation over the requested
	// list alone would never flip the mode.
	if m.cfg.Languages.AllowAll {
		target = layout.ModeMultiLanguage
	}

	if target != current {
		logger.Info("layout mode changed",
			logging.String("from", current.String()),
			logging.String("to", target.String()),
		)
	}
	// Reorganize also converges a tree left half-migrated by a crash, so it
	// runs even when the modes match on paper.
	from := layout.ModeSingleLanguage
	if target == layout.ModeSingleLanguage {
		from = layout.ModeMultiLanguage
	}
	if err := m.layout.Reorganize(collectionDir, from, target); err != nil {
		return target, err
	}
	return target, nil
}

// effectiveLanguages is the language set driving layout decisions: either
// the requested list or the single fallback language.
func (m *Manager) effectiveLanguages() []string {
	policy := variant.Policy{
		Requested:    m.cfg.Languages.Requested,
		Default:      m.cfg.Languages.Default,
		DetectLocale: m.cfg.Languages.DetectLocale,
	}
	langs := policy.RequestedOrFallback()
	if len(m.cfg.Languages.Requested) == 0 && len(langs) > 0 {
		return langs[:1]
	}
	return langs
}

func (m *Manager) tally(summary *CollectionSummary, item ytdlp.Item, result itemResult) {
	switch result.status {
	case runstate.ItemProcessed:
		summary.Processed++
	case runstate.ItemSkipped:
		summary.Skipped++
	case runstate.ItemNoVariant:
		summary.NoVariant++
	case runstate.ItemFailed:
		summary.Failed++
		summary.FailedItems = append(summary.FailedItems, FailedItem{
			ItemID: item.ID,
			Title:  item.Title,
			Reason: result.reason,
		})
	}
}

func (m *Manager) recordItem(ctx context.Context, runID, collection string, item ytdlp.Item, result itemResult) {
	if m.store == nil || runID == "" || result.status == "" {
		return
	}
	err := m.store.RecordItem(ctx, runID, runstate.Item{
		Collection: collection,
		ItemID:     item.ID,
		Title:      item.Title,
		Status:     result.status,
		Failure:    result.reason,
		Languages:  result.languages,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("record item outcome", logging.Error(err))
	}
}

func (m *Manager) noteRateLimit() {
	m.mu.Lock()
	m.rateLimitEvents++
	m.mu.Unlock()
	m.pacer.Report(pacing.OutcomeRateLimited)
}
