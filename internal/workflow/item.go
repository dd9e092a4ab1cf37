package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"scribe/internal/fileutil"
	"scribe/internal/layout"
	"scribe/internal/ledger"
	"scribe/internal/logging"
	"scribe/internal/pacing"
	"scribe/internal/runstate"
	"scribe/internal/services"
	"scribe/internal/services/captions"
	"scribe/internal/services/ytdlp"
	"scribe/internal/variant"
)

type itemJob struct {
	collection    string
	collectionDir string
	item          ytdlp.Item
	mode          layout.Mode
	policy        variant.Policy
	ledger        *ledger.Ledger
}

type itemResult struct {
	status    runstate.ItemStatus
	reason    string
	languages []string
}

// processItem walks one item through the pipeline: ledger check, variant
// selection, paced fetch with retries, placement, ledger append. A rate
// limit outcome requeues the attempt after the controller's cooldown rather
// than consuming the retry budget. A non-nil error means the failure is
// collection fatal and the caller must stop dispatching.
func (m *Manager) processItem(ctx context.Context, job itemJob) (itemResult, error) {
	ctx = services.WithCollection(ctx, job.collection)
	ctx = services.WithItemID(ctx, job.item.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	if job.ledger.Contains(job.item.ID) {
		logger.Debug("item already recorded, skipping")
		return itemResult{status: runstate.ItemSkipped}, nil
	}

	attempts := 0
	for {
		if ctx.Err() != nil {
			return itemResult{}, nil
		}

		release, err := m.pacer.Acquire(ctx)
		if err != nil {
			return itemResult{}, nil
		}
		result, err := m.attemptItem(ctx, job, logger)
		release()

		if err == nil {
			m.pacer.Report(pacing.OutcomeSuccess)
			return result, nil
		}
		if ctx.Err() != nil {
			return itemResult{}, nil
		}

		switch services.Classify(err) {
		case services.CategoryRateLimit:
			logger.Warn("rate limited, requeueing after cooldown", logging.Error(err))
			m.noteRateLimit()
			continue
		case services.CategoryCollectionFatal:
			logger.Error("storage failure, aborting collection", logging.Error(err))
			return itemResult{status: runstate.ItemFailed, reason: err.Error()}, err
		case services.CategoryRetryable:
			m.pacer.Report(pacing.OutcomeSoftError)
			attempts++
			if attempts < m.cfg.Pacing.RetryCeiling {
				logger.Warn("transient failure, will retry",
					logging.Int("attempt", attempts),
					logging.Error(err),
				)
				continue
			}
			logger.Error("retries exhausted", logging.Error(err))
			return itemResult{status: runstate.ItemFailed, reason: err.Error()}, nil
		default:
			logger.Error("item failed", logging.Error(err))
			return itemResult{status: runstate.ItemFailed, reason: err.Error()}, nil
		}
	}
}

// attemptItem performs one full attempt: list variants, select, fetch, and
// place. Returning a nil error means the item is recorded in the ledger.
func (m *Manager) attemptItem(ctx context.Context, job itemJob, logger *slog.Logger) (itemResult, error) {
	available, err := m.retrieval.ListVariants(ctx, job.item.ID)
	if err != nil {
		return itemResult{}, err
	}

	selected := variant.Select(toVariants(available), job.policy)
	if len(selected) == 0 {
		logger.Info("no matching caption variant")
		return itemResult{status: runstate.ItemNoVariant}, nil
	}

	var fetched []string
	for _, v := range selected {
		if err := m.fetchVariant(ctx, job, v, logger); err != nil {
			return itemResult{}, err
		}
		fetched = append(fetched, v.Language)
	}

	if err := job.ledger.Record(job.item.ID); err != nil {
		return itemResult{}, err
	}
	logger.Info("item complete", logging.Int("variants", len(fetched)))
	return itemResult{status: runstate.ItemProcessed, languages: fetched}, nil
}

// fetchVariant downloads one caption track and writes every configured
// artifact format. Existing artifacts short-circuit the fetch unless
// overwriting is enabled.
func (m *Manager) fetchVariant(ctx context.Context, job itemJob, v variant.Variant, logger *slog.Logger) error {
	paths := make(map[string]string, len(m.cfg.Output.Formats))
	allExist := true
	for _, format := range m.cfg.Output.Formats {
		path := m.layout.PathFor(job.collectionDir, job.item.Title, job.item.ID, v.Language, format, job.mode)
		paths[format] = path
		if !fileutil.PathExists(path) {
			allExist = false
		}
	}
	if allExist && !m.cfg.Output.OverwriteExisting {
		logger.Debug("artifacts already on disk",
			logging.String(logging.FieldLanguage, v.Language),
		)
		return nil
	}

	track, err := m.retrieval.Fetch(ctx, v.URL)
	if err != nil {
		return err
	}

	for _, format := range m.cfg.Output.Formats {
		var data []byte
		switch format {
		case "json":
			data, err = captions.RenderJSON(captions.Metadata{
				ItemID:     job.item.ID,
				Title:      job.item.Title,
				Collection: job.collection,
				Language:   v.Language,
				Authorship: v.Authorship.String(),
			}, track)
			if err != nil {
				return err
			}
		default:
			data = captions.RenderText(track)
		}
		if err := m.layout.Place(paths[format], data); err != nil {
			return err
		}
	}

	logger.Info("caption track placed",
		logging.String(logging.FieldLanguage, v.Language),
		logging.String("authorship", v.Authorship.String()),
		logging.Int("cues", len(track.Cues)),
	)
	return nil
}

func toVariants(tracks []ytdlp.TrackVariant) []variant.Variant {
	out := make([]variant.Variant, 0, len(tracks))
	for _, track := range tracks {
		authorship := variant.AuthorshipManual
		if track.Auto {
			authorship = variant.AuthorshipAutoGenerated
		}
		out = append(out, variant.Variant{
			Language:   track.Language,
			Authorship: authorship,
			URL:        track.URL,
		})
	}
	return out
}

