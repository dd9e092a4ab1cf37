package workflow

import (
	"context"
	"log/slog"
	"sync"

	"scribe/internal/config"
	"scribe/internal/layout"
	"scribe/internal/logging"
	"scribe/internal/pacing"
	"scribe/internal/runstate"
	"scribe/internal/services/captions"
	"scribe/internal/services/ytdlp"
)

// Discovery lists the items of a collection URL. Implemented by the ytdlp
// client; narrowed to an interface so tests can drive the manager with
// canned collections.
type Discovery interface {
	ListItems(ctx context.Context, url string, maxItems int) (ytdlp.Collection, error)
	ListPlaylists(ctx context.Context, url string) (channel string, playlists []string, err error)
}

// Retrieval lists and fetches caption tracks for one item.
type Retrieval interface {
	ListVariants(ctx context.Context, itemID string) ([]ytdlp.TrackVariant, error)
	Fetch(ctx context.Context, trackURL string) (captions.Track, error)
}

// FailedItem identifies one permanently failed item and why.
type FailedItem struct {
	ItemID string
	Title  string
	Reason string
}

// CollectionSummary aggregates outcomes for one collection.
type CollectionSummary struct {
	Name        string
	URL         string
	Total       int
	Processed   int
	Skipped     int
	Failed      int
	NoVariant   int
	FailedItems []FailedItem
	Err         error
}

// Summary aggregates outcomes for a whole run.
type Summary struct {
	Collections     []CollectionSummary
	RateLimitEvents int
}

// Processed returns the total processed count across collections.
func (s Summary) Processed() int { return s.total(func(c CollectionSummary) int { return c.Processed }) }

// Skipped returns the total skipped count across collections.
func (s Summary) Skipped() int { return s.total(func(c CollectionSummary) int { return c.Skipped }) }

// Failed returns the total failed count across collections.
func (s Summary) Failed() int { return s.total(func(c CollectionSummary) int { return c.Failed }) }

// NoVariant returns the total no-variant count across collections.
func (s Summary) NoVariant() int { return s.total(func(c CollectionSummary) int { return c.NoVariant }) }

func (s Summary) total(field func(CollectionSummary) int) int {
	sum := 0
	for _, col := range s.Collections {
		sum += field(col)
	}
	return sum
}

// Options tune one run beyond the static configuration.
type Options struct {
	// ExpandPlaylists fans each input URL out into its individual
	// playlists before processing.
	ExpandPlaylists bool
}

// Manager drives the per-collection pipeline: discovery, ledger filter,
// variant selection, paced fetch, placement, and ledger append.
type Manager struct {
	cfg       *config.Config
	logger    *slog.Logger
	discovery Discovery
	retrieval Retrieval
	pacer     *pacing.Controller
	layout    *layout.Engine
	store     *runstate.Store // optional; nil disables run reporting

	mu              sync.Mutex
	rateLimitEvents int
}

// NewManager constructs a workflow manager from pre-built dependencies.
func NewManager(cfg *config.Config, discovery Discovery, retrieval Retrieval, pacer *pacing.Controller, eng *layout.Engine, store *runstate.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		discovery: discovery,
		retrieval: retrieval,
		pacer:     pacer,
		layout:    eng,
		store:     store,
	}
}
