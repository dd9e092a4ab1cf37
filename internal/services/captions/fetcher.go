// Package captions fetches caption track content over HTTP and renders it
// into transcript artifacts.
package captions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services"
)

const userAgent = "Scribe/0.1.0"

// maxTrackBytes bounds a single caption download; tracks are small and an
// oversized response indicates a redirect to something else entirely.
const maxTrackBytes = 16 << 20

// Fetcher retrieves caption track content from track URLs discovered by the
// ytdlp client.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher builds a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "captions"),
	}
}

// Fetch downloads and parses one caption track. Failures carry the service
// error taxonomy so the orchestrator can map them to retry, skip, or
// cooldown behavior without inspecting transport details.
func (f *Fetcher) Fetch(ctx context.Context, trackURL string) (Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return Track{}, services.Wrap(services.ErrValidation, "captions", "fetch", "build track request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Timeouts, DNS failures, and connection resets are all transient.
		return Track{}, services.Wrap(services.ErrTransient, "captions", "fetch", "request caption track", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		marker := classifyStatus(resp.StatusCode)
		return Track{}, services.Wrap(marker, "captions", "fetch",
			fmt.Sprintf("caption track returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTrackBytes))
	if err != nil {
		return Track{}, services.Wrap(services.ErrTransient, "captions", "fetch", "read caption track body", err)
	}

	track, err := parseJSON3(body)
	if err != nil {
		return Track{}, services.Wrap(services.ErrNotAvailable, "captions", "fetch", "parse caption track", err)
	}
	logging.WithContext(ctx, f.logger).Debug("caption track fetched",
		logging.Int("bytes", len(body)),
		logging.Int("cues", len(track.Cues)),
	)
	return track, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return services.ErrRateLimited
	case status == http.StatusForbidden:
		return services.ErrForbidden
	case status == http.StatusNotFound || status == http.StatusGone:
		return services.ErrNotAvailable
	case status >= 500:
		return services.ErrTransient
	default:
		return services.ErrTransient
	}
}
