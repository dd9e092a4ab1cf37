package ytdlp

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services"
)

// Item is one discoverable unit of work within a collection.
type Item struct {
	ID    string
	Title string
}

// Collection is the result of discovering one channel or playlist URL.
type Collection struct {
	Name  string
	URL   string
	Items []Item
}

// Executor abstracts command execution for the client.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, commandError(err, stderr.String())
	}
	return out, nil
}

// Client wraps yt-dlp for collection discovery and caption track metadata.
type Client struct {
	binary      string
	exec        Executor
	listTimeout time.Duration
	logger      *slog.Logger
}

// NewClient constructs a Client for the provided yt-dlp binary.
func NewClient(binary string, listTimeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithExecutor(binary, listTimeout, logger, commandExecutor{})
}

// NewClientWithExecutor allows injecting a custom executor for testing.
func NewClientWithExecutor(binary string, listTimeout time.Duration, logger *slog.Logger, exec Executor) *Client {
	if exec == nil {
		exec = commandExecutor{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if listTimeout <= 0 {
		listTimeout = 10 * time.Minute
	}
	return &Client{
		binary:      strings.TrimSpace(binary),
		exec:        exec,
		listTimeout: listTimeout,
		logger:      logging.NewComponentLogger(logger, "ytdlp"),
	}
}

// Available reports whether the yt-dlp binary can be resolved.
func (c *Client) Available() error {
	if c.binary == "" {
		return services.Wrap(services.ErrConfiguration, "ytdlp", "available", "yt-dlp binary not configured", nil)
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return services.Wrap(services.ErrConfiguration, "ytdlp", "available", "yt-dlp binary not found in PATH", err)
	}
	return nil
}

// ListItems discovers the items of a channel or playlist URL. maxItems
// limits the listing when positive. Failures are collection-level: the
// caller aborts the collection, not individual items.
func (c *Client) ListItems(ctx context.Context, url string, maxItems int) (Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	args := []string{"--flat-playlist", "--skip-download", "-J", url}
	if maxItems > 0 {
		args = append([]string{"--playlist-end", strconv.Itoa(maxItems)}, args...)
	}

	started := time.Now()
	out, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return Collection{}, services.Wrap(classifyToolError(ctx, err), "ytdlp", "list-items", "list collection "+url, err)
	}

	col, err := parseCollectionDump(out, url)
	if err != nil {
		return Collection{}, services.Wrap(services.ErrTransient, "ytdlp", "list-items", "parse collection listing", err)
	}
	if maxItems > 0 && len(col.Items) > maxItems {
		col.Items = col.Items[:maxItems]
	}

	c.logger.Info("collection discovered",
		logging.String(logging.FieldCollection, col.Name),
		logging.Int("items", len(col.Items)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return col, nil
}

// ListPlaylists expands a channel's playlists tab into the channel name and
// the individual playlist URLs, so one channel URL can fan out into
// per-playlist collections nested under the channel directory.
func (c *Client) ListPlaylists(ctx context.Context, channelURL string) (string, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	url := strings.TrimRight(channelURL, "/") + "/playlists"
	out, err := c.exec.Run(ctx, c.binary, []string{"--flat-playlist", "--skip-download", "-J", url})
	if err != nil {
		return "", nil, services.Wrap(classifyToolError(ctx, err), "ytdlp", "list-playlists", "list playlists for "+channelURL, err)
	}
	channel, urls, err := parsePlaylistDump(out)
	if err != nil {
		return "", nil, services.Wrap(services.ErrTransient, "ytdlp", "list-playlists", "parse playlist listing", err)
	}
	if channel == "" {
		channel = nameFromURL(channelURL)
	}
	return channel, urls, nil
}

// ListVariants returns the caption tracks available for one item, both
// manual and auto-generated, with track URLs resolved to the json3 format.
func (c *Client) ListVariants(ctx context.Context, itemID string) ([]TrackVariant, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	url := "https://www.youtube.com/watch?v=" + itemID
	out, err := c.exec.Run(ctx, c.binary, []string{"--skip-download", "-J", url})
	if err != nil {
		return nil, services.Wrap(classifyToolError(ctx, err), "ytdlp", "list-variants", "inspect item "+itemID, err)
	}
	variants, err := parseSubtitleDump(out)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ytdlp", "list-variants", "parse item metadata", err)
	}
	return variants, nil
}
