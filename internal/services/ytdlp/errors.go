package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"scribe/internal/services"
)

// commandError preserves stderr from a failed yt-dlp invocation so the
// failure cause survives into logs and error classification.
func commandError(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
	}
	if stderr == "" {
		return err
	}
	// Keep only the last line; yt-dlp prints progress noise above it.
	lines := strings.Split(stderr, "\n")
	return fmt.Errorf("%w: %s", err, strings.TrimSpace(lines[len(lines)-1]))
}

// classifyToolError maps a yt-dlp failure onto the service error taxonomy.
func classifyToolError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return services.ErrTransient
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate-limit") || strings.Contains(msg, "rate limit"):
		return services.ErrRateLimited
	case strings.Contains(msg, "video unavailable") || strings.Contains(msg, "private video") || strings.Contains(msg, "404") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "removed"):
		return services.ErrNotAvailable
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "sign in") || strings.Contains(msg, "age-restricted") || strings.Contains(msg, "members-only"):
		return services.ErrForbidden
	default:
		return services.ErrTransient
	}
}
