package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrRateLimited marks a remote block signal. The backoff controller owns
	// recovery; the item is requeued, never marked failed.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotAvailable marks an artifact that does not exist for the item.
	ErrNotAvailable = errors.New("not available")
	// ErrForbidden marks an artifact the remote refuses to serve.
	ErrForbidden = errors.New("forbidden")
	// ErrTransient marks failures worth retrying (timeouts, connection resets).
	ErrTransient = errors.New("transient failure")
	// ErrConfiguration marks operator-fixable configuration problems.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks malformed input or responses.
	ErrValidation = errors.New("validation error")
	// ErrStorage marks local write failures (permissions, disk full). These
	// abort the whole collection: retrying other items against the same
	// broken directory would only repeat the failure.
	ErrStorage = errors.New("storage failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category classifies a fetch error for the orchestrator's state machine.
type Category int

const (
	// CategoryRetryable failures re-enter the fetch loop after the next
	// pacing slot, up to the configured retry ceiling.
	CategoryRetryable Category = iota
	// CategoryItemFatal failures record the item as failed without retry.
	CategoryItemFatal
	// CategoryRateLimit failures trigger the controller-wide cooldown and
	// requeue the item after recovery.
	CategoryRateLimit
	// CategoryCollectionFatal failures abort the current collection; the run
	// moves on to the next one.
	CategoryCollectionFatal
)

// Classify maps a fetch error to the orchestrator's outcome category so the
// pipeline never branches on service-specific error types.
func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimit
	case errors.Is(err, ErrStorage):
		return CategoryCollectionFatal
	case errors.Is(err, ErrNotAvailable), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return CategoryItemFatal
	default:
		return CategoryRetryable
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (timeouts, connection errors, server hiccups).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	timeoutTokens := []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
	}
	for _, token := range timeoutTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
