// Package ledger tracks completed items so interrupted runs resume where
// they left off.
//
// The ledger is a plaintext file with one item identifier per line, appended
// and synced as soon as an item's artifacts are durably on disk. Losing the
// file is safe: the worst case is re-downloading items that already finished.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"scribe/internal/services"
)

// FileName is the ledger file stored inside each collection directory.
const FileName = ".transcript_archive.txt"

// Ledger is an append-only record of completed item identifiers. All methods
// are safe for concurrent use. A nil Ledger acts as a disabled ledger that
// contains nothing and records nothing.
type Ledger struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// Open loads the ledger at path, creating an empty in-memory ledger when the
// file does not exist yet. Comment lines starting with '#' and malformed
// lines are skipped rather than treated as corruption, so a hand-annotated
// or partially written file never blocks a run.
func Open(path string) (*Ledger, error) {
	led := &Ledger{
		path: path,
		seen: make(map[string]struct{}),
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return led, nil
		}
		return nil, services.Wrap(services.ErrTransient, "ledger", "open", "read ledger file", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" || strings.HasPrefix(id, "#") || strings.ContainsAny(id, " \t") {
			continue
		}
		led.seen[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "ledger", "open", "scan ledger file", err)
	}
	return led, nil
}

// ForCollection opens the ledger stored inside the given collection directory.
func ForCollection(dir string) (*Ledger, error) {
	return Open(filepath.Join(dir, FileName))
}

// EmptyForCollection returns a ledger bound to the collection's file but
// loaded with no entries. It is the fallback when the existing file cannot
// be read: the run refetches everything, yet Record still persists progress
// for the next run.
func EmptyForCollection(dir string) *Ledger {
	return &Ledger{
		path: filepath.Join(dir, FileName),
		seen: make(map[string]struct{}),
	}
}

// Contains reports whether the item has already been completed.
func (l *Ledger) Contains(id string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Record marks an item as completed, appending it to the ledger file and
// syncing before returning. Call this only after the item's artifacts are
// fully written: recording first would skip the item forever if the write
// then failed. Recording an already-present id is a no-op.
func (l *Ledger) Record(id string) error {
	if l == nil {
		return nil
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return services.Wrap(services.ErrValidation, "ledger", "record", fmt.Sprintf("invalid item id %q", id), nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "ledger", "record", "create ledger directory", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return services.Wrap(services.ErrStorage, "ledger", "record", "open ledger file", err)
	}
	defer file.Close()

	if _, err := file.WriteString(id + "\n"); err != nil {
		return services.Wrap(services.ErrStorage, "ledger", "record", "append ledger entry", err)
	}
	if err := file.Sync(); err != nil {
		return services.Wrap(services.ErrStorage, "ledger", "record", "sync ledger file", err)
	}

	l.seen[id] = struct{}{}
	return nil
}

// Len returns the number of completed items.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Entries returns the recorded item identifiers in sorted order.
func (l *Ledger) Entries() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.seen))
	for id := range l.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Reset removes the ledger file and clears the in-memory set. A missing file
// is not an error.
func (l *Ledger) Reset() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrTransient, "ledger", "reset", "remove ledger file", err)
	}
	l.seen = make(map[string]struct{})
	return nil
}
