// Package history provides the append-only log of REPL evaluations.
// All sessions share one file; each line is tagged with the session ID
// so interleaved sessions stay distinguishable. Writes take an advisory
// file lock, letting concurrent lkcalc processes append safely.
package history

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// lockTimeout bounds how long an append waits for the file lock before
// giving up.
const lockTimeout = 2 * time.Second

// History appends evaluation records to the shared history file.
type History struct {
	path    string
	session string
	mu      sync.Mutex
}

// DefaultPath returns the standard history location,
// ~/.lkcalc/history.log.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".lkcalc", "history.log"), nil
}

// New creates a history writer for the given file with a fresh session
// ID.
func New(path string) *History {
	return &History{
		path:    path,
		session: uuid.New().String(),
	}
}

// Session returns this writer's session ID.
func (h *History) Session() string {
	return h.session
}

// Append writes one evaluation record:
//
//	2024-06-15 10:30:00 [1b4e28ba] SUM(1,2) => 3
//
// The bracketed tag is the first segment of the session UUID. The
// mutex serializes goroutines in this process; the flock serializes
// processes sharing the file.
func (h *History) Append(formula, result string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	fileLock := flock.New(h.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring history lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("timeout waiting for history lock")
	}
	defer fileLock.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s [%s] %s => %s\n",
		time.Now().Format("2006-01-02 15:04:05"), h.tag(), formula, result)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing history line: %w", err)
	}
	return nil
}

// tag returns the short session tag used in history lines.
func (h *History) tag() string {
	if i := strings.IndexByte(h.session, '-'); i > 0 {
		return h.session[:i]
	}
	return h.session
}

// Recent returns up to n of the most recent history lines, oldest
// first. A missing file means no history yet, not an error.
func (h *History) Recent(n int) ([]string, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
