// Package session owns the lifetime of uploaded documents. A session is an
// ephemeral handle to one temp file with exactly one owner (the run that
// created it); the file is deleted exactly once, on the first terminal
// transition of that run, whatever the exit path.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"drawcheck/internal/platform/metrics"
	"drawcheck/pkg/platform/sentinel"
)

// DefaultTTL bounds how long an orphaned session survives before the janitor
// removes it. Normal runs release their session long before this.
const DefaultTTL = 15 * time.Minute

// Session is the ephemeral handle for one uploaded document.
type Session struct {
	DocumentRef string
	TempPath    string
	CreatedAt   time.Time
	TTL         time.Duration
}

// Manager tracks live sessions and guarantees temp file removal.
type Manager struct {
	dir     string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the orphan TTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithClock overrides time for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics attaches the active-session gauge.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// NewManager stores temp files under dir, creating it if needed.
func NewManager(dir string, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "drawcheck")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	m := &Manager{
		dir:      dir,
		ttl:      DefaultTTL,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create stages an uploaded document and returns its session. The returned
// document ref is the handle the rest of the pipeline uses; callers never see
// the temp path.
func (m *Manager) Create(_ context.Context, r io.Reader) (*Session, error) {
	ref := "upload-" + uuid.NewString()
	path := filepath.Join(m.dir, ref)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	s := &Session{
		DocumentRef: ref,
		TempPath:    path,
		CreatedAt:   m.now(),
		TTL:         m.ttl,
	}
	m.mu.Lock()
	m.sessions[ref] = s
	m.mu.Unlock()
	m.metrics.SessionOpened()
	return s, nil
}

// Open implements the analyzer's document source over staged uploads.
func (m *Manager) Open(_ context.Context, documentRef string) (io.ReadCloser, error) {
	m.mu.Lock()
	s, ok := m.sessions[documentRef]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("session %s: %w", documentRef, sentinel.ErrNotFound)
	}
	return os.Open(s.TempPath)
}

// Release deletes the session's temp file. The first call wins; later calls
// are no-ops so every exit path can release unconditionally.
func (m *Manager) Release(documentRef string) error {
	m.mu.Lock()
	s, ok := m.sessions[documentRef]
	if ok {
		delete(m.sessions, documentRef)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	m.metrics.SessionClosed()
	if err := os.Remove(s.TempPath); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove session file", "document_ref", documentRef, "error", err.Error())
		return err
	}
	return nil
}

// Exists reports whether a staged file is still on disk. Test hook for the
// cleanup guarantees.
func (m *Manager) Exists(documentRef string) bool {
	_, err := os.Stat(filepath.Join(m.dir, documentRef))
	return err == nil
}

// Sweep releases every session past its TTL and returns how many it removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	var expired []string
	for ref, s := range m.sessions {
		if m.now().Sub(s.CreatedAt) > s.TTL {
			expired = append(expired, ref)
		}
	}
	m.mu.Unlock()

	for _, ref := range expired {
		if err := m.Release(ref); err == nil {
			m.logger.Info("swept expired session", "document_ref", ref)
		}
	}
	return len(expired)
}

// Run sweeps periodically until the context ends. A crashed caller that never
// drove its run to a terminal state cannot leak temp files past the TTL.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}
