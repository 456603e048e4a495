// Package session keeps per-visitor workbook state in memory: the current
// workbook, a bounded undo history and the result of the last recipe run.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/transform"
)

// ErrNothingToUndo is returned by Undo when there is no earlier version.
var ErrNothingToUndo = errors.New("nothing to undo")

// Version is one saved state of the session's workbook.
type Version struct {
	Name string
	Data []byte
	// Label describes what produced the version, e.g. "upload" or a recipe name.
	Label   string
	Created time.Time
}

// Session is the state of one visitor. Its methods other than Do and ID must
// be called from within Do.
type Session struct {
	id  string
	max int
	now func() time.Time

	turn     ticketLock
	current  *Version
	history  []Version
	report   *transform.Report
	values   map[string]string
	lastSeen time.Time // guarded by the store
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Do runs fn with exclusive access to the session. Concurrent callers are
// served one at a time, in the order they called Do.
func (s *Session) Do(fn func(*Session) error) error {
	s.turn.lock()
	defer s.turn.unlock()
	return fn(s)
}

// ticketLock is a mutex that admits waiters first come, first served.
// sync.Mutex makes no such promise. The zero value is unlocked.
type ticketLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func (l *ticketLock) lock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cond == nil {
		l.cond = sync.NewCond(&l.mu)
	}
	ticket := l.next
	l.next++
	for l.serving != ticket {
		l.cond.Wait()
	}
}

func (l *ticketLock) unlock() {
	l.mu.Lock()
	l.serving++
	l.mu.Unlock()
	l.cond.Broadcast()
}

// queued returns the number of holders and waiters.
func (l *ticketLock) queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.next - l.serving)
}

// Current returns the current workbook version.
func (s *Session) Current() (Version, bool) {
	if s.current == nil {
		return Version{}, false
	}
	return *s.current, true
}

// Push makes a new version current. The previous one moves into the history,
// which keeps at most the configured number of entries.
func (s *Session) Push(name string, data []byte, label string) {
	if s.current != nil {
		s.history = append(s.history, *s.current)
		if s.max > 0 && len(s.history) > s.max {
			s.history = append(s.history[:0:0], s.history[len(s.history)-s.max:]...)
		}
	}
	s.current = &Version{Name: name, Data: data, Label: label, Created: s.now()}
}

// Undo restores the previous version.
func (s *Session) Undo() (Version, error) {
	if len(s.history) == 0 {
		return Version{}, ErrNothingToUndo
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = &prev
	s.report = nil
	return prev, nil
}

// History returns earlier versions, oldest first.
func (s *Session) History() []Version {
	return append([]Version(nil), s.history...)
}

// Reset drops the workbook, its history and all values.
func (s *Session) Reset() {
	s.current = nil
	s.history = nil
	s.report = nil
	s.values = nil
}

// SetReport records the outcome of the last recipe run.
func (s *Session) SetReport(r *transform.Report) {
	s.report = r
}

// Report returns the outcome of the last recipe run, if any.
func (s *Session) Report() *transform.Report {
	return s.report
}

// Set stores a free-form value, such as the last recipe text.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
}

// Get returns a value stored with Set.
func (s *Session) Get(key string) string {
	return s.values[key]
}
