package automation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/reticle-bot/domain/puzzle"
)

// PuzzleSession describes one activation of a puzzle handler.
type PuzzleSession struct {
	ID       uuid.UUID
	Type     puzzle.Type
	Started  time.Time
	Frames   int
	Triggers int
}

// SessionValues is a snapshot of Session.
type SessionValues struct {
	Enabled  time.Duration // current (or last) enabled stretch
	Total    time.Duration // accumulated enabled time including the current stretch
	Puzzles  int           // completed or abandoned puzzle sessions
	Triggers int           // keys injected across all sessions
	Active   *PuzzleSession
}

// Session tracks enabled time and puzzle activity. Written by the loop
// goroutine, read by the stats logger. The zero value is ready to use.
type Session struct {
	mu           sync.Mutex
	enabled      bool
	enabledStart time.Time
	lastEnabled  time.Duration
	accumulated  time.Duration
	current      *PuzzleSession
	puzzles      int
	triggers     int
}

func NewSession() *Session { return &Session{} }

// OnTick updates enabled-time accounting from the current flag value.
func (s *Session) OnTick(enabled bool, now time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		if !s.enabled { // off -> on
			s.enabled = true
			s.enabledStart = now
			s.lastEnabled = 0
		}
		s.lastEnabled = now.Sub(s.enabledStart)
	} else if s.enabled { // on -> off
		s.lastEnabled = now.Sub(s.enabledStart)
		s.accumulated += s.lastEnabled
		s.enabled = false
	}
}

// BeginPuzzle opens a puzzle session, closing any previous one.
func (s *Session) BeginPuzzle(t puzzle.Type, now time.Time) PuzzleSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.puzzles++
	}
	s.current = &PuzzleSession{ID: uuid.New(), Type: t, Started: now}
	return *s.current
}

func (s *Session) RecordFrame() {
	s.mu.Lock()
	if s.current != nil {
		s.current.Frames++
	}
	s.mu.Unlock()
}

func (s *Session) RecordTrigger() {
	s.mu.Lock()
	s.triggers++
	if s.current != nil {
		s.current.Triggers++
	}
	s.mu.Unlock()
}

// EndPuzzle closes the open puzzle session and returns it with its duration.
func (s *Session) EndPuzzle(now time.Time) (PuzzleSession, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return PuzzleSession{}, 0, false
	}
	ps := *s.current
	s.current = nil
	s.puzzles++
	return ps, now.Sub(ps.Started), true
}

// Values returns a snapshot of the counters.
func (s *Session) Values() SessionValues {
	if s == nil {
		return SessionValues{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionValues{
		Enabled:  s.lastEnabled,
		Total:    s.accumulated,
		Puzzles:  s.puzzles,
		Triggers: s.triggers,
	}
	if s.enabled {
		v.Total += s.lastEnabled
	}
	if s.current != nil {
		cp := *s.current
		v.Active = &cp
	}
	return v
}
