package automation

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/reticle-bot/domain/puzzle"
)

func TestSession_EnabledTimeLifecycle(t *testing.T) {
	s := NewSession()
	base := time.Unix(0, 0)

	s.OnTick(true, base)
	s.OnTick(true, base.Add(5*time.Second))
	v := s.Values()
	if v.Enabled != 5*time.Second || v.Total != 5*time.Second {
		t.Fatalf("expected 5s enabled & total; got enabled=%v total=%v", v.Enabled, v.Total)
	}

	s.OnTick(false, base.Add(5*time.Second))
	s.OnTick(false, base.Add(7*time.Second))
	v2 := s.Values()
	if v2.Enabled != v.Enabled || v2.Total != v.Total {
		t.Fatalf("idle ticks should not change durations: before %+v after %+v", v, v2)
	}

	s.OnTick(true, base.Add(10*time.Second))
	s.OnTick(true, base.Add(13*time.Second))
	v3 := s.Values()
	if v3.Enabled != 3*time.Second || v3.Total != 8*time.Second {
		t.Fatalf("second stretch expected 3s/8s; got %v/%v", v3.Enabled, v3.Total)
	}
}

func TestSession_PuzzleAccounting(t *testing.T) {
	s := NewSession()
	base := time.Unix(100, 0)

	if _, _, ok := s.EndPuzzle(base); ok {
		t.Fatalf("EndPuzzle without a session must report false")
	}
	s.RecordTrigger() // outside a puzzle still counts globally

	ps := s.BeginPuzzle(puzzle.Reticle, base)
	if ps.ID == uuid.Nil {
		t.Fatalf("expected a session id")
	}
	s.RecordFrame()
	s.RecordFrame()
	s.RecordTrigger()

	ended, dur, ok := s.EndPuzzle(base.Add(1500 * time.Millisecond))
	if !ok {
		t.Fatalf("expected an open session")
	}
	if ended.ID != ps.ID || ended.Frames != 2 || ended.Triggers != 1 {
		t.Fatalf("unexpected ended session %+v", ended)
	}
	if dur != 1500*time.Millisecond {
		t.Fatalf("duration = %v", dur)
	}
	v := s.Values()
	if v.Puzzles != 1 || v.Triggers != 2 || v.Active != nil {
		t.Fatalf("unexpected values %+v", v)
	}

	a := s.BeginPuzzle(puzzle.Reticle, base)
	b := s.BeginPuzzle(puzzle.Reticle, base)
	if a.ID == b.ID {
		t.Fatalf("session ids must be unique")
	}
	if got := s.Values().Puzzles; got != 2 {
		t.Fatalf("replacing an open session should close it; puzzles=%d", got)
	}
}

func TestSession_NilSafe(t *testing.T) {
	var s *Session
	s.OnTick(true, time.Now())
	if v := s.Values(); v != (SessionValues{}) {
		t.Fatalf("nil session values = %+v", v)
	}
}
