package models

import (
	"errors"
	"testing"
	"time"
)

func startedPractice(start time.Time) *Practice {
	return &Practice{State: PracticeStarted, StartedAt: start}
}

func TestPracticePauseFoldsDuration(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := startedPractice(start)

	if err := p.Pause(start.Add(90 * time.Second)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if p.State != PracticePaused {
		t.Errorf("state = %q, want paused", p.State)
	}
	if p.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %d, want 90", p.DurationSeconds)
	}
	if p.PausedAt == nil {
		t.Error("PausedAt not set")
	}
}

func TestPracticePauseResumeFinish(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := startedPractice(start)

	// Run 60s, pause 5 minutes, run 30s more, finish.
	if err := p.Pause(start.Add(60 * time.Second)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := p.Resume(start.Add(6 * time.Minute)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if p.State != PracticeStarted {
		t.Errorf("state after resume = %q, want started", p.State)
	}
	if err := p.Finish(start.Add(6*time.Minute + 30*time.Second)); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// The paused gap must not count.
	if p.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %d, want 90", p.DurationSeconds)
	}
	if p.State != PracticeFinished {
		t.Errorf("state = %q, want finished", p.State)
	}
	if p.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
}

func TestPracticeFinishWhilePaused(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := startedPractice(start)

	if err := p.Pause(start.Add(45 * time.Second)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := p.Finish(start.Add(10 * time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Finishing from paused must not fold the gap a second time.
	if p.DurationSeconds != 45 {
		t.Errorf("DurationSeconds = %d, want 45", p.DurationSeconds)
	}
}

func TestPracticeInvalidTransitions(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := start.Add(time.Minute)

	p := startedPractice(start)
	if err := p.Resume(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume on started = %v, want ErrInvalidTransition", err)
	}

	p = startedPractice(start)
	if err := p.Finish(now); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := p.Finish(now.Add(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Finish on finished = %v, want ErrInvalidTransition", err)
	}
	if err := p.Pause(now.Add(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause on finished = %v, want ErrInvalidTransition", err)
	}

	p = startedPractice(start)
	if err := p.Pause(now); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := p.Pause(now.Add(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause on paused = %v, want ErrInvalidTransition", err)
	}
}

func TestPracticeElapsedSeconds(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := startedPractice(start)

	if got := p.ElapsedSeconds(start.Add(25 * time.Second)); got != 25 {
		t.Errorf("elapsed while running = %d, want 25", got)
	}

	if err := p.Pause(start.Add(60 * time.Second)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	// Frozen while paused, regardless of wall clock.
	if got := p.ElapsedSeconds(start.Add(time.Hour)); got != 60 {
		t.Errorf("elapsed while paused = %d, want 60", got)
	}

	if err := p.Resume(start.Add(2 * time.Hour)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := p.ElapsedSeconds(start.Add(2*time.Hour + 15*time.Second)); got != 75 {
		t.Errorf("elapsed after resume = %d, want 75", got)
	}
}

func TestPracticeActive(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := startedPractice(start)
	if !p.Active() {
		t.Error("started practice not active")
	}
	p.Pause(start.Add(time.Second))
	if !p.Active() {
		t.Error("paused practice not active")
	}
	p.Finish(start.Add(2 * time.Second))
	if p.Active() {
		t.Error("finished practice still active")
	}
}

func TestARSessionAlive(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := &ARSession{State: ARActive, LastActivityAt: now}

	if !s.Alive(now.Add(ARInactivityWindow - time.Second)) {
		t.Error("session inside the window not alive")
	}
	if s.Alive(now.Add(ARInactivityWindow)) {
		t.Error("session at the window boundary still alive")
	}

	s.Close(now.Add(5 * time.Second))
	if s.State != ARDisconnected || s.EndedAt == nil {
		t.Errorf("Close left state %q, ended %v", s.State, s.EndedAt)
	}
	if s.Alive(now.Add(6 * time.Second)) {
		t.Error("closed session still alive")
	}
}
