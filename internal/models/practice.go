package models

import (
	"errors"
	"time"
)

// Practice states. A practice cycles started <-> paused any number of times
// and ends in finished, which is terminal.
const (
	PracticeStarted  = "started"
	PracticePaused   = "paused"
	PracticeFinished = "finished"
)

var ErrInvalidTransition = errors.New("invalid practice state transition")

// Practice is one student+device work period. Rows are never deleted; the
// history feeds reports and per-student statistics.
type Practice struct {
	ID        uint `gorm:"primaryKey"`
	StudentID uint `gorm:"index"`
	Student   Student
	DeviceID  uint `gorm:"index"`
	Device    Device
	State     string `gorm:"size:20;index"`

	StartedAt  time.Time
	PausedAt   *time.Time
	ResumedAt  *time.Time
	FinishedAt *time.Time

	// DurationSeconds only advances on pause/finish transitions. It is never
	// written while the practice is running.
	DurationSeconds int

	TotalAttempts      int
	SuccessfulAttempts int
	AverageAccuracy    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pause folds the running segment into DurationSeconds and stops the clock.
func (p *Practice) Pause(now time.Time) error {
	if p.State != PracticeStarted {
		return ErrInvalidTransition
	}
	p.DurationSeconds += int(now.Sub(p.segmentStart()).Seconds())
	p.PausedAt = &now
	p.State = PracticePaused
	return nil
}

// Resume restarts the clock on a paused practice.
func (p *Practice) Resume(now time.Time) error {
	if p.State != PracticePaused {
		return ErrInvalidTransition
	}
	p.ResumedAt = &now
	p.State = PracticeStarted
	return nil
}

// Finish closes the practice from either running state. When still started,
// the open segment is folded in first so duration is counted exactly once.
func (p *Practice) Finish(now time.Time) error {
	switch p.State {
	case PracticeStarted:
		p.DurationSeconds += int(now.Sub(p.segmentStart()).Seconds())
	case PracticePaused:
	default:
		return ErrInvalidTransition
	}
	p.FinishedAt = &now
	p.State = PracticeFinished
	return nil
}

// ElapsedSeconds is the live "time on task" value: accumulated duration plus
// the open segment when running. Nothing is persisted here.
func (p *Practice) ElapsedSeconds(now time.Time) int {
	if p.State != PracticeStarted {
		return p.DurationSeconds
	}
	return p.DurationSeconds + int(now.Sub(p.segmentStart()).Seconds())
}

func (p *Practice) Active() bool {
	return p.State == PracticeStarted || p.State == PracticePaused
}

func (p *Practice) segmentStart() time.Time {
	if p.ResumedAt != nil {
		return *p.ResumedAt
	}
	return p.StartedAt
}
