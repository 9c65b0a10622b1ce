package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/veinview/backend/internal/utils"
)

// AR session states.
const (
	ARConnecting   = "connecting"
	ARActive       = "active"
	ARPaused       = "paused"
	ARDisconnected = "disconnected"
	ARError        = "error"
)

// ARInactivityWindow is how long a session survives without a heartbeat or
// any other authenticated call before it is treated as expired.
const ARInactivityWindow = 30 * time.Second

// ARSession is one AR client (HoloLens, Quest, ...) consuming the live feed
// of a practice. The session token is issued once and compared by exact match.
type ARSession struct {
	ID         uint `gorm:"primaryKey"`
	StudentID  uint `gorm:"index"`
	Student    Student
	PracticeID *uint
	Practice   *Practice

	SessionToken string `gorm:"uniqueIndex;size:64"`
	ARDevice     string `gorm:"size:100"`
	SourceIP     string `gorm:"size:45"`
	State        string `gorm:"size:20;index"`

	DisplayMode string  `gorm:"size:50"` // overlay, hologram, mixed
	ModelScale  float64
	Opacity     float64

	StartedAt      time.Time
	LastActivityAt time.Time
	EndedAt        *time.Time

	DeliveredReadings int
	// MeanLatencyMS is smoothed with an exponential moving average weighted
	// 0.8 old / 0.2 new; the first sample sets it directly.
	MeanLatencyMS float64
}

func (s *ARSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.SessionToken == "" {
		s.SessionToken, err = utils.GenerateToken(48)
	}
	return err
}

// Alive reports whether the session can still be used: an open state and
// activity within the inactivity window.
func (s *ARSession) Alive(now time.Time) bool {
	if s.State != ARActive && s.State != ARPaused {
		return false
	}
	return now.Sub(s.LastActivityAt) < ARInactivityWindow
}

// Close marks the session disconnected.
func (s *ARSession) Close(now time.Time) {
	s.State = ARDisconnected
	s.EndedAt = &now
}

// ARDelivery records one reading handed to an AR session, with latency
// metadata when the client reports reception.
type ARDelivery struct {
	ID          uint `gorm:"primaryKey"`
	ARSessionID uint `gorm:"index:idx_ar_deliveries_session_ts,priority:1"`
	ReadingID   uint `gorm:"index"`

	SentAt     time.Time `gorm:"index:idx_ar_deliveries_session_ts,priority:2,sort:desc"`
	ReceivedAt *time.Time
	LatencyMS  *float64

	Delivered bool
	Error     string
}

// ARConfig is per-student AR visualization preferences, created on first use.
type ARConfig struct {
	ID        uint `gorm:"primaryKey"`
	StudentID uint `gorm:"uniqueIndex"`

	ColorAngleOK    string `gorm:"size:7"`
	ColorAngleBad   string `gorm:"size:7"`
	ColorForceOK    string `gorm:"size:7"`

	ShowGrid    bool
	ShowAngles  bool
	ShowForce   bool
	ShowHistory bool

	AudioFeedback bool
	Volume        float64
	TargetFPS     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultARConfig returns the config seeded for a student on first contact.
func DefaultARConfig(studentID uint) ARConfig {
	return ARConfig{
		StudentID:     studentID,
		ColorAngleOK:  "#00FF00",
		ColorAngleBad: "#FF0000",
		ColorForceOK:  "#0000FF",
		ShowGrid:      true,
		ShowAngles:    true,
		ShowForce:     true,
		ShowHistory:   true,
		AudioFeedback: true,
		Volume:        0.5,
		TargetFPS:     30,
	}
}

// AR event types.
const (
	AREventConnect       = "connect"
	AREventDisconnect    = "disconnect"
	AREventError         = "error"
	AREventConfigChange  = "config_change"
	AREventPracticeStart = "practice_start"
	AREventPracticeEnd   = "practice_end"
	AREventCalibration   = "calibration"
)

// AREvent is a free-form event reported by (or about) an AR session. Payload
// holds arbitrary client JSON verbatim.
type AREvent struct {
	ID          uint `gorm:"primaryKey"`
	ARSessionID uint `gorm:"index"`

	Type        string `gorm:"size:20;index"`
	Description string
	Payload     string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
}

// ValidAREventType reports whether t is one of the known event types.
func ValidAREventType(t string) bool {
	switch t {
	case AREventConnect, AREventDisconnect, AREventError, AREventConfigChange,
		AREventPracticeStart, AREventPracticeEnd, AREventCalibration:
		return true
	}
	return false
}
