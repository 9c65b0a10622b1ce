package models

import "time"

// PracticeSummary is the post-hoc evaluation of one finished practice:
// computed aggregates plus the professor's grade and rubric flags. Stats and
// the automatic grade can be recomputed at any time.
type PracticeSummary struct {
	ID         uint `gorm:"primaryKey"`
	PracticeID uint `gorm:"uniqueIndex"`
	Practice   Practice
	UserID     *uint // evaluating professor, if any
	User       *User

	TotalReadings int
	MeanPitch     *float64
	MeanForce     *float64
	MaxForce      *float64
	MinForce      *float64
	Accuracy      float64

	Grade *float64 // 0.0 to 5.0
	Notes string

	TechniqueCorrect   bool
	AngleAdequate      bool
	PressureControlled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
