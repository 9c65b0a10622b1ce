package models

import "time"

// Report is an aggregate snapshot over a date range, generated on demand for
// the professor dashboard. Stored so past reports stay comparable even after
// new practices come in; Regenerate overwrites the aggregates in place.
type Report struct {
	ID     uint   `gorm:"primaryKey"`
	Title  string `gorm:"size:200"`
	From   time.Time
	To     time.Time
	UserID *uint // generating professor, if any
	User   *User

	TotalStudents  int
	TotalPractices int
	TotalReadings  int

	MeanAccuracy        float64
	MeanAttempts        float64
	MeanDurationSeconds float64
	MeanGrade           float64

	MeanSatisfaction float64
	TotalSurveys     int

	GeneratedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
