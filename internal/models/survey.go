package models

import "time"

// Survey is a student's satisfaction questionnaire, optionally tied to the
// practice it followed. Ratings are 1-5.
type Survey struct {
	ID         uint `gorm:"primaryKey"`
	StudentID  uint `gorm:"index"`
	Student    Student
	PracticeID *uint
	Practice   *Practice

	EaseOfUse           int
	Usefulness          int
	SensorAccuracy      int
	InterfaceClarity    int
	LearningImprovement int

	Positives   string
	Negatives   string
	Suggestions string

	WouldRecommend bool
	SourceIP       string `gorm:"size:45"`

	CreatedAt time.Time
}

// MeanScore averages the five ratings.
func (s *Survey) MeanScore() float64 {
	return float64(s.EaseOfUse+s.Usefulness+s.SensorAccuracy+s.InterfaceClarity+s.LearningImprovement) / 5.0
}
