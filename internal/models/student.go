package models

import "time"

// Student is a nursing student performing canalization practices.
type Student struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex;size:20"`
	FullName  string `gorm:"size:200"`
	Email     string `gorm:"uniqueIndex"`
	Program   string `gorm:"size:100"`
	Semester  int
	Phone     string `gorm:"size:20"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
