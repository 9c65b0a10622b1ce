package models

import (
	"time"
)

// User is a dashboard account (professor or admin). Students do not log in;
// they are tracked as Student rows tied to practices.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex"`
	FullName  string
	Email     string `gorm:"uniqueIndex"`
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
