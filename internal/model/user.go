package model

import "time"

// User is a resident account. ApartmentNumber doubles as the identity used by
// the laundry quota and the per-page admin allow-lists; DormID pins the
// account to one residence.
type User struct {
	ID              string `gorm:"primaryKey;size:64"`
	Email           string `gorm:"uniqueIndex;size:256;not null"`
	PasswordHash    string `gorm:"size:128;not null" json:"-"`
	ApartmentNumber string `gorm:"size:16;not null"`
	DormID          string `gorm:"index;size:32;not null"`
	IsLoggedIn      bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
