package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A user may hold several (one per device); presence of at least one is what
// the timer engine treats as notification permission granted.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;size:64;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
