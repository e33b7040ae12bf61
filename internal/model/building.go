package model

import "time"

// Building is one laundry room's document: a residence owns an ordered set of
// buildings and each building embeds its machines by value. Version backs the
// optimistic-concurrency check that serializes concurrent machine mutations
// within the same building; mutations on different buildings never contend.
type Building struct {
	ID        string      `gorm:"primaryKey;size:64" json:"id"`
	DormID    string      `gorm:"primaryKey;size:32" json:"dormId"`
	Name      string      `gorm:"size:256;not null" json:"name"`
	Position  int         `gorm:"not null" json:"position"`
	Machines  MachineList `gorm:"type:jsonb" json:"machines"`
	Version   int64       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time   `json:"-"`
	UpdatedAt time.Time   `json:"-"`
}
