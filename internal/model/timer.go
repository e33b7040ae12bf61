package model

import "time"

// CycleTimer is an active laundry-cycle countdown owned by one user. The set
// of rows is the durable active-timer list: a restart or a reconnecting
// client reconstructs in-flight timers from it. Rows are deleted when the
// timer expires or is cancelled; there is no history.
type CycleTimer struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	UserID        string      `gorm:"index;size:64;not null" json:"-"`
	DormID        string      `gorm:"size:32;not null" json:"dormId"`
	MachineNumber int         `gorm:"not null" json:"machineNumber"`
	MachineType   MachineType `gorm:"size:16;not null" json:"machineType"`
	MachineName   string      `gorm:"size:64;not null" json:"machineName"`
	CycleType     string      `gorm:"size:16;not null" json:"cycleType"`
	EndTime       time.Time   `gorm:"index;not null" json:"endTime"`
	// Duration is the originally requested cycle length in minutes.
	Duration  int       `gorm:"not null" json:"duration"`
	CreatedAt time.Time `json:"-"`
}
