package model

import "time"

// Usage events recorded alongside machine state transitions.
const (
	UsageStarted    = "started"
	UsageFinished   = "finished"
	UsageOutOfOrder = "out-of-order"
	UsageRestored   = "restored"
)

// UsageRecord is the historical log of machine state transitions. Rows are
// written inside the same transaction as the building mutation they describe.
type UsageRecord struct {
	ID            int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DormID        string    `gorm:"index;size:32;not null" json:"dormId"`
	BuildingID    string    `gorm:"size:64;not null" json:"buildingId"`
	MachineID     string    `gorm:"index;size:64;not null" json:"machineId"`
	Event         string    `gorm:"size:32;not null" json:"event"`
	ApartmentUser string    `gorm:"size:64" json:"apartmentUser,omitempty"`
	ObservedAt    time.Time `gorm:"index;not null" json:"observedAt"`
	// PeriodEnd is the predicted cycle end for "started" events, nil otherwise.
	PeriodEnd *time.Time `json:"periodEnd,omitempty"`
}
