package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MachineStatus is the lifecycle state of a laundry machine.
type MachineStatus string

const (
	StatusAvailable  MachineStatus = "available"
	StatusInUse      MachineStatus = "in-use"
	StatusOutOfOrder MachineStatus = "out-of-order"
)

// MachineType distinguishes washers from dryers.
type MachineType string

const (
	TypeWasher MachineType = "washer"
	TypeDryer  MachineType = "dryer"
)

// ReportThreshold is the number of unresolved fault reports that forces a
// machine out of order.
const ReportThreshold = 5

// Report is a fault complaint filed against a machine by a resident.
// Reports accumulate until explicitly resolved.
type Report struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Issue  string `json:"issue"`
}

// Warning is an advisory note on a machine ("laundry left in drum"). Warnings
// never count toward fault escalation.
type Warning struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Machine is a single washer or dryer. Machines are owned by value by their
// building document and are only ever mutated through the building-level
// transactions in the store.
//
// Invariant: Status == in-use exactly when TimerEnd and ApartmentUser are both
// set.
type Machine struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          MachineType   `json:"type"`
	Status        MachineStatus `json:"status"`
	TimerEnd      *time.Time    `json:"timerEnd"`
	ApartmentUser *string       `json:"apartmentUser"`
	Reports       []Report      `json:"reports"`
	Warnings      []Warning     `json:"warnings"`
}

// InUseBy reports whether the machine is running a cycle started by the given
// apartment user.
func (m *Machine) InUseBy(user string) bool {
	return m.Status == StatusInUse && m.ApartmentUser != nil && *m.ApartmentUser == user
}

// MachineList is the embedded machines document of a building. It serializes
// to a single JSON column so that the whole building row is the unit of
// transactional isolation.
type MachineList []Machine

// Value implements driver.Valuer.
func (l MachineList) Value() (driver.Value, error) {
	if l == nil {
		l = MachineList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *MachineList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = MachineList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported machines column type %T", src)
	}
}

// Find returns the index of the machine with the given id, or -1.
func (l MachineList) Find(machineID string) int {
	for i := range l {
		if l[i].ID == machineID {
			return i
		}
	}
	return -1
}
