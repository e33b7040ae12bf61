// Package laundry implements the machine state machine as pure transitions
// over a building's embedded machines document. The store applies these
// inside a building-level transaction; nothing here touches the database.
package laundry

import (
	"time"

	"github.com/google/uuid"

	"dormportal-backend/internal/apperr"
	"dormportal-backend/internal/model"
)

// Start begins a cycle on an available machine.
func Start(m *model.Machine, user string, duration time.Duration, now time.Time) error {
	if m.Status != model.StatusAvailable {
		return apperr.ErrInvalidState
	}
	end := now.Add(duration)
	m.Status = model.StatusInUse
	m.TimerEnd = &end
	m.ApartmentUser = &user
	return nil
}

// Finish resets a machine to available regardless of its prior status.
// Idempotent.
func Finish(m *model.Machine) {
	m.Status = model.StatusAvailable
	m.TimerEnd = nil
	m.ApartmentUser = nil
}

// Report files a fault report and escalates the machine to out-of-order once
// the unresolved count reaches the threshold, independent of any running
// cycle. It returns the new report.
func Report(m *model.Machine, user, issue string) model.Report {
	r := model.Report{ID: uuid.NewString(), UserID: user, Issue: issue}
	m.Reports = append(m.Reports, r)
	if len(m.Reports) >= model.ReportThreshold {
		m.Status = model.StatusOutOfOrder
		// The interrupted cycle, if any, is not resumed on restore.
		m.TimerEnd = nil
		m.ApartmentUser = nil
	}
	return r
}

// ResolveReport removes a report by id. An out-of-order machine reverts to
// available once its report count drops below the threshold; it never goes
// back to in-use, so any cycle interrupted by the escalation stays discarded.
// It reports whether the machine was restored.
func ResolveReport(m *model.Machine, reportID string) (bool, error) {
	idx := -1
	for i := range m.Reports {
		if m.Reports[i].ID == reportID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, apperr.ErrNotFound
	}
	m.Reports = append(m.Reports[:idx], m.Reports[idx+1:]...)
	if m.Status == model.StatusOutOfOrder && len(m.Reports) < model.ReportThreshold {
		m.Status = model.StatusAvailable
		m.TimerEnd = nil
		m.ApartmentUser = nil
		return true, nil
	}
	return false, nil
}

// Warn attaches an advisory note. Warnings never affect status.
func Warn(m *model.Machine, user, message string) model.Warning {
	w := model.Warning{ID: uuid.NewString(), UserID: user, Message: message}
	m.Warnings = append(m.Warnings, w)
	return w
}

// ResolveWarning removes a warning by id.
func ResolveWarning(m *model.Machine, warningID string) error {
	for i := range m.Warnings {
		if m.Warnings[i].ID == warningID {
			m.Warnings = append(m.Warnings[:i], m.Warnings[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

// CheckInvariant verifies that in-use is held exactly when both timer end and
// apartment user are set. Used by tests after every operation.
func CheckInvariant(m *model.Machine) bool {
	running := m.TimerEnd != nil && m.ApartmentUser != nil
	if m.Status == model.StatusInUse {
		return running
	}
	return !running
}
