package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// ScheduleItem is one row of an opening-hours table.
type ScheduleItem struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// EventItem is a community event. Date is "2006-01-02" (other human formats
// are tolerated), Time is "15:04" and defaults to end of day when empty.
// Pictures are small inlined images (data URLs).
type EventItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Time        string   `json:"time,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Pictures    []string `json:"pictures,omitempty"`
}

// MenuItem is one dish or drink with a display price.
type MenuItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ManagerItem is a property-management or mentor contact.
type ManagerItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	House string `json:"house"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CompletedTask is a resolved maintenance issue kept for reference.
type CompletedTask struct {
	ID         string `json:"id"`
	Issue      string `json:"issue"`
	Resolution string `json:"resolution"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

// PageContent is the free-form editable document backing a content page.
// Every field is optional; each page uses the subset that fits it.
type PageContent struct {
	ID                     string          `json:"id"`
	Schedule               []ScheduleItem  `json:"schedule,omitempty"`
	UpcomingEvents         []EventItem     `json:"upcomingEvents,omitempty"`
	PassedEvents           []EventItem     `json:"passedEvents,omitempty"`
	SpecialMenu            []MenuItem      `json:"specialMenu,omitempty"`
	UsualMenu              []MenuItem      `json:"usualMenu,omitempty"`
	PrivatePartiesContact  string          `json:"privatePartiesContact,omitempty"`
	ChangeOfResponsibility string          `json:"changeOfResponsibility,omitempty"`
	Managers               []ManagerItem   `json:"managers,omitempty"`
	HelpDescription        string          `json:"helpDescription,omitempty"`
	HelpResponseTime       string          `json:"helpResponseTime,omitempty"`
	HelpOfficeHours        string          `json:"helpOfficeHours,omitempty"`
	CompletedTasks         []CompletedTask `json:"completedTasks,omitempty"`
}

// Value implements driver.Valuer.
func (p PageContent) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PageContent) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = PageContent{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported content column type %T", src)
	}
}

// PageDocument is the stored form of a content page, one row per
// (residence, page) pair.
type PageDocument struct {
	DormID    string      `gorm:"primaryKey;size:32" json:"dormId"`
	PageID    string      `gorm:"primaryKey;size:64" json:"pageId"`
	Content   PageContent `gorm:"type:jsonb" json:"content"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// eventDateLayouts are the human date formats admins have been observed to
// type besides ISO dates.
var eventDateLayouts = []string{
	"2006-01-02 15:04",
	"January 2, 2006 15:04",
	"Jan 2, 2006 15:04",
	"02.01.2006 15:04",
}

// EventTime resolves an event's date+time pair against the given location.
// The second return is false when the date cannot be parsed; such events are
// treated as upcoming forever rather than silently dropped.
func (e EventItem) EventTime(loc *time.Location) (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	clock := e.Time
	if clock == "" {
		clock = "23:59"
	}
	if isoDateRe.MatchString(e.Date) {
		if t, err := time.ParseInLocation("2006-01-02 15:04", e.Date+" "+clock, loc); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, e.Date+" "+clock, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SplitEvents moves every upcoming event whose moment has passed to the front
// of PassedEvents, preserving ids and deduplicating against events already
// archived. It returns the number of events moved; repeated calls are
// idempotent and events never move back.
func SplitEvents(content *PageContent, now time.Time) int {
	if len(content.UpcomingEvents) == 0 {
		return 0
	}

	archived := make(map[string]bool, len(content.PassedEvents))
	for _, e := range content.PassedEvents {
		archived[e.ID] = true
	}

	var moved []EventItem
	var stillUpcoming []EventItem
	for _, e := range content.UpcomingEvents {
		at, ok := e.EventTime(now.Location())
		if ok && !at.After(now) {
			if !archived[e.ID] {
				moved = append(moved, e)
			}
			continue
		}
		stillUpcoming = append(stillUpcoming, e)
	}

	if len(moved) == 0 && len(stillUpcoming) == len(content.UpcomingEvents) {
		return 0
	}
	content.UpcomingEvents = stillUpcoming
	content.PassedEvents = append(moved, content.PassedEvents...)
	return len(moved)
}

// Merge overlays the set fields of incoming onto p, leaving absent fields
// untouched. Used by residences configured for merge writes; replace-mode
// residences swap the whole document instead.
func (p *PageContent) Merge(incoming PageContent) {
	if incoming.ID != "" {
		p.ID = incoming.ID
	}
	if incoming.Schedule != nil {
		p.Schedule = incoming.Schedule
	}
	if incoming.UpcomingEvents != nil {
		p.UpcomingEvents = incoming.UpcomingEvents
	}
	if incoming.PassedEvents != nil {
		p.PassedEvents = incoming.PassedEvents
	}
	if incoming.SpecialMenu != nil {
		p.SpecialMenu = incoming.SpecialMenu
	}
	if incoming.UsualMenu != nil {
		p.UsualMenu = incoming.UsualMenu
	}
	if incoming.PrivatePartiesContact != "" {
		p.PrivatePartiesContact = incoming.PrivatePartiesContact
	}
	if incoming.ChangeOfResponsibility != "" {
		p.ChangeOfResponsibility = incoming.ChangeOfResponsibility
	}
	if incoming.Managers != nil {
		p.Managers = incoming.Managers
	}
	if incoming.HelpDescription != "" {
		p.HelpDescription = incoming.HelpDescription
	}
	if incoming.HelpResponseTime != "" {
		p.HelpResponseTime = incoming.HelpResponseTime
	}
	if incoming.HelpOfficeHours != "" {
		p.HelpOfficeHours = incoming.HelpOfficeHours
	}
	if incoming.CompletedTasks != nil {
		p.CompletedTasks = incoming.CompletedTasks
	}
}
