// Package registry holds the static per-residence configuration: buildings
// with their machine seed data, content page defaults, admin allow-lists and
// room validation. A residence is selected once per request by its slug;
// handlers never switch on dorm ids directly.
package registry

import (
	"regexp"

	"dormportal-backend/internal/model"
)

// WriteMode selects how content page writes are applied for a residence.
type WriteMode string

const (
	// WriteReplace swaps the whole document.
	WriteReplace WriteMode = "replace"
	// WriteMerge overlays only the fields present in the incoming document.
	WriteMerge WriteMode = "merge"
)

// Features flags which portal sections a residence exposes.
type Features struct {
	Laundry            bool `json:"laundry"`
	Notifications      bool `json:"notifications"`
	Fitness            bool `json:"fitness"`
	TeaRoom            bool `json:"teaRoom"`
	Cafeteria          bool `json:"cafeteria"`
	Bar                bool `json:"bar"`
	PropertyManagement bool `json:"propertyManagement"`
	NetworkMentor      bool `json:"networkMentor"`
}

// Residence is one tenant namespace: a physical complex with its own
// machines, pages and admin lists.
type Residence struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`

	Features  Features  `json:"features"`
	WriteMode WriteMode `json:"-"`

	// Buildings is the ordered seed data; the live copies belong to the store.
	Buildings []model.Building `json:"-"`
	// Pages maps page id to its default document, seeded lazily on first read.
	Pages map[string]model.PageContent `json:"-"`
	// AdminAccess maps page id to the apartment numbers allowed to edit it.
	AdminAccess map[string][]string `json:"-"`

	// RoomPattern validates apartment numbers at sign-up.
	RoomPattern     *regexp.Regexp `json:"-"`
	RoomDescription string         `json:"-"`
}

// IsAdmin reports whether the apartment appears on the page's allow-list.
// Unknown pages and empty apartments fail closed.
func (r *Residence) IsAdmin(pageID, apartment string) bool {
	if apartment == "" {
		return false
	}
	for _, a := range r.AdminAccess[pageID] {
		if a == apartment {
			return true
		}
	}
	return false
}

// BuildingFor locates the owning building of a machine by linear scan over
// the static seed mapping. The second return is false when no building owns
// the machine.
func (r *Residence) BuildingFor(machineID string) (string, bool) {
	for _, b := range r.Buildings {
		if b.Machines.Find(machineID) != -1 {
			return b.ID, true
		}
	}
	return "", false
}

// ValidRoom reports whether the apartment number matches the residence's room
// scheme. Residences without a pattern accept anything non-empty.
func (r *Residence) ValidRoom(apartment string) bool {
	if apartment == "" {
		return false
	}
	if r.RoomPattern == nil {
		return true
	}
	return r.RoomPattern.MatchString(apartment)
}

// Registry is the set of known residences in declaration order.
type Registry struct {
	residences map[string]*Residence
	order      []string
}

// New builds a registry from the given residences.
func New(residences ...*Residence) *Registry {
	reg := &Registry{residences: make(map[string]*Residence, len(residences))}
	for _, r := range residences {
		reg.residences[r.ID] = r
		reg.order = append(reg.order, r.ID)
	}
	return reg
}

// Default returns the registry with all built-in residences.
func Default() *Registry {
	return New(Tabu(), Pariser())
}

// Get resolves a residence by slug.
func (g *Registry) Get(slug string) (*Residence, bool) {
	r, ok := g.residences[slug]
	return r, ok
}

// List returns all residences in declaration order.
func (g *Registry) List() []*Residence {
	out := make([]*Residence, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.residences[id])
	}
	return out
}
