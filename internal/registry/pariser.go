package registry

import (
	"regexp"

	"dormportal-backend/internal/model"
)

func newMachine(id, name string, typ model.MachineType) model.Machine {
	return model.Machine{
		ID:       id,
		Name:     name,
		Type:     typ,
		Status:   model.StatusAvailable,
		Reports:  []model.Report{},
		Warnings: []model.Warning{},
	}
}

// Pariser is the Pariser Straße 54 residence: a single building, seven
// floors, rooms in the 100-740 range.
func Pariser() *Residence {
	return &Residence{
		ID:          "pariser",
		Name:        "Pariser Straße",
		DisplayName: "Dorm 2",
		Description: "Student residence at Pariser Straße 54 - 7 floors, rooms 100-140",
		Features: Features{
			Laundry:            true,
			Notifications:      true,
			Bar:                true,
			PropertyManagement: true,
			NetworkMentor:      true,
		},
		WriteMode: WriteReplace,
		Buildings: []model.Building{
			{
				ID:       "pariser-main",
				DormID:   "pariser",
				Name:     "Pariser Straße 54",
				Position: 0,
				Machines: model.MachineList{
					newMachine("pw1", "Washer 1", model.TypeWasher),
					newMachine("pw2", "Washer 2", model.TypeWasher),
					newMachine("pw3", "Washer 3", model.TypeWasher),
					newMachine("pw4", "Washer 4", model.TypeWasher),
					newMachine("pw5", "Washer 5", model.TypeWasher),
					newMachine("pd1", "Dryer 1", model.TypeDryer),
					newMachine("pd2", "Dryer 2", model.TypeDryer),
					newMachine("pd3", "Dryer 3", model.TypeDryer),
					newMachine("pd4", "Dryer 4", model.TypeDryer),
					newMachine("pd5", "Dryer 5", model.TypeDryer),
				},
			},
		},
		Pages: map[string]model.PageContent{
			"fitnessRoom": {
				ID: "fitnessRoom",
				Schedule: []model.ScheduleItem{
					{Day: "Monday - Friday", Hours: "6:00 AM - 11:00 PM"},
					{Day: "Saturday - Sunday", Hours: "8:00 AM - 10:00 PM"},
				},
				PrivatePartiesContact: "fitness@pariser.de",
			},
			"teaRoom": {
				ID: "teaRoom",
				Schedule: []model.ScheduleItem{
					{Day: "Daily", Hours: "4:00 PM - 10:00 PM"},
				},
			},
			"cafeteria": {
				ID: "cafeteria",
				Schedule: []model.ScheduleItem{
					{Day: "Monday - Friday", Hours: "11:30 AM - 2:30 PM"},
				},
			},
			"bar": {
				ID: "bar",
				Schedule: []model.ScheduleItem{
					{Day: "Thursday", Hours: "8:00 PM - 1:00 AM"},
					{Day: "Saturday", Hours: "9:00 PM - 2:00 AM"},
				},
				PrivatePartiesContact: "bar@pariser.de",
			},
			"propertyManagement": {
				ID: "propertyManagement",
				Managers: []model.ManagerItem{
					{ID: "pm-1", Name: "Hausverwaltung", House: "Pariser Straße 54", Email: "verwaltung@pariser.de", Phone: "+49 228 000000"},
				},
				HelpOfficeHours: "Tuesday 10:00 - 12:00",
			},
			"networkMentor": {
				ID:               "networkMentor",
				HelpDescription:  "Network mentors help with room internet setup and connection problems.",
				HelpResponseTime: "Usually within 2 days",
			},
		},
		AdminAccess: map[string][]string{
			"fitnessRoom":        {"203", "515"},
			"teaRoom":            {"203", "515"},
			"cafeteria":          {"203", "515"},
			"bar":                {"203", "515", "234"},
			"propertyManagement": {"234", "515"},
			"networkMentor":      {"234", "515"},
		},
		RoomPattern:     regexp.MustCompile(`^[1-7](0[0-9]|[1-3][0-9]|40)$`),
		RoomDescription: "Floors 1-7, rooms 00-40 (e.g., 203, 515)",
	}
}
