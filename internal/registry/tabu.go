package registry

import (
	"regexp"

	"dormportal-backend/internal/model"
)

// Tabu is the Tannenbusch 2 residence at Hirschberger Str. 58-64: four houses
// sharing two laundry rooms, five-digit rooms prefixed by house number.
// Content writes are merges here; editors save partial documents.
func Tabu() *Residence {
	return &Residence{
		ID:          "tabu",
		Name:        "Tannenbusch 2",
		DisplayName: "Tannenbusch 2",
		Description: "Community and services app for Tannenbusch residents - Hirschberger Str. 58-64",
		Features: Features{
			Laundry:            true,
			Notifications:      true,
			Fitness:            true,
			TeaRoom:            true,
			Cafeteria:          true,
			Bar:                true,
			PropertyManagement: true,
		},
		WriteMode: WriteMerge,
		Buildings: []model.Building{
			{
				ID:       "tabu-58",
				DormID:   "tabu",
				Name:     "Hirschberger Str. 58-60",
				Position: 0,
				Machines: model.MachineList{
					newMachine("tw1", "Washer 1", model.TypeWasher),
					newMachine("tw2", "Washer 2", model.TypeWasher),
					newMachine("tw3", "Washer 3", model.TypeWasher),
					newMachine("td1", "Dryer 1", model.TypeDryer),
					newMachine("td2", "Dryer 2", model.TypeDryer),
				},
			},
			{
				ID:       "tabu-62",
				DormID:   "tabu",
				Name:     "Hirschberger Str. 62-64",
				Position: 1,
				Machines: model.MachineList{
					newMachine("tw4", "Washer 4", model.TypeWasher),
					newMachine("tw5", "Washer 5", model.TypeWasher),
					newMachine("tw6", "Washer 6", model.TypeWasher),
					newMachine("td3", "Dryer 3", model.TypeDryer),
					newMachine("td4", "Dryer 4", model.TypeDryer),
				},
			},
		},
		Pages: map[string]model.PageContent{
			"fitnessRoom": {
				ID: "fitnessRoom",
				Schedule: []model.ScheduleItem{
					{Day: "Monday - Sunday", Hours: "7:00 AM - 10:00 PM"},
				},
			},
			"teaRoom": {
				ID: "teaRoom",
				Schedule: []model.ScheduleItem{
					{Day: "Daily", Hours: "3:00 PM - 11:00 PM"},
				},
			},
			"tabuCafeteria": {
				ID: "tabuCafeteria",
				Schedule: []model.ScheduleItem{
					{Day: "Monday - Friday", Hours: "12:00 PM - 3:00 PM"},
				},
				UsualMenu: []model.MenuItem{
					{ID: "menu-1", Name: "Daily pasta", Price: "3,50 €"},
					{ID: "menu-2", Name: "Soup of the day", Price: "2,00 €"},
				},
			},
			"tabuBar": {
				ID: "tabuBar",
				Schedule: []model.ScheduleItem{
					{Day: "Friday", Hours: "8:00 PM - 2:00 AM"},
				},
				PrivatePartiesContact: "bar@tabu2.de",
			},
			"propertyManagement": {
				ID: "propertyManagement",
				Managers: []model.ManagerItem{
					{ID: "pm-1", Name: "Hausmeister", House: "Hirschberger Str. 58", Email: "hausmeister@tabu2.de", Phone: "+49 228 111111"},
				},
				HelpOfficeHours: "Monday and Thursday 9:00 - 11:00",
			},
		},
		AdminAccess: map[string][]string{
			"fitnessRoom":        {"42345"},
			"teaRoom":            {"42345"},
			"tabuCafeteria":      {"42345"},
			"tabuBar":            {"42345"},
			"propertyManagement": {"42345"},
		},
		RoomPattern:     regexp.MustCompile(`^(402|412|424|437)[0-5][0-9]$`),
		RoomDescription: "Floors 402/412/424/437, rooms 00-60 (e.g., 40211)",
	}
}
