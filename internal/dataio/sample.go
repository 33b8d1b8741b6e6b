package dataio

import "github.com/ppiankov/bunkhouse/internal/model"

// SampleDataset returns a small demo retreat: nine rooms in three
// buildings and fifteen attendees with two mutual pairs and a few
// accessibility needs
func SampleDataset() *model.Dataset {
	room := func(building, name string, floor, bottom, top int) model.Room {
		return model.Room{Building: building, Name: name, Floor: floor, BottomBunks: bottom, TopBunks: top}
	}
	person := func(first, last, org, group, attach string, floorOne, bottom bool) model.Attendee {
		return model.Attendee{
			First:          first,
			Last:           last,
			Org:            org,
			Group:          group,
			AttachText:     attach,
			FloorOneOnly:   floorOne,
			BottomBunkOnly: bottom,
		}
	}

	return &model.Dataset{
		Rooms: []model.Room{
			room("Oak Lodge", "Room 101", 1, 2, 2),
			room("Oak Lodge", "Room 102", 1, 1, 1),
			room("Oak Lodge", "Room 201", 2, 2, 2),
			room("Oak Lodge", "Room 202", 2, 1, 1),
			room("Pine Hall", "Room A", 1, 3, 3),
			room("Pine Hall", "Room B", 1, 2, 2),
			room("Pine Hall", "Room C", 2, 2, 2),
			room("Maple House", "Suite 1", 1, 1, 0),
			room("Maple House", "Suite 2", 1, 1, 1),
		},
		Attendees: []model.Attendee{
			person("Alice", "Smith", "Alpha", "Team1", "", false, false),
			person("Bob", "Jones", "Alpha", "Team1", "", false, false),
			person("Carol", "Davis", "Alpha", "Team1", "", false, false),
			person("Dave", "Wilson", "Alpha", "Team2", "Eve Brown", false, false),
			person("Eve", "Brown", "Alpha", "Team2", "Dave Wilson", false, false),
			person("Frank", "Miller", "Beta", "Sales", "", true, true),
			person("Grace", "Taylor", "Beta", "Sales", "", false, false),
			person("Hank", "Anderson", "Beta", "Sales", "", false, false),
			person("Irene", "Thomas", "Beta", "", "", false, true),
			person("Jack", "Moore", "Gamma", "", "Karen White", true, true),
			person("Karen", "White", "Gamma", "", "Jack Moore", false, false),
			person("Leo", "Harris", "Gamma", "Dev", "", false, false),
			person("Mona", "Martin", "Gamma", "Dev", "", false, false),
			person("Nate", "Garcia", "", "", "", false, false),
			person("Olivia", "Martinez", "", "", "", true, true),
		},
	}
}
