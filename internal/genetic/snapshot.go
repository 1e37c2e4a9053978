package genetic

import "github.com/noah-isme/sma-timetable-ga/internal/models"

// Snapshot is the read-only entity data a run works on.
type Snapshot struct {
	Teachers []models.Teacher    `json:"teachers"`
	Classes  []models.ClassGroup `json:"classes"`
	Subjects []models.Subject    `json:"subjects"`
	Rooms    []models.Room       `json:"rooms"`
}

// Validate returns a *PreconditionError when any collection is empty.
func (s Snapshot) Validate() error {
	var missing []string
	if len(s.Teachers) == 0 {
		missing = append(missing, "teachers")
	}
	if len(s.Classes) == 0 {
		missing = append(missing, "classes")
	}
	if len(s.Subjects) == 0 {
		missing = append(missing, "subjects")
	}
	if len(s.Rooms) == 0 {
		missing = append(missing, "rooms")
	}
	if len(missing) > 0 {
		return &PreconditionError{Missing: missing}
	}
	return nil
}
