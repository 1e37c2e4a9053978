package genetic

import "github.com/noah-isme/sma-timetable-ga/internal/models"

type slotKey struct {
	Day    string
	Period int
}

// InitializePopulation builds PopulationSize independent random schedules.
func (e *Engine) InitializePopulation() []Schedule {
	population := make([]Schedule, e.cfg.PopulationSize)
	for i := range population {
		population[i] = e.RandomSchedule()
	}
	return population
}

// RandomSchedule places every bound session of every class on a random free slot of that class.
// Teachers are never placed on their unavailable days. Sessions that find no slot within
// the attempt budget are dropped.
func (e *Engine) RandomSchedule() Schedule {
	genes := make([]Gene, 0, e.ExpectedGenes())
	for _, class := range e.snapshot.Classes {
		used := make(map[slotKey]struct{}, e.calendar.SlotsPerWeek())
		for _, subject := range e.snapshot.Subjects {
			teacher, ok := e.bindings[subject.ID]
			if !ok {
				continue
			}
			for n := 0; n < subject.SessionsPerWeek; n++ {
				slot, placed := e.pickSlot(teacher, used)
				if !placed {
					continue
				}
				used[slot] = struct{}{}
				genes = append(genes, Gene{
					ClassID:   class.ID,
					TeacherID: teacher.teacher.ID,
					SubjectID: subject.ID,
					RoomID:    e.pickRoom(subject),
					Day:       slot.Day,
					Period:    slot.Period,
				})
			}
		}
	}
	return Schedule{Genes: genes}
}

func (e *Engine) pickSlot(teacher *teacherInfo, used map[slotKey]struct{}) (slotKey, bool) {
	for attempt := 0; attempt < e.cfg.PlacementAttempts; attempt++ {
		slot := slotKey{
			Day:    e.calendar.Days[e.rng.Intn(len(e.calendar.Days))],
			Period: 1 + e.rng.Intn(e.calendar.PeriodsPerDay),
		}
		if _, taken := used[slot]; taken {
			continue
		}
		if teacher.unavailableOn(slot.Day) {
			continue
		}
		return slot, true
	}
	return slotKey{}, false
}

func (e *Engine) pickRoom(subject models.Subject) string {
	if roomID, ok := e.preferredRoom[subject.ID]; ok {
		return roomID
	}
	return e.randomRoom()
}

func (e *Engine) randomRoom() string {
	return e.snapshot.Rooms[e.rng.Intn(len(e.snapshot.Rooms))].ID
}
