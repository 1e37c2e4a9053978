package genetic

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

func strPtr(v string) *string { return &v }

func teacher(id, subjectID string, maxHours int, unavailable string) models.Teacher {
	t := models.Teacher{ID: id, Name: "Guru " + id, MaxHoursPerWeek: maxHours}
	if subjectID != "" {
		t.SubjectID = strPtr(subjectID)
	}
	if unavailable != "" {
		t.UnavailableDays = strPtr(unavailable)
	}
	return t
}

func subject(id string, sessions int) models.Subject {
	return models.Subject{ID: id, Name: "Mapel " + id, SessionsPerWeek: sessions}
}

func class(id string) models.ClassGroup {
	return models.ClassGroup{ID: id, Name: "Kelas " + id}
}

func room(id, name string) models.Room {
	return models.Room{ID: id, Name: name, Capacity: 32}
}

func schoolSnapshot() Snapshot {
	return Snapshot{
		Teachers: []models.Teacher{
			teacher("t-math", "math", 24, ""),
			teacher("t-bio", "bio", 24, "Senin"),
			teacher("t-eng", "eng", 24, ""),
		},
		Classes:  []models.ClassGroup{class("x-1"), class("x-2"), class("x-3")},
		Subjects: []models.Subject{subject("math", 4), subject("bio", 3), subject("eng", 2)},
		Rooms:    []models.Room{room("r-1", "Ruang 1"), room("r-2", "Ruang 2"), room("r-3", "Ruang 3")},
	}
}

func newTestEngine(t *testing.T, snapshot Snapshot, cfg Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	engine, err := New(snapshot, cfg, opts...)
	require.NoError(t, err)
	return engine
}

func noBalanceWeights() Weights {
	w := DefaultWeights()
	w.DayBalance = 0
	return w
}
