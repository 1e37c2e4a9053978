package dto

import (
	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// StartRunRequest configures a new generator run. Zero values fall back to server defaults.
type StartRunRequest struct {
	MaxGenerations int      `json:"maxGenerations" validate:"omitempty,min=1"`
	PopulationSize int      `json:"populationSize" validate:"omitempty,min=2"`
	EliteSize      *int     `json:"eliteSize" validate:"omitempty,min=0"`
	MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	CrossoverRate  *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	Seed           *int64   `json:"seed"`
}

// RunProgress is the latest progress notification of a run.
type RunProgress struct {
	RunID          string  `json:"runId"`
	Generation     int     `json:"generation"`
	MaxGenerations int     `json:"maxGenerations"`
	Fitness        float64 `json:"fitness"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// RunListQuery paginates run listings.
type RunListQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// SlotQuery filters slots of a run.
type SlotQuery struct {
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
}

// ExportQuery selects the export format and an optional single class grid.
type ExportQuery struct {
	Format  string `form:"format" validate:"omitempty,oneof=csv pdf"`
	ClassID string `form:"classId"`
}

// LatestRunResponse bundles the latest completed run with its slots.
type LatestRunResponse struct {
	Run   *models.GARun               `json:"run"`
	Slots []models.ScheduleSlotDetail `json:"slots"`
}

// RunValidationResponse re-checks a persisted schedule against current entity data.
type RunValidationResponse struct {
	RunID         string                       `json:"runId"`
	Valid         bool                         `json:"valid"`
	Fitness       float64                      `json:"fitness"`
	Errors        []string                     `json:"errors"`
	Conflicts     []string                     `json:"conflicts"`
	Discrepancies []genetic.SubjectDiscrepancy `json:"discrepancies"`
}

// SubjectRef names a subject.
type SubjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PreflightResponse summarises whether a run can start.
type PreflightResponse struct {
	Teachers         int          `json:"teachers"`
	Classes          int          `json:"classes"`
	Subjects         int          `json:"subjects"`
	Rooms            int          `json:"rooms"`
	CanGenerate      bool         `json:"canGenerate"`
	Missing          []string     `json:"missing"`
	UnboundSubjects  []SubjectRef `json:"unboundSubjects"`
	ExpectedSessions int          `json:"expectedSessions"`
	SlotsPerWeek     int          `json:"slotsPerWeek"`
	Defaults         RunDefaults  `json:"defaults"`
}

// RunDefaults echoes the configuration applied to omitted request fields.
type RunDefaults struct {
	MaxGenerations int     `json:"maxGenerations"`
	PopulationSize int     `json:"populationSize"`
	MutationRate   float64 `json:"mutationRate"`
	CrossoverRate  float64 `json:"crossoverRate"`
}

// ExportFile is a rendered document ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
