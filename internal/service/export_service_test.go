package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-ga/internal/dto"
	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
	"github.com/noah-isme/sma-timetable-ga/pkg/export"
)

type runSlotReaderStub struct {
	run   *models.GARun
	slots []models.ScheduleSlotDetail
	query dto.SlotQuery
}

func (s *runSlotReaderStub) Get(context.Context, string, string) (*models.GARun, error) {
	if s.run == nil {
		return nil, appErrors.ErrNotFound
	}
	return s.run, nil
}

func (s *runSlotReaderStub) Slots(_ context.Context, _, _ string, query dto.SlotQuery) ([]models.ScheduleSlotDetail, error) {
	s.query = query
	return s.slots, nil
}

func (s *runSlotReaderStub) Calendar() genetic.Calendar {
	return genetic.Calendar{Days: []string{"Senin", "Selasa"}, PeriodsPerDay: 2}
}

type tableRendererStub struct {
	table export.Table
}

func (r *tableRendererStub) ContentType() string { return "text/plain" }
func (r *tableRendererStub) Extension() string   { return "txt" }

func (r *tableRendererStub) Render(table export.Table) ([]byte, error) {
	r.table = table
	return []byte("ok"), nil
}

func exportSlot(day string, period int, subject string) models.ScheduleSlotDetail {
	return models.ScheduleSlotDetail{
		ScheduleSlot: models.ScheduleSlot{ClassID: "x-1", Day: day, Period: period},
		ClassName:    "X-1",
		SubjectName:  subject,
		TeacherName:  "Bu Sari",
		RoomName:     "Ruang 1",
	}
}

func TestExportServiceClassGrid(t *testing.T) {
	reader := &runSlotReaderStub{
		run: completedRun("run-12345678-abcd", "user-1"),
		slots: []models.ScheduleSlotDetail{
			exportSlot("Senin", 1, "Matematika"),
			exportSlot("Selasa", 2, "Fisika"),
			exportSlot("Selasa", 2, "Kimia"),
		},
	}
	renderer := &tableRendererStub{}
	svc := NewExportService(reader, nil, renderer, nil)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), "user-1", "run-12345678-abcd", dto.ExportQuery{ClassID: "x-1"})
	require.NoError(t, err)
	assert.Equal(t, "timetable_X-1_run-1234_20240701_080000.txt", file.Filename)
	assert.Equal(t, "x-1", reader.query.ClassID)

	table := renderer.table
	assert.Equal(t, []string{"Period", "Senin", "Selasa"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Matematika\nBu Sari\nRuang 1", table.Rows[0][1])
	assert.Equal(t, "", table.Rows[0][2])
	assert.Equal(t, "Fisika\nBu Sari\nRuang 1 / Kimia\nBu Sari\nRuang 1", table.Rows[1][2])
	assert.Contains(t, table.Subtitle, "fitness 100.00")
	assert.NoError(t, table.Validate())
}

func TestExportServiceFlatListCSV(t *testing.T) {
	reader := &runSlotReaderStub{
		run:   completedRun("run-1", "user-1"),
		slots: []models.ScheduleSlotDetail{exportSlot("Senin", 1, "Matematika")},
	}
	svc := NewExportService(reader, nil, nil, nil)

	file, err := svc.Export(context.Background(), "user-1", "run-1", dto.ExportQuery{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Contains(t, string(file.Body), "Day,Period,Class,Subject,Teacher,Room")
	assert.Contains(t, string(file.Body), "Senin,1,X-1,Matematika,Bu Sari,Ruang 1")
}

func TestExportServiceRejectsUnfinishedRuns(t *testing.T) {
	run := completedRun("run-1", "user-1")
	run.Status = models.GARunStatusRunning
	svc := NewExportService(&runSlotReaderStub{run: run}, nil, nil, nil)

	_, err := svc.Export(context.Background(), "user-1", "run-1", dto.ExportQuery{})
	assert.ErrorIs(t, err, appErrors.ErrRunInProgress)

	_, err = svc.Export(context.Background(), "user-1", "run-1", dto.ExportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
