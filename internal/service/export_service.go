package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-ga/internal/dto"
	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
	"github.com/noah-isme/sma-timetable-ga/pkg/export"
)

type runSlotReader interface {
	Get(ctx context.Context, userID, runID string) (*models.GARun, error)
	Slots(ctx context.Context, userID, runID string, query dto.SlotQuery) ([]models.ScheduleSlotDetail, error)
	Calendar() genetic.Calendar
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// ExportService renders persisted timetables as downloadable documents.
type ExportService struct {
	runs      runSlotReader
	renderers map[string]tableRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the csv and pdf exporters.
func NewExportService(runs runSlotReader, logger *zap.Logger, csv, pdf tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		runs:      runs,
		renderers: map[string]tableRenderer{"csv": csv, "pdf": pdf},
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export renders a completed run. With a class it produces that class's weekly grid,
// otherwise a flat list of every slot.
func (s *ExportService) Export(ctx context.Context, userID, runID string, query dto.ExportQuery) (*dto.ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format))
	}

	run, err := s.runs.Get(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if notReady := appErrors.ForRunStatus(string(run.Status)); notReady != nil {
		return nil, notReady
	}

	slots, err := s.runs.Slots(ctx, userID, runID, dto.SlotQuery{ClassID: query.ClassID})
	if err != nil {
		return nil, err
	}

	var table export.Table
	var scope string
	if query.ClassID != "" {
		if len(slots) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class has no slots in this run")
		}
		table = buildClassGrid(slots, s.runs.Calendar())
		scope = slots[0].ClassName
	} else {
		table = buildSlotList(slots)
		scope = "all"
	}
	table.Title = "Jadwal Pelajaran"
	if query.ClassID != "" {
		table.Title += " " + scope
	}
	table.Subtitle = runSubtitle(run)

	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("timetable exported",
		zap.String("run_id", runID),
		zap.String("format", format),
		zap.String("scope", scope),
		zap.Int("slots", len(slots)),
	)
	return &dto.ExportFile{
		Filename:    buildExportFilename(runID, scope, s.now(), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func buildClassGrid(slots []models.ScheduleSlotDetail, cal genetic.Calendar) export.Table {
	headers := append([]string{"Period"}, cal.Days...)
	cells := make([][]string, cal.PeriodsPerDay)
	for p := range cells {
		cells[p] = make([]string, len(cal.Days))
	}
	for _, slot := range slots {
		day := cal.DayIndex(slot.Day)
		if day < 0 || slot.Period < 1 || slot.Period > cal.PeriodsPerDay {
			continue
		}
		entry := strings.Join([]string{slot.SubjectName, slot.TeacherName, slot.RoomName}, "\n")
		cell := &cells[slot.Period-1][day]
		if *cell != "" {
			*cell += " / "
		}
		*cell += entry
	}

	rows := make([][]string, 0, cal.PeriodsPerDay)
	for p, periodCells := range cells {
		rows = append(rows, append([]string{strconv.Itoa(p + 1)}, periodCells...))
	}
	return export.Table{Headers: headers, Rows: rows}
}

func buildSlotList(slots []models.ScheduleSlotDetail) export.Table {
	rows := make([][]string, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, []string{
			slot.Day,
			strconv.Itoa(slot.Period),
			slot.ClassName,
			slot.SubjectName,
			slot.TeacherName,
			slot.RoomName,
		})
	}
	return export.Table{
		Headers: []string{"Day", "Period", "Class", "Subject", "Teacher", "Room"},
		Rows:    rows,
	}
}

func runSubtitle(run *models.GARun) string {
	subtitle := "Run " + run.ID
	if run.FinalFitness != nil {
		subtitle += fmt.Sprintf(" | fitness %.2f", *run.FinalFitness)
	}
	if run.FinishedAt != nil {
		subtitle += " | " + run.FinishedAt.Format("2006-01-02 15:04")
	}
	return subtitle
}

func buildExportFilename(runID, scope string, at time.Time, ext string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("timetable_%s_%s_%s.%s", sanitizeFilename(scope), short, at.Format("20060102_150405"), ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
