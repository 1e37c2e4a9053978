package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

func TestScheduleSlotRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots")).
		WithArgs(
			sqlmock.AnyArg(), "run-1", "c-1", "t-1", "math", "r-1", "Senin", 1, sqlmock.AnyArg(),
			sqlmock.AnyArg(), "run-1", "c-1", "t-2", "bio", "r-2", "Selasa", 3, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	slots := []models.ScheduleSlot{
		{GARunID: "run-1", ClassID: "c-1", TeacherID: "t-1", SubjectID: "math", RoomID: "r-1", Day: "Senin", Period: 1},
		{GARunID: "run-1", ClassID: "c-1", TeacherID: "t-2", SubjectID: "bio", RoomID: "r-2", Day: "Selasa", Period: 3},
	}
	require.NoError(t, repo.BulkInsert(context.Background(), nil, slots))
	assert.NotEmpty(t, slots[0].ID)
	assert.NotEqual(t, slots[0].ID, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSlotRepositoryBulkInsertBatches(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	slots := make([]models.ScheduleSlot, slotInsertBatch+1)
	for i := range slots {
		slots[i] = models.ScheduleSlot{GARunID: "run-1", ClassID: fmt.Sprintf("c-%d", i), TeacherID: "t", SubjectID: "s", RoomID: "r", Day: "Rabu", Period: 1}
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots")).WillReturnResult(sqlmock.NewResult(0, slotInsertBatch))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots")).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.BulkInsert(context.Background(), nil, slots))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSlotRepositoryBulkInsertEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	require.NoError(t, repo.BulkInsert(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSlotRepositoryListByRunWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	days := []string{"Senin", "Selasa"}
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "ga_run_id", "class_id", "teacher_id", "subject_id", "room_id", "day", "period", "created_at",
		"class_name", "teacher_name", "subject_name", "room_name"}).
		AddRow("slot-1", "run-1", "c-1", "t-1", "math", "r-1", "Senin", 1, now, "X-1", "Bu Sari", "Matematika", "Ruang 1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.ga_run_id = $1 AND s.class_id = $3 AND s.teacher_id = $4 ORDER BY array_position($2::text[], s.day)")).
		WithArgs("run-1", pq.Array(days), "c-1", "t-1").
		WillReturnRows(rows)

	slots, err := repo.ListByRun(context.Background(), "run-1", days, models.ScheduleSlotFilter{ClassID: "c-1", TeacherID: "t-1"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "Matematika", slots[0].SubjectName)
	assert.Equal(t, "Ruang 1", slots[0].RoomName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSlotRepositoryCountAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_slots WHERE ga_run_id = $1")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_slots WHERE ga_run_id = $1")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 12))

	total, err := repo.CountByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.NoError(t, repo.DeleteByRun(context.Background(), nil, "run-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
