package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-ga/internal/dto"
	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
	"github.com/noah-isme/sma-timetable-ga/pkg/events"
	"github.com/noah-isme/sma-timetable-ga/pkg/jobs"
)

// JobTypeGARun tags queue jobs that execute a generator run.
const JobTypeGARun = "ga_run"

const progressKeyPrefix = "gen:progress:"

// bookkeepingTimeout bounds the writes that record a run's outcome once the worker context is gone.
const bookkeepingTimeout = 10 * time.Second

const (
	msgStoppedBeforeStart = "generator stopped before the run started"
	msgInterrupted        = "generator restarted while the run was in progress"
)

type teacherLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Teacher, error)
}

type classLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.ClassGroup, error)
}

type subjectLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
}

type roomLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Room, error)
}

type gaRunStore interface {
	Create(ctx context.Context, run *models.GARun) error
	FindByID(ctx context.Context, id string) (*models.GARun, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.GARunSummary, int, error)
	LatestCompleted(ctx context.Context, userID string) (*models.GARun, error)
	Complete(ctx context.Context, exec sqlx.ExtContext, id string, outcome models.GARunCompletion) error
	Fail(ctx context.Context, id, message string, finishedAt time.Time) error
	FailRunning(ctx context.Context, message string, finishedAt time.Time) (int64, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type slotStore interface {
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, slots []models.ScheduleSlot) error
	ListByRun(ctx context.Context, runID string, days []string, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, error)
	CountByRun(ctx context.Context, runID string) (int, error)
	DeleteByRun(ctx context.Context, exec sqlx.ExtContext, runID string) error
}

type progressCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type runQueue interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// GeneratorRepositories groups the persistence collaborators of GeneratorService.
type GeneratorRepositories struct {
	Teachers teacherLister
	Classes  classLister
	Subjects subjectLister
	Rooms    roomLister
	Runs     gaRunStore
	Slots    slotStore
}

// GeneratorConfig governs run defaults, limits and progress retention.
type GeneratorConfig struct {
	Calendar              genetic.Calendar
	DefaultMaxGenerations int
	DefaultPopulationSize int
	MaxGenerationsLimit   int
	MaxPopulationLimit    int
	Seed                  int64
	ProgressTTL           time.Duration
	ProgressLogEvery      int
}

// runJob is the payload handed to the queue worker. The snapshot is captured at start so a
// run is unaffected by later entity edits.
type runJob struct {
	RunID     string
	UserID    string
	StartedAt time.Time
	Snapshot  genetic.Snapshot
	Config    genetic.Config
}

// GeneratorService orchestrates genetic timetable runs and exposes their results.
type GeneratorService struct {
	repos     GeneratorRepositories
	cache     progressCache
	tx        txProvider
	queue     runQueue
	events    events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       GeneratorConfig
	now       func() time.Time
}

// NewGeneratorService wires generator dependencies. The queue is attached separately with
// UseQueue because the queue's handler is the service itself.
func NewGeneratorService(
	repos GeneratorRepositories,
	cache progressCache,
	tx txProvider,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if len(cfg.Calendar.Days) == 0 || cfg.Calendar.PeriodsPerDay <= 0 {
		cfg.Calendar = genetic.DefaultCalendar()
	}
	if cfg.DefaultMaxGenerations <= 0 {
		cfg.DefaultMaxGenerations = 100
	}
	if cfg.DefaultPopulationSize <= 0 {
		cfg.DefaultPopulationSize = 50
	}
	if cfg.MaxGenerationsLimit <= 0 {
		cfg.MaxGenerationsLimit = 1000
	}
	if cfg.MaxPopulationLimit <= 0 {
		cfg.MaxPopulationLimit = 500
	}
	if cfg.ProgressTTL <= 0 {
		cfg.ProgressTTL = time.Hour
	}
	if cfg.ProgressLogEvery <= 0 {
		cfg.ProgressLogEvery = 10
	}
	return &GeneratorService{
		repos:     repos,
		cache:     cache,
		tx:        tx,
		events:    publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UseQueue attaches the dispatcher that executes runs.
func (s *GeneratorService) UseQueue(queue runQueue) {
	s.queue = queue
}

// Calendar exposes the week runs are scheduled on.
func (s *GeneratorService) Calendar() genetic.Calendar {
	return s.cfg.Calendar
}

// Preflight reports whether the caller has enough entity data to start a run.
func (s *GeneratorService) Preflight(ctx context.Context, userID string) (*dto.PreflightResponse, error) {
	snapshot, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PreflightResponse{
		Teachers:        len(snapshot.Teachers),
		Classes:         len(snapshot.Classes),
		Subjects:        len(snapshot.Subjects),
		Rooms:           len(snapshot.Rooms),
		Missing:         []string{},
		UnboundSubjects: []dto.SubjectRef{},
		SlotsPerWeek:    s.cfg.Calendar.SlotsPerWeek(),
		Defaults:        s.defaults(),
	}

	var precondition *genetic.PreconditionError
	if err := snapshot.Validate(); errors.As(err, &precondition) {
		resp.Missing = append(resp.Missing, precondition.Missing...)
		return resp, nil
	}

	engine, err := genetic.New(snapshot, genetic.DefaultConfig(1, 2), genetic.WithCalendar(s.cfg.Calendar))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect entity data")
	}
	resp.CanGenerate = true
	resp.ExpectedSessions = engine.ExpectedGenes()
	for _, subject := range engine.UnboundSubjects() {
		resp.UnboundSubjects = append(resp.UnboundSubjects, dto.SubjectRef{ID: subject.ID, Name: subject.Name})
	}
	return resp, nil
}

// Start validates the request, records a running ga_run and queues it for the worker.
func (s *GeneratorService) Start(ctx context.Context, userID string, req dto.StartRunRequest) (*models.GARun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	cfg, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrQueueUnavailable, "generator worker not running")
	}

	snapshot, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	var precondition *genetic.PreconditionError
	if err := snapshot.Validate(); errors.As(err, &precondition) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, precondition.Error())
	}

	seed := cfg.Seed
	run := &models.GARun{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         models.GARunStatusRunning,
		MaxGenerations: cfg.MaxGenerations,
		PopulationSize: cfg.PopulationSize,
		EliteSize:      cfg.EliteSize,
		MutationRate:   cfg.MutationRate,
		CrossoverRate:  cfg.CrossoverRate,
		Seed:           &seed,
		StartedAt:      s.now(),
	}
	if err := s.repos.Runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generator run")
	}

	s.storeProgress(ctx, dto.RunProgress{
		RunID:          run.ID,
		MaxGenerations: run.MaxGenerations,
		Status:         string(genetic.StateInitializing),
	})

	job := jobs.Job{
		ID:   run.ID,
		Type: JobTypeGARun,
		Payload: runJob{
			RunID:     run.ID,
			UserID:    userID,
			StartedAt: run.StartedAt,
			Snapshot:  snapshot,
			Config:    cfg,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		msg := "generator queue rejected the run"
		s.markFailed(ctx, run.ID, userID, msg)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrQueueUnavailable, "too many generator runs pending, try again later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrQueueUnavailable.Code, appErrors.ErrQueueUnavailable.Status, msg)
	}

	s.metrics.RunStarted()
	s.logger.Info("generator run queued",
		zap.String("run_id", run.ID),
		zap.String("user_id", userID),
		zap.Int("max_generations", cfg.MaxGenerations),
		zap.Int("population_size", cfg.PopulationSize),
		zap.Int64("seed", cfg.Seed),
	)
	return run, nil
}

// Handle executes a queued run. Failures are recorded on the run and never retried, so the
// returned error is reserved for malformed jobs.
func (s *GeneratorService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(runJob)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	logger := s.logger.With(zap.String("run_id", payload.RunID))

	if ctx.Err() != nil {
		logger.Warn("generator run abandoned at shutdown")
		s.markFailed(ctx, payload.RunID, payload.UserID, msgStoppedBeforeStart)
		return nil
	}

	best, generations, err := s.evolve(ctx, payload, logger)

	// The outcome is recorded even when shutdown cancelled the worker mid-run.
	ctx, cancel := detached(ctx)
	defer cancel()
	if err != nil {
		logger.Error("generator run failed", zap.Error(err))
		s.markFailed(ctx, payload.RunID, payload.UserID, err.Error())
		return nil
	}

	finishedAt := s.now()
	outcome := models.GARunCompletion{
		FinalFitness:    best.Fitness,
		GenerationCount: generations,
		ConflictCount:   len(best.Conflicts),
		FinishedAt:      finishedAt,
	}
	if err := s.persistResult(ctx, payload.RunID, best, outcome); err != nil {
		logger.Error("failed to persist generator result", zap.Error(err))
		s.markFailed(ctx, payload.RunID, payload.UserID, "failed to persist schedule: "+err.Error())
		return nil
	}

	s.storeProgress(ctx, dto.RunProgress{
		RunID:          payload.RunID,
		Generation:     generations,
		MaxGenerations: payload.Config.MaxGenerations,
		Fitness:        best.Fitness,
		Status:         string(genetic.StateCompleted),
	})
	s.metrics.RunCompleted(best.Fitness, finishedAt.Sub(payload.StartedAt))
	s.publish(ctx, events.RunEvent{
		Type:            events.TypeRunCompleted,
		RunID:           payload.RunID,
		UserID:          payload.UserID,
		Status:          string(models.GARunStatusCompleted),
		FinalFitness:    best.Fitness,
		GenerationCount: generations,
		ConflictCount:   len(best.Conflicts),
		SlotCount:       len(best.Genes),
		OccurredAt:      finishedAt,
	})
	logger.Info("generator run completed",
		zap.Float64("fitness", best.Fitness),
		zap.Int("generations", generations),
		zap.Int("conflicts", len(best.Conflicts)),
		zap.Int("slots", len(best.Genes)),
		zap.Duration("duration", finishedAt.Sub(payload.StartedAt)),
	)
	return nil
}

func (s *GeneratorService) evolve(ctx context.Context, payload runJob, logger *zap.Logger) (genetic.Schedule, int, error) {
	engine, err := genetic.New(payload.Snapshot, payload.Config, genetic.WithCalendar(s.cfg.Calendar))
	if err != nil {
		return genetic.Schedule{}, 0, err
	}
	if unbound := engine.UnboundSubjects(); len(unbound) > 0 {
		names := make([]string, 0, len(unbound))
		for _, subject := range unbound {
			names = append(names, subject.Name)
		}
		logger.Warn("subjects without a teacher are skipped", zap.Strings("subjects", names))
	}

	generations := 0
	best, err := engine.Evolve(func(p genetic.Progress) {
		generations = p.Generation
		s.metrics.GenerationEvaluated()
		s.storeProgress(ctx, dto.RunProgress{
			RunID:          payload.RunID,
			Generation:     p.Generation,
			MaxGenerations: p.MaxGenerations,
			Fitness:        p.Fitness,
			Status:         string(p.Status),
		})
		if p.Generation%s.cfg.ProgressLogEvery == 0 || p.Generation == p.MaxGenerations {
			logger.Debug("generation evaluated",
				zap.Int("generation", p.Generation),
				zap.Int("max_generations", p.MaxGenerations),
				zap.Float64("fitness", p.Fitness),
			)
		}
	})
	if err != nil {
		return genetic.Schedule{}, generations, err
	}
	return best, generations, nil
}

func (s *GeneratorService) persistResult(ctx context.Context, runID string, best genetic.Schedule, outcome models.GARunCompletion) (err error) {
	slots := make([]models.ScheduleSlot, 0, len(best.Genes))
	for _, gene := range best.Genes {
		slots = append(slots, models.ScheduleSlot{
			ID:        uuid.NewString(),
			GARunID:   runID,
			ClassID:   gene.ClassID,
			TeacherID: gene.TeacherID,
			SubjectID: gene.SubjectID,
			RoomID:    gene.RoomID,
			Day:       gene.Day,
			Period:    gene.Period,
			CreatedAt: outcome.FinishedAt,
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repos.Slots.BulkInsert(ctx, tx, slots); err != nil {
		return err
	}
	if err = s.repos.Runs.Complete(ctx, tx, runID, outcome); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *GeneratorService) markFailed(ctx context.Context, runID, userID, message string) {
	ctx, cancel := detached(ctx)
	defer cancel()
	finishedAt := s.now()
	if err := s.repos.Runs.Fail(ctx, runID, message, finishedAt); err != nil {
		s.logger.Warn("failed to mark generator run failed", zap.String("run_id", runID), zap.Error(err))
	}
	s.storeProgress(ctx, dto.RunProgress{
		RunID:  runID,
		Status: string(genetic.StateFailed),
		Error:  message,
	})
	s.metrics.RunFailed()
	s.publish(ctx, events.RunEvent{
		Type:       events.TypeRunFailed,
		RunID:      runID,
		UserID:     userID,
		Status:     string(models.GARunStatusFailed),
		Error:      message,
		OccurredAt: finishedAt,
	})
}

// RecoverInterrupted fails runs left running by a previous process. Call it before the queue
// starts accepting work.
func (s *GeneratorService) RecoverInterrupted(ctx context.Context) (int64, error) {
	count, err := s.repos.Runs.FailRunning(ctx, msgInterrupted, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recover interrupted runs")
	}
	if count > 0 {
		for i := int64(0); i < count; i++ {
			s.metrics.RunFailed()
		}
		s.logger.Warn("marked interrupted generator runs as failed", zap.Int64("runs", count))
	}
	return count, nil
}

// Progress returns the latest progress notification, falling back to the stored run.
func (s *GeneratorService) Progress(ctx context.Context, userID, runID string) (*dto.RunProgress, error) {
	run, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}

	var cached dto.RunProgress
	if s.cache != nil {
		err := s.cache.Get(ctx, progressKey(runID), &cached)
		switch {
		case err == nil:
			s.metrics.RecordProgressLookup(true)
			return &cached, nil
		case !errors.Is(err, appErrors.ErrCacheMiss):
			s.logger.Warn("progress cache lookup failed", zap.String("run_id", runID), zap.Error(err))
		}
	}
	s.metrics.RecordProgressLookup(false)

	progress := &dto.RunProgress{
		RunID:          run.ID,
		MaxGenerations: run.MaxGenerations,
		Status:         string(run.Status),
	}
	if run.GenerationCount != nil {
		progress.Generation = *run.GenerationCount
	}
	if run.FinalFitness != nil {
		progress.Fitness = *run.FinalFitness
	}
	if run.ErrorMessage != nil {
		progress.Error = *run.ErrorMessage
	}
	return progress, nil
}

// List returns the caller's runs, newest first.
func (s *GeneratorService) List(ctx context.Context, userID string, query dto.RunListQuery) ([]models.GARunSummary, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	runs, total, err := s.repos.Runs.ListByUser(ctx, userID, query.PageSize, (query.Page-1)*query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generator runs")
	}
	if runs == nil {
		runs = []models.GARunSummary{}
	}
	return runs, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}, nil
}

// Get returns one run owned by the caller.
func (s *GeneratorService) Get(ctx context.Context, userID, runID string) (*models.GARun, error) {
	return s.ownedRun(ctx, userID, runID)
}

// Latest returns the most recent completed run together with its slots.
func (s *GeneratorService) Latest(ctx context.Context, userID string) (*dto.LatestRunResponse, error) {
	run, err := s.repos.Runs.LatestCompleted(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no completed generator run")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest run")
	}
	slots, err := s.repos.Slots.ListByRun(ctx, run.ID, s.cfg.Calendar.Days, models.ScheduleSlotFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	if slots == nil {
		slots = []models.ScheduleSlotDetail{}
	}
	return &dto.LatestRunResponse{Run: run, Slots: slots}, nil
}

// Slots lists the persisted assignments of a run, optionally narrowed to a class or teacher.
func (s *GeneratorService) Slots(ctx context.Context, userID, runID string, query dto.SlotQuery) ([]models.ScheduleSlotDetail, error) {
	if _, err := s.ownedRun(ctx, userID, runID); err != nil {
		return nil, err
	}
	slots, err := s.repos.Slots.ListByRun(ctx, runID, s.cfg.Calendar.Days, models.ScheduleSlotFilter{
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	if slots == nil {
		slots = []models.ScheduleSlotDetail{}
	}
	return slots, nil
}

// Delete removes a finished run and its slots.
func (s *GeneratorService) Delete(ctx context.Context, userID, runID string) (err error) {
	run, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return err
	}
	if run.Status == models.GARunStatusRunning {
		return appErrors.ErrRunInProgress
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repos.Slots.DeleteByRun(ctx, tx, runID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slots")
	}
	if err = s.repos.Runs.Delete(ctx, tx, runID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete generator run")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit deletion")
	}

	if s.cache != nil {
		if cacheErr := s.cache.Delete(ctx, progressKey(runID)); cacheErr != nil {
			s.logger.Warn("failed to drop cached progress", zap.String("run_id", runID), zap.Error(cacheErr))
		}
	}
	return nil
}

// Validate re-checks a completed run's slots against the caller's current entity data.
func (s *GeneratorService) Validate(ctx context.Context, userID, runID string) (*dto.RunValidationResponse, error) {
	run, err := s.ownedRun(ctx, userID, runID)
	if err != nil {
		return nil, err
	}
	if notReady := appErrors.ForRunStatus(string(run.Status)); notReady != nil {
		return nil, notReady
	}

	snapshot, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	engine, err := genetic.New(snapshot, genetic.DefaultConfig(1, 2), genetic.WithCalendar(s.cfg.Calendar))
	if err != nil {
		var precondition *genetic.PreconditionError
		if errors.As(err, &precondition) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, precondition.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare validation")
	}

	slots, err := s.repos.Slots.ListByRun(ctx, runID, s.cfg.Calendar.Days, models.ScheduleSlotFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	schedule := genetic.Schedule{Genes: make([]genetic.Gene, 0, len(slots))}
	for _, slot := range slots {
		schedule.Genes = append(schedule.Genes, genetic.Gene{
			ClassID:   slot.ClassID,
			TeacherID: slot.TeacherID,
			SubjectID: slot.SubjectID,
			RoomID:    slot.RoomID,
			Day:       slot.Day,
			Period:    slot.Period,
		})
	}

	fitness, conflicts := engine.Evaluate(schedule)
	result := engine.Validate(schedule)
	if conflicts == nil {
		conflicts = []string{}
	}
	return &dto.RunValidationResponse{
		RunID:         runID,
		Valid:         result.Valid,
		Fitness:       fitness,
		Errors:        result.Errors,
		Conflicts:     conflicts,
		Discrepancies: result.Discrepancies,
	}, nil
}

func (s *GeneratorService) ownedRun(ctx context.Context, userID, runID string) (*models.GARun, error) {
	run, err := s.repos.Runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generator run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generator run")
	}
	if run.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generator run not found")
	}
	return run, nil
}

func (s *GeneratorService) loadSnapshot(ctx context.Context, userID string) (genetic.Snapshot, error) {
	var snapshot genetic.Snapshot
	var err error
	wrap := func(err error, entity string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
	}
	if snapshot.Teachers, err = s.repos.Teachers.ListByUser(ctx, userID); err != nil {
		return snapshot, wrap(err, "teachers")
	}
	if snapshot.Classes, err = s.repos.Classes.ListByUser(ctx, userID); err != nil {
		return snapshot, wrap(err, "classes")
	}
	if snapshot.Subjects, err = s.repos.Subjects.ListByUser(ctx, userID); err != nil {
		return snapshot, wrap(err, "subjects")
	}
	if snapshot.Rooms, err = s.repos.Rooms.ListByUser(ctx, userID); err != nil {
		return snapshot, wrap(err, "rooms")
	}
	return snapshot, nil
}

func (s *GeneratorService) buildConfig(req dto.StartRunRequest) (genetic.Config, error) {
	generations := req.MaxGenerations
	if generations == 0 {
		generations = s.cfg.DefaultMaxGenerations
	}
	population := req.PopulationSize
	if population == 0 {
		population = s.cfg.DefaultPopulationSize
	}
	if generations > s.cfg.MaxGenerationsLimit {
		return genetic.Config{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("maxGenerations must not exceed %d", s.cfg.MaxGenerationsLimit))
	}
	if population > s.cfg.MaxPopulationLimit {
		return genetic.Config{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("populationSize must not exceed %d", s.cfg.MaxPopulationLimit))
	}

	cfg := genetic.DefaultConfig(generations, population)
	if req.EliteSize != nil {
		cfg.EliteSize = *req.EliteSize
	}
	if req.MutationRate != nil {
		cfg.MutationRate = *req.MutationRate
	}
	if req.CrossoverRate != nil {
		cfg.CrossoverRate = *req.CrossoverRate
	}
	switch {
	case req.Seed != nil && *req.Seed != 0:
		cfg.Seed = *req.Seed
	case s.cfg.Seed != 0:
		cfg.Seed = s.cfg.Seed
	default:
		// Record a concrete seed so every run can be replayed.
		cfg.Seed = s.now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return genetic.Config{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return cfg, nil
}

func (s *GeneratorService) defaults() dto.RunDefaults {
	cfg := genetic.DefaultConfig(s.cfg.DefaultMaxGenerations, s.cfg.DefaultPopulationSize)
	return dto.RunDefaults{
		MaxGenerations: cfg.MaxGenerations,
		PopulationSize: cfg.PopulationSize,
		MutationRate:   cfg.MutationRate,
		CrossoverRate:  cfg.CrossoverRate,
	}
}

func (s *GeneratorService) storeProgress(ctx context.Context, progress dto.RunProgress) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, progressKey(progress.RunID), progress, s.cfg.ProgressTTL); err != nil {
		s.logger.Warn("failed to cache run progress", zap.String("run_id", progress.RunID), zap.Error(err))
	}
}

func (s *GeneratorService) publish(ctx context.Context, event events.RunEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish run event", zap.String("run_id", event.RunID), zap.String("type", event.Type), zap.Error(err))
	}
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

func progressKey(runID string) string {
	return progressKeyPrefix + runID
}
