package genetic

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// State is the lifecycle phase of an engine run.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Progress is delivered once per finished generation. Best must be treated as read-only.
type Progress struct {
	Generation     int       `json:"generation"`
	MaxGenerations int       `json:"max_generations"`
	Fitness        float64   `json:"fitness"`
	Status         State     `json:"status"`
	Best           *Schedule `json:"-"`
}

// ProgressFunc receives progress synchronously on the run goroutine.
type ProgressFunc func(Progress)

// Option customises an Engine.
type Option func(*Engine)

// WithCalendar replaces the default week.
func WithCalendar(cal Calendar) Option {
	return func(e *Engine) { e.calendar = cal }
}

// WithWeights replaces the default penalty weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithRand injects the random source. It takes precedence over Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

type teacherInfo struct {
	teacher       models.Teacher
	unavailable   map[string]struct{}
	availableDays []string
}

func (t *teacherInfo) unavailableOn(day string) bool {
	_, blocked := t.unavailable[strings.ToLower(day)]
	return blocked
}

// Engine evolves timetables for one entity snapshot. An Engine is not safe for
// concurrent use except for State.
type Engine struct {
	snapshot Snapshot
	cfg      Config
	calendar Calendar
	weights  Weights
	rng      *rand.Rand
	state    atomic.Value

	teachers      map[string]*teacherInfo
	bindings      map[string]*teacherInfo
	preferredRoom map[string]string
	classNames    map[string]string
}

// New validates the inputs and resolves teacher/subject bindings once.
func New(snapshot Snapshot, cfg Config, opts ...Option) (*Engine, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		snapshot: snapshot,
		cfg:      cfg,
		calendar: DefaultCalendar(),
		weights:  DefaultWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.calendar.Validate(); err != nil {
		return nil, err
	}
	if e.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
	e.state.Store(StateInitializing)
	e.index()
	return e, nil
}

func (e *Engine) index() {
	e.teachers = make(map[string]*teacherInfo, len(e.snapshot.Teachers))
	e.bindings = make(map[string]*teacherInfo, len(e.snapshot.Subjects))
	for _, t := range e.snapshot.Teachers {
		info := &teacherInfo{teacher: t, unavailable: t.UnavailableDaySet()}
		for _, day := range e.calendar.Days {
			if !info.unavailableOn(day) {
				info.availableDays = append(info.availableDays, day)
			}
		}
		e.teachers[t.ID] = info
	}
	// The first teacher listed for a subject teaches every session of it.
	for _, subject := range e.snapshot.Subjects {
		for i := range e.snapshot.Teachers {
			if t := e.snapshot.Teachers[i]; t.TeachesSubject(subject.ID) {
				e.bindings[subject.ID] = e.teachers[t.ID]
				break
			}
		}
	}

	e.preferredRoom = make(map[string]string)
	for _, subject := range e.snapshot.Subjects {
		if subject.RequiredRoomType == nil {
			continue
		}
		wanted := strings.ToLower(strings.TrimSpace(*subject.RequiredRoomType))
		if wanted == "" {
			continue
		}
		for _, room := range e.snapshot.Rooms {
			if strings.Contains(strings.ToLower(room.Name), wanted) {
				e.preferredRoom[subject.ID] = room.ID
				break
			}
		}
	}

	e.classNames = make(map[string]string, len(e.snapshot.Classes))
	for _, c := range e.snapshot.Classes {
		e.classNames[c.ID] = c.Name
	}
}

// State reports the current lifecycle phase.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Calendar returns the week the engine schedules on.
func (e *Engine) Calendar() Calendar { return e.calendar }

// UnboundSubjects lists subjects that no teacher teaches. Their sessions are never scheduled.
func (e *Engine) UnboundSubjects() []models.Subject {
	var out []models.Subject
	for _, s := range e.snapshot.Subjects {
		if _, ok := e.bindings[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// ExpectedGenes is the gene count of a schedule where every bound session was placed.
func (e *Engine) ExpectedGenes() int {
	perClass := 0
	for _, s := range e.snapshot.Subjects {
		if _, ok := e.bindings[s.ID]; ok {
			perClass += s.SessionsPerWeek
		}
	}
	return perClass * len(e.snapshot.Classes)
}

// Evolve runs the full generation budget and returns the best schedule seen.
// There is no early exit. A panic in evaluation or breeding fails the run.
func (e *Engine) Evolve(progress ProgressFunc) (best Schedule, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.state.Store(StateFailed)
			best = Schedule{}
			err = fmt.Errorf("%w: %v", ErrRunFailed, r)
		}
	}()

	e.state.Store(StateInitializing)
	population := e.InitializePopulation()
	e.state.Store(StateRunning)

	var bestEver Schedule
	hasBest := false
	for g := 0; g < e.cfg.MaxGenerations; g++ {
		e.evaluatePopulation(population)
		sortByFitness(population)

		if !hasBest || population[0].Fitness > bestEver.Fitness {
			bestEver = population[0].Clone()
			hasBest = true
		}
		if progress != nil {
			current := bestEver
			progress(Progress{
				Generation:     g + 1,
				MaxGenerations: e.cfg.MaxGenerations,
				Fitness:        bestEver.Fitness,
				Status:         StateRunning,
				Best:           &current,
			})
		}

		if g+1 < e.cfg.MaxGenerations {
			population = e.breed(population)
		}
	}

	e.state.Store(StateCompleted)
	return bestEver, nil
}

func (e *Engine) evaluatePopulation(population []Schedule) {
	for i := range population {
		population[i].Fitness, population[i].Conflicts = e.Evaluate(population[i])
	}
}

// breed builds the next generation from a population sorted by descending fitness.
func (e *Engine) breed(sorted []Schedule) []Schedule {
	next := make([]Schedule, 0, e.cfg.PopulationSize)
	elite := e.cfg.EliteSize
	if elite > len(sorted) {
		elite = len(sorted)
	}
	for i := 0; i < elite && len(next) < e.cfg.PopulationSize; i++ {
		next = append(next, sorted[i].Clone())
	}
	for len(next) < e.cfg.PopulationSize {
		p1 := e.TournamentSelect(sorted)
		p2 := e.TournamentSelect(sorted)

		var child Schedule
		if e.rng.Float64() < e.cfg.CrossoverRate {
			child = e.Crossover(p1, p2)
		} else {
			child = p1.Clone()
			child.Fitness = 0
			child.Conflicts = nil
		}
		if e.rng.Float64() < e.cfg.MutationRate {
			child = e.Mutate(child)
		}
		next = append(next, child)
	}
	return next
}

func sortByFitness(population []Schedule) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}
