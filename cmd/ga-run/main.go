package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/pkg/config"
	"github.com/noah-isme/sma-timetable-ga/pkg/logger"
)

type options struct {
	snapshotPath string
	outPath      string
	sqlitePath   string
	generations  int
	population   int
	eliteSize    int
	mutation     float64
	crossover    float64
	seed         int64
	days         string
	periods      int
	logEvery     int
}

type runReport struct {
	Generations     int                      `json:"generations"`
	Seed            int64                    `json:"seed"`
	DurationMillis  int64                    `json:"duration_ms"`
	ExpectedGenes   int                      `json:"expected_genes"`
	UnboundSubjects []string                 `json:"unbound_subjects"`
	Best            genetic.Schedule         `json:"best"`
	Validation      genetic.ValidationResult `json:"validation"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), os.Args[1:], cfg.Scheduler, os.Stdout, logr); err != nil {
		logr.Fatal("ga-run failed", zap.Error(err))
	}
}

func parseFlags(args []string, defaults config.SchedulerConfig) (options, error) {
	base := genetic.DefaultConfig(defaults.DefaultMaxGenerations, defaults.DefaultPopulationSize)
	opts := options{}
	fs := flag.NewFlagSet("ga-run", flag.ContinueOnError)
	fs.StringVar(&opts.snapshotPath, "snapshot", "", "Path to JSON snapshot with teachers, classes, subjects and rooms")
	fs.StringVar(&opts.outPath, "out", "", "Write the JSON report here instead of stdout")
	fs.StringVar(&opts.sqlitePath, "sqlite", "", "Also store the best schedule in this SQLite database")
	fs.IntVar(&opts.generations, "generations", base.MaxGenerations, "Generations to evolve")
	fs.IntVar(&opts.population, "population", base.PopulationSize, "Population size")
	fs.IntVar(&opts.eliteSize, "elite", -1, "Elite size (default 10% of population, at least 2)")
	fs.Float64Var(&opts.mutation, "mutation", base.MutationRate, "Per-child mutation probability")
	fs.Float64Var(&opts.crossover, "crossover", base.CrossoverRate, "Crossover probability")
	fs.Int64Var(&opts.seed, "seed", defaults.Seed, "Random seed, 0 picks one from the clock")
	fs.StringVar(&opts.days, "days", strings.Join(defaults.Days, ","), "Comma separated school days")
	fs.IntVar(&opts.periods, "periods", defaults.PeriodsPerDay, "Periods per day")
	fs.IntVar(&opts.logEvery, "log-every", defaults.ProgressLogEvery, "Log progress every N generations")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.snapshotPath == "" {
		return opts, errors.New("-snapshot is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, defaults config.SchedulerConfig, stdout io.Writer, logr *zap.Logger) error {
	opts, err := parseFlags(args, defaults)
	if err != nil {
		return err
	}

	snapshot, err := loadSnapshot(opts.snapshotPath)
	if err != nil {
		return err
	}

	cfg := genetic.DefaultConfig(opts.generations, opts.population)
	if opts.eliteSize >= 0 {
		cfg.EliteSize = opts.eliteSize
	}
	cfg.MutationRate = opts.mutation
	cfg.CrossoverRate = opts.crossover
	cfg.Seed = opts.seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	calendar := genetic.DefaultCalendar()
	if days := splitDays(opts.days); len(days) > 0 {
		calendar.Days = days
	}
	if opts.periods > 0 {
		calendar.PeriodsPerDay = opts.periods
	}

	engine, err := genetic.New(snapshot, cfg, genetic.WithCalendar(calendar))
	if err != nil {
		return err
	}
	unbound := []string{}
	for _, subject := range engine.UnboundSubjects() {
		unbound = append(unbound, subject.Name)
	}
	if len(unbound) > 0 {
		logr.Warn("subjects without a teacher are skipped", zap.Strings("subjects", unbound))
	}

	logEvery := opts.logEvery
	if logEvery <= 0 {
		logEvery = 10
	}
	started := time.Now()
	generations := 0
	best, err := engine.Evolve(func(p genetic.Progress) {
		generations = p.Generation
		if p.Generation%logEvery == 0 || p.Generation == p.MaxGenerations {
			logr.Info("generation evaluated",
				zap.Int("generation", p.Generation),
				zap.Int("max_generations", p.MaxGenerations),
				zap.Float64("fitness", p.Fitness),
			)
		}
	})
	if err != nil {
		return err
	}

	report := runReport{
		Generations:     generations,
		Seed:            cfg.Seed,
		DurationMillis:  time.Since(started).Milliseconds(),
		ExpectedGenes:   engine.ExpectedGenes(),
		UnboundSubjects: unbound,
		Best:            best,
		Validation:      engine.Validate(best),
	}
	logr.Info("run finished",
		zap.Float64("fitness", best.Fitness),
		zap.Int("genes", len(best.Genes)),
		zap.Int("conflicts", len(best.Conflicts)),
		zap.Bool("valid", report.Validation.Valid),
	)

	if opts.sqlitePath != "" {
		runID, err := saveToSQLite(ctx, opts.sqlitePath, cfg, report)
		if err != nil {
			return err
		}
		logr.Info("stored run in sqlite", zap.String("path", opts.sqlitePath), zap.String("run_id", runID))
	}

	out := stdout
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.outPath, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func loadSnapshot(path string) (genetic.Snapshot, error) {
	var snapshot genetic.Snapshot
	raw, err := os.ReadFile(path)
	if err != nil {
		return snapshot, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return snapshot, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

func splitDays(raw string) []string {
	var days []string
	for _, part := range strings.Split(raw, ",") {
		if day := strings.TrimSpace(part); day != "" {
			days = append(days, day)
		}
	}
	return days
}
