package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gotrim/gotrim/internal/config"
	"github.com/gotrim/gotrim/internal/geo"
	"github.com/gotrim/gotrim/internal/influx"
	"github.com/gotrim/gotrim/internal/logging"
	"github.com/gotrim/gotrim/internal/monitor"
	"github.com/gotrim/gotrim/internal/sim"
	"github.com/gotrim/gotrim/internal/storage"
	"github.com/gotrim/gotrim/internal/trajectory"
)

var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.ConfigFileName)
	nIon := flag.Int("ions", 0, "override run.nIon from the config")
	energy := flag.Float64("energy", 0, "override run.energy (eV) from the config")
	flag.Parse()

	if err := run(*configDir, *nIon, *energy); err != nil {
		fmt.Fprintf(os.Stderr, "gotrim: %v\n", err)
		os.Exit(1)
	}
}

func run(configDir string, nIonOverride int, energyOverride float64) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if nIonOverride > 0 {
		cfg.Run.NIon = nIonOverride
	}
	if energyOverride > 0 {
		cfg.Run.Energy = energyOverride
	}

	log, closeLogs, err := logging.Setup(logging.Options{
		Level:          cfg.LogLevel,
		Dir:            cfg.LogsDir,
		GraylogEnabled: cfg.Graylog.Enabled,
		GraylogAddress: cfg.Graylog.Address,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLogs()

	log.Info().
		Str("version", Version).
		Str("buildDate", BuildDate).
		Msg("Starting up...")

	consts, err := cfg.Constants()
	if err != nil {
		return fmt.Errorf("deriving collision constants: %w", err)
	}
	target, err := cfg.Target()
	if err != nil {
		return fmt.Errorf("building target geometry: %w", err)
	}
	pos, err := cfg.EntryPos()
	if err != nil {
		return err
	}
	dir, err := cfg.EntryDir()
	if err != nil {
		return err
	}

	engine := trajectory.New(consts, target)
	if cfg.Run.EMin > 0 {
		engine.EMin = cfg.Run.EMin
	}
	if cfg.Run.ApsisIterations > 0 {
		engine.ApsisIterations = cfg.Run.ApsisIterations
	}

	runner, err := sim.NewRunner(engine, log)
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	backend, err := storage.NewBackend(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing storage backend")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := influx.NewManager(cfg.Influx, log)
	if err := metrics.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("InfluxDB setup failed, continuing without run metrics")
	}
	defer metrics.Close()

	progress := monitor.NewService(log, 5*time.Second)
	progress.Start()
	defer progress.Stop()

	dbRun := &storage.Run{
		StartedAt:   time.Now(),
		ProjectileZ: cfg.Projectile.Z,
		ProjectileM: cfg.Projectile.M,
		MaterialZ:   cfg.Material.Z,
		MaterialM:   cfg.Material.M,
		Density:     cfg.Material.Density,
		Energy:      cfg.Run.Energy,
		NIon:        cfg.Run.NIon,
		Seed:        cfg.Run.Seed,
	}
	if err := backend.BeginRun(dbRun); err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}

	log.Info().
		Int("nIon", cfg.Run.NIon).
		Float64("energy", cfg.Run.Energy).
		Str("material", cfg.Material.Name).
		Msg("Simulation started")

	report, err := runner.Run(ctx, sim.Params{
		NIon:               cfg.Run.NIon,
		EInit:              cfg.Run.Energy,
		Pos:                pos,
		Dir:                dir,
		Seed:               cfg.Run.Seed,
		Workers:            cfg.Run.Workers,
		MaxTrajectories:    cfg.Run.MaxTrajectories,
		RecordDamage:       cfg.Run.RecordDamage,
		DisplacementEnergy: cfg.DisplacementEnergy(),
		Progress:           progress.Progress,
	})
	if err != nil {
		if report == nil {
			return fmt.Errorf("simulation failed: %w", err)
		}
		log.Warn().Err(err).
			Int("completed", len(report.Results)).
			Msg("Simulation interrupted, persisting partial results")
	}

	for _, res := range report.Results {
		ionResult, err := storage.NewIonResult(dbRun.ID, res)
		if err != nil {
			log.Error().Err(err).Int("ion", res.Ion).Msg("Error converting ion result")
			continue
		}
		if err := backend.RecordResult(&ionResult); err != nil {
			log.Error().Err(err).Int("ion", res.Ion).Msg("Error persisting ion result")
		}
	}

	for _, res := range report.Results {
		if len(res.Path) < 2 {
			continue
		}
		wkt, err := geo.PathWKT(res.Path)
		if err != nil {
			log.Error().Err(err).Int("ion", res.Ion).Msg("Error building path geometry")
			continue
		}
		log.Debug().Int("ion", res.Ion).Str("wkt", wkt).Msg("Recorded trajectory")
	}

	if e := log.Trace(); e.Enabled() {
		cloud := geo.StoppedCloud(report.Results)
		e.Int("points", cloud.NumPoints()).Str("wkt", cloud.AsText()).Msg("Stopped ion cloud")
	}

	now := time.Now()
	dbRun.FinishedAt = &now
	dbRun.CountInside = report.Summary.CountInside
	dbRun.MeanDepth = report.Summary.MeanZ
	dbRun.Straggling = report.Summary.StdZ
	dbRun.Vacancies = report.Damage.TotalVacancies()
	if err := backend.EndRun(dbRun); err != nil {
		log.Error().Err(err).Msg("Error recording run end")
	}

	if err := metrics.WriteRunMetrics(ctx, speciesLabel(cfg.Projectile.Z), cfg.Material.Name, cfg.Run.Energy, report); err != nil {
		log.Error().Err(err).Msg("Error writing run metrics to InfluxDB")
	}

	logSummary(log, report)
	return nil
}

func logSummary(log zerolog.Logger, report *sim.Report) {
	evt := log.Info().
		Int("totalIons", report.Summary.TotalIons).
		Int("countInside", report.Summary.CountInside).
		Int("failedIons", report.FailedIons).
		Float64("meanDepth", report.Summary.MeanZ).
		Float64("straggling", report.Summary.StdZ).
		Float64("lateralSpread", report.Summary.MeanR).
		Dur("duration", report.Duration)
	if report.Damage.TotalVacancies() > 0 {
		evt = evt.Int("vacancies", report.Damage.TotalVacancies())
	}
	evt.Msg("Simulation finished")
}

// speciesLabel names a projectile by element symbol for the metric tag,
// falling back to Z for elements outside the table.
func speciesLabel(z int) string {
	symbols := map[int]string{
		1: "H", 2: "He", 3: "Li", 4: "Be", 5: "B", 6: "C", 7: "N", 8: "O",
		9: "F", 10: "Ne", 13: "Al", 14: "Si", 15: "P", 31: "Ga", 32: "Ge",
		33: "As", 49: "In", 51: "Sb",
	}
	if s, ok := symbols[z]; ok {
		return s
	}
	return fmt.Sprintf("Z%d", z)
}
