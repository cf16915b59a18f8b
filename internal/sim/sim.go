// Package sim runs ion ensembles: it fans single-ion traces out over a
// worker pool, keeps the run reproducible regardless of scheduling, and
// reduces the outcomes to statistics and damage totals.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/gotrim/gotrim/internal/damage"
	"github.com/gotrim/gotrim/internal/queue"
	"github.com/gotrim/gotrim/internal/stats"
	"github.com/gotrim/gotrim/internal/trajectory"
	"github.com/gotrim/gotrim/internal/vec"
)

// parallelThreshold is the ensemble size below which the worker pool is not
// worth its setup cost and ions run sequentially.
const parallelThreshold = 200

// progressStride is how many ions pass between progress callbacks when
// running parallel.
const progressStride = 100

// ConfigError reports a run parameter that fails validation before any ion
// is traced.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Msg)
}

// Params configures one ensemble run.
type Params struct {
	NIon  int      // number of ions to trace
	EInit float64  // initial energy, eV
	Pos   vec.Vec3 // entry position
	Dir   vec.Vec3 // entry direction; normalized by Run

	// Seed is the base of the per-ion random streams: ion i uses
	// Seed + i, which makes runs bit-for-bit reproducible regardless of
	// worker count or completion order.
	Seed int64

	// Workers caps the pool size; zero or negative means NumCPU.
	Workers int

	// MaxTrajectories is how many leading ions record their full path.
	// Those ions run sequentially, in ion order.
	MaxTrajectories int

	// RecordDamage enables vacancy accounting with the given displacement
	// threshold (zero selects the damage default).
	RecordDamage       bool
	DisplacementEnergy float64

	// Progress, when set, receives (completed, total): per ion while
	// sequential, every progressStride ions when parallel. It may be
	// invoked from worker goroutines.
	Progress func(done, total int)
}

// Report is the outcome of a run.
type Report struct {
	Results    []trajectory.Result // ordered by ion index
	Summary    stats.Summary
	Damage     damage.Profile
	FailedIons int
	Fallbacks  int
	Duration   time.Duration
}

// Runner executes ensemble runs on one trajectory engine.
type Runner struct {
	engine *trajectory.Engine
	log    zerolog.Logger

	completed metric.Int64Counter
	failed    metric.Int64Counter
	fallbacks metric.Int64Counter
}

// NewRunner wires a runner to the engine. Metrics go to the global OTel
// meter, a no-op unless a provider is installed.
func NewRunner(engine *trajectory.Engine, log zerolog.Logger) (*Runner, error) {
	r := &Runner{engine: engine, log: log}

	m := meter()
	var err error

	r.completed, err = m.Int64Counter(
		"sim.ions.completed",
		metric.WithDescription("Total ions traced to completion"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	r.failed, err = m.Int64Counter(
		"sim.ions.failed",
		metric.WithDescription("Total ions abandoned after a panic in the trace"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	r.fallbacks, err = m.Int64Counter(
		"sim.scatter.fallbacks",
		metric.WithDescription("Total degenerate-direction fallbacks in the scattering kernel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fallbacks counter: %w", err)
	}

	return r, nil
}

// outcome carries one ion's result and its damage recorder back from a
// worker.
type outcome struct {
	res    trajectory.Result
	rec    *damage.Recorder
	failed bool
}

// Run traces params.NIon ions. Cancelling ctx stops dispatching new ions;
// in-flight ions finish and the partial report is returned together with
// the context error.
func (r *Runner) Run(ctx context.Context, params Params) (*Report, error) {
	dir, err := validate(&params)
	if err != nil {
		return nil, err
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	r.log.Info().
		Int("ions", params.NIon).
		Float64("energy", params.EInit).
		Int("workers", workers).
		Int64("seed", params.Seed).
		Msg("starting run")

	recorded := params.MaxTrajectories
	if recorded > params.NIon {
		recorded = params.NIon
	}

	collected := queue.New[outcome](params.NIon)
	var done atomic.Int64
	progress := func(perIon bool) {
		n := int(done.Add(1))
		if params.Progress == nil {
			return
		}
		if perIon || n%progressStride == 0 || n == params.NIon {
			params.Progress(n, params.NIon)
		}
	}

	// Recorded ions run sequentially in ion order: their paths are the
	// run's qualitative output and must not depend on scheduling.
	for i := 0; i < recorded; i++ {
		if err := ctx.Err(); err != nil {
			return r.report(params, collected, start), err
		}
		collected.Push(r.traceIon(params, dir, i, true))
		progress(true)
	}

	remaining := params.NIon - recorded
	if remaining > parallelThreshold && workers > 1 {
		indices := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					collected.Push(r.traceIon(params, dir, i, false))
					progress(false)
				}
			}()
		}

		var dispatchErr error
	dispatch:
		for i := recorded; i < params.NIon; i++ {
			select {
			case <-ctx.Done():
				dispatchErr = ctx.Err()
				break dispatch
			case indices <- i:
			}
		}
		close(indices)
		wg.Wait()
		if dispatchErr != nil {
			return r.report(params, collected, start), dispatchErr
		}
	} else {
		for i := recorded; i < params.NIon; i++ {
			if err := ctx.Err(); err != nil {
				return r.report(params, collected, start), err
			}
			collected.Push(r.traceIon(params, dir, i, false))
			progress(true)
		}
	}

	rep := r.report(params, collected, start)
	r.log.Info().
		Int("ions", rep.Summary.TotalIons).
		Int("stopped", rep.Summary.CountInside).
		Int("failed", rep.FailedIons).
		Float64("meanDepth", rep.Summary.MeanZ).
		Dur("elapsed", rep.Duration).
		Msg("run finished")
	return rep, nil
}

// traceIon runs one ion on its own deterministic random stream, isolating
// panics so a numerical blowup in one trace cannot take down the run.
func (r *Runner) traceIon(params Params, dir vec.Vec3, ion int, recordPath bool) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Int("ion", ion).Interface("panic", rec).Msg("trace panicked")
			r.failed.Add(context.Background(), 1)
			out = outcome{res: trajectory.Result{Ion: ion}, failed: true}
		}
	}()

	rng := rand.New(rand.NewSource(params.Seed + int64(ion)))
	var rec *damage.Recorder
	if params.RecordDamage {
		rec = damage.NewRecorder(params.DisplacementEnergy)
	}

	res := r.engine.Trace(params.Pos, dir, params.EInit, rng, recordPath, rec)
	res.Ion = ion

	r.completed.Add(context.Background(), 1)
	if res.Fallbacks > 0 {
		r.fallbacks.Add(context.Background(), int64(res.Fallbacks))
	}
	return outcome{res: res, rec: rec}
}

// report reduces whatever has been collected so far. Outcomes are reordered
// by ion index so the report is independent of completion order.
func (r *Runner) report(params Params, collected *queue.Queue[outcome], start time.Time) *Report {
	outcomes := collected.Drain()
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].res.Ion < outcomes[j].res.Ion
	})

	rep := &Report{Results: make([]trajectory.Result, 0, len(outcomes))}
	merged := damage.NewRecorder(params.DisplacementEnergy)
	for _, o := range outcomes {
		if o.failed {
			rep.FailedIons++
			continue
		}
		rep.Results = append(rep.Results, o.res)
		rep.Fallbacks += o.res.Fallbacks
		merged.Merge(o.rec)
	}
	rep.Summary = stats.Summarize(rep.Results)
	if params.RecordDamage {
		rep.Damage = merged.Profile()
	}
	rep.Duration = time.Since(start)
	return rep
}

// validate rejects parameters no trace could make sense of and returns the
// normalized entry direction.
func validate(params *Params) (vec.Vec3, error) {
	if params.NIon < 0 {
		return vec.Vec3{}, &ConfigError{Field: "nIon", Msg: "must not be negative"}
	}
	if params.EInit <= 0 {
		return vec.Vec3{}, &ConfigError{Field: "eInit", Msg: "must be positive"}
	}
	dir, ok := params.Dir.Normalized()
	if !ok {
		return vec.Vec3{}, &ConfigError{Field: "dir", Msg: "must have nonzero norm"}
	}
	if params.MaxTrajectories < 0 {
		params.MaxTrajectories = 0
	}
	return dir, nil
}
