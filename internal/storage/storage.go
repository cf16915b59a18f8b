// Package storage persists simulation runs: run-level metadata plus per-ion
// outcomes, to memory, SQLite, or Postgres.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/gotrim/gotrim/internal/trajectory"
)

// Backend is the interface all storage implementations satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management. BeginRun assigns Run.ID; EndRun persists the final
	// run-level numbers.
	BeginRun(run *Run) error
	EndRun(run *Run) error

	// RecordResult stores one ion outcome under the given run.
	RecordResult(res *IonResult) error
}

// Run is the run-level record.
type Run struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`

	ProjectileZ int     `json:"projectileZ"`
	ProjectileM float64 `json:"projectileM"`
	MaterialZ   int     `json:"materialZ"`
	MaterialM   float64 `json:"materialM"`
	Density     float64 `json:"density"`

	Energy float64 `json:"energy"`
	NIon   int     `json:"nIon"`
	Seed   int64   `json:"seed"`

	CountInside int     `json:"countInside"`
	MeanDepth   float64 `json:"meanDepth"`
	Straggling  float64 `json:"straggling"`
	Vacancies   int     `json:"vacancies"`
}

// IonResult is the per-ion record.
type IonResult struct {
	ID    uint `gorm:"primarykey" json:"id"`
	RunID uint `gorm:"index" json:"runId"`
	Ion   int  `json:"ion"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Energy float64 `json:"energy"`

	StoppedInside bool `json:"stoppedInside"`
	Collisions    int  `json:"collisions"`

	// Path is the recorded flight path as a JSON array of [x,y,z]
	// triples; null when the ion did not record its path.
	Path datatypes.JSON `json:"path"`
}

// NewIonResult converts a traced ion into its storage record.
func NewIonResult(runID uint, res trajectory.Result) (IonResult, error) {
	rec := IonResult{
		RunID:         runID,
		Ion:           res.Ion,
		X:             res.Pos.X(),
		Y:             res.Pos.Y(),
		Z:             res.Pos.Z(),
		Energy:        res.Energy,
		StoppedInside: res.StoppedInside,
		Collisions:    res.Collisions,
	}
	if res.Path != nil {
		body, err := json.Marshal(res.Path)
		if err != nil {
			return IonResult{}, fmt.Errorf("marshaling path: %w", err)
		}
		rec.Path = datatypes.JSON(body)
	}
	return rec, nil
}
