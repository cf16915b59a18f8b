// Package influx pushes per-run summary metrics to InfluxDB. The writer is
// optional: when the server is unreachable or disabled in the config the
// manager degrades to a no-op and the simulation proceeds without it.
package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/gotrim/gotrim/internal/config"
	"github.com/gotrim/gotrim/internal/sim"
)

// Manager handles the InfluxDB connection and run metric writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPIBlocking
	IsValid bool
	Logger  zerolog.Logger

	cfg config.InfluxConfig
}

// NewManager creates a manager from the influx section of the run config.
// Connect must be called before any writes.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		Logger:  log,
		cfg:     cfg,
	}
}

// Connect establishes a connection to InfluxDB and validates it with a ping.
// A failed ping leaves the manager in a disabled state rather than returning
// an error so a missing metrics server never blocks a run.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.Logger.Debug().Msg("InfluxDB disabled in config")
		return nil
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port),
		m.cfg.Token,
		influxdb2.DefaultOptions(),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.Logger.Warn().Err(err).
			Str("host", m.cfg.Host).
			Msg("InfluxDB unreachable, run metrics will not be recorded")
		m.Client.Close()
		m.Client = nil
		return nil
	}

	m.Writer = m.Client.WriteAPIBlocking(m.cfg.Org, m.cfg.Bucket)
	m.IsValid = true
	m.Logger.Info().
		Str("org", m.cfg.Org).
		Str("bucket", m.cfg.Bucket).
		Msg("InfluxDB client initialized")
	return nil
}

// WriteRunMetrics records the outcome of a finished run as a single point in
// the configured bucket. It is a no-op when the manager is disabled.
func (m *Manager) WriteRunMetrics(ctx context.Context, projectile, material string, eInit float64, report *sim.Report) error {
	if !m.IsValid {
		return nil
	}

	ionsPerSec := 0.0
	if report.Duration > 0 {
		ionsPerSec = float64(report.Summary.TotalIons) / report.Duration.Seconds()
	}

	point := influxdb2_write.NewPointWithMeasurement("ion_run").
		AddTag("projectile", projectile).
		AddTag("material", material).
		AddField("energy_ev", eInit).
		AddField("total_ions", report.Summary.TotalIons).
		AddField("count_inside", report.Summary.CountInside).
		AddField("failed_ions", report.FailedIons).
		AddField("mean_depth", report.Summary.MeanZ).
		AddField("straggling", report.Summary.StdZ).
		AddField("vacancies", report.Damage.TotalVacancies()).
		AddField("ions_per_sec", ionsPerSec).
		SetTime(time.Now())

	if err := m.Writer.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("error writing run metrics to InfluxDB: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (m *Manager) Close() {
	if m.Client != nil {
		m.Client.Close()
	}
}
