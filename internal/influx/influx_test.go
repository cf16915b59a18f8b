package influx

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrim/gotrim/internal/config"
	"github.com/gotrim/gotrim/internal/sim"
	"github.com/gotrim/gotrim/internal/stats"
)

func TestManagerDisabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)

	report := &sim.Report{
		Summary:  stats.Summary{TotalIons: 10, CountInside: 9},
		Duration: time.Second,
	}
	assert.NoError(t, m.WriteRunMetrics(context.Background(), "B", "Si", 50000, report))
	m.Close()
}

func TestManagerUnreachableDegrades(t *testing.T) {
	cfg := config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1", // nothing listens here
		Org:      "gotrim",
		Bucket:   "runs",
	}
	m := NewManager(cfg, zerolog.Nop())
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	m.Close()
}
