// Package config loads the simulation configuration: defaults first, then
// an optional JSON config file. Physical validation stays in the physics
// and geometry constructors; this package only shapes the values.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/gotrim/gotrim/internal/damage"
	"github.com/gotrim/gotrim/internal/geometry"
	"github.com/gotrim/gotrim/internal/physics"
	"github.com/gotrim/gotrim/internal/vec"
)

// ConfigFileName is the JSON file looked up in the config directory.
const ConfigFileName = "gotrim.cfg.json"

// RunConfig holds the ensemble parameters.
type RunConfig struct {
	NIon               int       `json:"nIon" mapstructure:"nIon"`
	Energy             float64   `json:"energy" mapstructure:"energy"`
	Pos                []float64 `json:"pos" mapstructure:"pos"`
	Dir                []float64 `json:"dir" mapstructure:"dir"`
	Seed               int64     `json:"seed" mapstructure:"seed"`
	Workers            int       `json:"workers" mapstructure:"workers"`
	MaxTrajectories    int       `json:"maxTrajectories" mapstructure:"maxTrajectories"`
	EMin               float64   `json:"eMin" mapstructure:"eMin"`
	ApsisIterations    int       `json:"apsisIterations" mapstructure:"apsisIterations"`
	LindhardCorrection float64   `json:"lindhardCorrection" mapstructure:"lindhardCorrection"`
	RecordDamage       bool      `json:"recordDamage" mapstructure:"recordDamage"`
	DisplacementEnergy float64   `json:"displacementEnergy" mapstructure:"displacementEnergy"`
}

// ProjectileConfig selects the incident ion species.
type ProjectileConfig struct {
	Z int     `json:"z" mapstructure:"z"`
	M float64 `json:"m" mapstructure:"m"`
}

// MaterialConfig selects the target material.
type MaterialConfig struct {
	Name    string  `json:"name" mapstructure:"name"`
	Z       int     `json:"z" mapstructure:"z"`
	M       float64 `json:"m" mapstructure:"m"`
	Density float64 `json:"density" mapstructure:"density"`
}

// GeometryConfig describes the target shape. Only the fields relevant to
// Type are read.
type GeometryConfig struct {
	Type string `json:"type" mapstructure:"type"`

	ZMin float64 `json:"zMin" mapstructure:"zMin"`
	ZMax float64 `json:"zMax" mapstructure:"zMax"`
	XMin float64 `json:"xMin" mapstructure:"xMin"`
	XMax float64 `json:"xMax" mapstructure:"xMax"`
	YMin float64 `json:"yMin" mapstructure:"yMin"`
	YMax float64 `json:"yMax" mapstructure:"yMax"`

	Radius float64   `json:"radius" mapstructure:"radius"`
	Center []float64 `json:"center" mapstructure:"center"`

	Boundaries []float64 `json:"boundaries" mapstructure:"boundaries"`
}

// StorageConfig selects the results backend.
type StorageConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // memory, sqlite, postgres

	Path string `json:"path" mapstructure:"path"` // sqlite database file

	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig configures the optional run-metrics writer.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// GraylogConfig configures the optional GELF log sink.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Config is the full loaded configuration.
type Config struct {
	LogLevel string `json:"logLevel" mapstructure:"logLevel"`
	LogsDir  string `json:"logsDir" mapstructure:"logsDir"`

	Run        RunConfig        `json:"run" mapstructure:"run"`
	Projectile ProjectileConfig `json:"projectile" mapstructure:"projectile"`
	Material   MaterialConfig   `json:"material" mapstructure:"material"`
	Geometry   GeometryConfig   `json:"geometry" mapstructure:"geometry"`
	Storage    StorageConfig    `json:"storage" mapstructure:"storage"`
	Influx     InfluxConfig     `json:"influx" mapstructure:"influx"`
	Graylog    GraylogConfig    `json:"graylog" mapstructure:"graylog"`
}

// Load reads the configuration from configDir. A missing config file is not
// an error: the defaults describe a complete run (50 keV boron into a
// 4000 A silicon slab).
func Load(configDir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "./logs")

	v.SetDefault("run.nIon", 1000)
	v.SetDefault("run.energy", 50000.0)
	v.SetDefault("run.pos", []float64{0, 0, 0})
	v.SetDefault("run.dir", []float64{0, 0, 1})
	v.SetDefault("run.seed", 1)
	v.SetDefault("run.workers", 0)
	v.SetDefault("run.maxTrajectories", 0)
	v.SetDefault("run.eMin", 5.0)
	v.SetDefault("run.apsisIterations", 1)
	v.SetDefault("run.lindhardCorrection", 1.0)
	v.SetDefault("run.recordDamage", false)
	v.SetDefault("run.displacementEnergy", 0.0)

	v.SetDefault("projectile.z", 5)
	v.SetDefault("projectile.m", 11.009)

	v.SetDefault("material.name", "Si")
	v.SetDefault("material.z", 14)
	v.SetDefault("material.m", 28.086)
	v.SetDefault("material.density", 0.04994)

	v.SetDefault("geometry.type", "planar")
	v.SetDefault("geometry.zMin", 0.0)
	v.SetDefault("geometry.zMax", 4000.0)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "./gotrim.db")
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", "5432")
	v.SetDefault("storage.username", "postgres")
	v.SetDefault("storage.password", "postgres")
	v.SetDefault("storage.database", "gotrim")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.protocol", "http")
	v.SetDefault("influx.host", "localhost")
	v.SetDefault("influx.port", "8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "gotrim")
	v.SetDefault("influx.bucket", "runs")

	v.SetDefault("graylog.enabled", false)
	v.SetDefault("graylog.address", "localhost:12201")

	v.SetConfigName(ConfigFileName)
	v.AddConfigPath(configDir)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Target builds the geometry described by the config.
func (c *Config) Target() (geometry.Target, error) {
	g := c.Geometry
	switch g.Type {
	case "planar":
		return geometry.Planar(g.ZMin, g.ZMax)
	case "box":
		return geometry.Box(g.XMin, g.XMax, g.YMin, g.YMax, g.ZMin, g.ZMax)
	case "cylinder":
		cx, cy := 0.0, 0.0
		if len(g.Center) >= 2 {
			cx, cy = g.Center[0], g.Center[1]
		}
		return geometry.Cylinder(g.Radius, g.ZMin, g.ZMax, cx, cy)
	case "sphere":
		center, err := asVec(g.Center, "geometry.center")
		if err != nil {
			return geometry.Target{}, err
		}
		return geometry.Sphere(g.Radius, center)
	case "multilayer":
		return geometry.MultiLayer(g.Boundaries, g.XMin, g.XMax, g.YMin, g.YMax)
	default:
		return geometry.Target{}, fmt.Errorf("%w: unknown geometry type %q", geometry.ErrInvalid, g.Type)
	}
}

// Constants derives the physics constants for the configured species pair.
func (c *Config) Constants() (*physics.Constants, error) {
	return physics.NewConstants(
		physics.Projectile{Z: c.Projectile.Z, M: c.Projectile.M},
		physics.Material{Z: c.Material.Z, M: c.Material.M, Density: c.Material.Density},
		c.Run.LindhardCorrection,
	)
}

// DisplacementEnergy resolves the damage threshold: an explicit value wins,
// then the material table, then the damage default.
func (c *Config) DisplacementEnergy() float64 {
	if c.Run.DisplacementEnergy > 0 {
		return c.Run.DisplacementEnergy
	}
	if ed, ok := damage.DisplacementEnergies[c.Material.Name]; ok {
		return ed
	}
	return damage.DefaultDisplacementEnergy
}

// EntryPos returns the configured entry position.
func (c *Config) EntryPos() (vec.Vec3, error) { return asVec(c.Run.Pos, "run.pos") }

// EntryDir returns the configured entry direction, unnormalized.
func (c *Config) EntryDir() (vec.Vec3, error) { return asVec(c.Run.Dir, "run.dir") }

func asVec(f []float64, key string) (vec.Vec3, error) {
	if len(f) != 3 {
		return vec.Vec3{}, fmt.Errorf("config key %s: want 3 components, got %d", key, len(f))
	}
	return vec.New(f[0], f[1], f[2]), nil
}
