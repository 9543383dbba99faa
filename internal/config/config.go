package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/opdps/internal/model"
)

// App holds all configuration for the calculator service and CLI.
type App struct {
	LogLevel string `yaml:"log_level"`

	// Engine constants
	Rules Rules `yaml:"rules"`

	// Scenario used when a request omits one
	Scenario model.Scenario `yaml:"scenario"`

	// Comparison worker limit (0 = one per operator)
	Workers int `yaml:"workers"`

	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// Rules holds the numeric constants of the damage model. They are passed
// explicitly into every engine call.
type Rules struct {
	// MinDamageFloor is the fraction of raw damage a hit always deals
	// against physical defense or arts resistance.
	MinDamageFloor float64 `yaml:"min_damage_floor"`
	// ResistanceCap clamps enemy resistance before it is applied.
	ResistanceCap float64 `yaml:"resistance_cap"`
	// MinAttackInterval bounds how fast attack speed can make an operator attack (seconds).
	MinAttackInterval float64 `yaml:"min_attack_interval"`
	// BurstWindow is the default sliding window for burst DPS (seconds).
	BurstWindow float64 `yaml:"burst_window"`
	// TimelineStep is the default sampling step of cumulative damage (seconds).
	TimelineStep float64 `yaml:"timeline_step"`
	// CurveStep and CurveMaxDefense bound defense curves.
	CurveStep       float64 `yaml:"curve_step"`
	CurveMaxDefense float64 `yaml:"curve_max_defense"`

	// Upper bounds on caller-supplied scenarios and curves. They keep a
	// single request from allocating without limit.
	MaxTimeWindow      float64 `yaml:"max_time_window"`
	MaxTargets         int     `yaml:"max_targets"`
	MaxTimelineSamples int     `yaml:"max_timeline_samples"`
	MaxCurvePoints     int     `yaml:"max_curve_points"`
	// MaxEvents caps the hit events (attacks and DoT ticks) of one simulation.
	MaxEvents int `yaml:"max_events"`
}

// DefaultRules returns the in-game constants: 5% damage floor, resistance
// capped at 100%.
func DefaultRules() Rules {
	return Rules{
		MinDamageFloor:    0.05,
		ResistanceCap:     1.0,
		MinAttackInterval: 0.05,
		BurstWindow:       5,
		TimelineStep:      5,
		CurveStep:         25,
		CurveMaxDefense:   1000,

		MaxTimeWindow:      3600,
		MaxTargets:         64,
		MaxTimelineSamples: 10000,
		MaxCurvePoints:     1000,
		MaxEvents:          2_000_000,
	}
}

// Validate rejects rule sets the engine cannot work with.
func (r Rules) Validate() error {
	if r.MinDamageFloor < 0 || r.MinDamageFloor > 1 {
		return fmt.Errorf("rules.min_damage_floor must be in [0,1], got %g", r.MinDamageFloor)
	}
	if r.ResistanceCap < 0 || r.ResistanceCap > 1 {
		return fmt.Errorf("rules.resistance_cap must be in [0,1], got %g", r.ResistanceCap)
	}
	if r.MinAttackInterval <= 0 {
		return fmt.Errorf("rules.min_attack_interval must be positive, got %g", r.MinAttackInterval)
	}
	if r.BurstWindow <= 0 || r.TimelineStep <= 0 {
		return fmt.Errorf("rules.burst_window and rules.timeline_step must be positive")
	}
	if r.CurveStep <= 0 || r.CurveMaxDefense < 0 {
		return fmt.Errorf("rules.curve_step must be positive and rules.curve_max_defense non-negative")
	}
	if !(r.MaxTimeWindow > 0) || math.IsInf(r.MaxTimeWindow, 0) {
		return fmt.Errorf("rules.max_time_window must be a positive number, got %g", r.MaxTimeWindow)
	}
	if r.MaxTargets < 1 || r.MaxTimelineSamples < 1 || r.MaxCurvePoints < 1 || r.MaxEvents < 1 {
		return fmt.Errorf("rules.max_targets, max_timeline_samples, max_curve_points and max_events must be positive")
	}
	if math.Floor(r.MaxTimeWindow/r.TimelineStep)+1 > float64(r.MaxTimelineSamples) {
		return fmt.Errorf("rules.timeline_step %g gives more than %d samples over rules.max_time_window", r.TimelineStep, r.MaxTimelineSamples)
	}
	return nil
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	// DSN overrides the fields above when set.
	DSNOverride string `yaml:"dsn"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	BindAddress  string        `yaml:"bind_address"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port for the listener.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.BindAddress, h.Port)
}

// DefaultScenario mirrors the legacy tool defaults: 300 defense, 30% resistance.
func DefaultScenario() model.Scenario {
	return model.Scenario{
		TimeWindow: 60,
		Enemy: model.EnemyProfile{
			Name:       "default",
			Defense:    300,
			Resistance: 0.30,
		},
		Targets: 1,
	}
}

// DefaultApp returns App config with sensible defaults.
func DefaultApp() App {
	return App{
		LogLevel: "info",
		Rules:    DefaultRules(),
		Scenario: DefaultScenario(),
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "opdps",
			Password: "opdps",
			DBName:   "opdps",
			SSLMode:  "disable",
		},
		HTTP: HTTPConfig{
			BindAddress:  "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// LoadApp loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadApp(path string) (App, error) {
	cfg := DefaultApp()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
