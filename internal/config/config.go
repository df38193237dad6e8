// Package config loads kindred settings from defaults, an optional YAML
// file, .env files and KINDRED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix namespaces environment overrides: KINDRED_TRIBE_MIN_SIZE sets
// tribe.min_size.
const EnvPrefix = "KINDRED"

// Population controls the initial seeding.
type Population struct {
	Initial     int     `mapstructure:"initial" yaml:"initial"`
	LeaderShare float64 `mapstructure:"leader_share" yaml:"leader_share"`
}

// Family holds marriage rules.
type Family struct {
	ParentsAge int `mapstructure:"parents_age" yaml:"parents_age"`
}

// Tribe holds tribe formation rules.
type Tribe struct {
	MinSize         int     `mapstructure:"min_size" yaml:"min_size"`
	LeaderMinAge    int     `mapstructure:"leader_min_age" yaml:"leader_min_age"`
	LeaderCharisma  float64 `mapstructure:"leader_charisma" yaml:"leader_charisma"`
	ExcludeFamilies bool    `mapstructure:"exclude_families" yaml:"exclude_families"`
}

// Sim controls the yearly loop.
type Sim struct {
	Years       int           `mapstructure:"years" yaml:"years"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	BirthChance float64       `mapstructure:"birth_chance" yaml:"birth_chance"`
}

// DB locates the chronicle database.
type DB struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// API configures the HTTP server.
type API struct {
	Port      int    `mapstructure:"port" yaml:"port"`
	AdminKey  string `mapstructure:"admin_key" yaml:"admin_key"`   // Bearer token for POST endpoints; empty disables them
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute per client; 0 disables limiting
}

// Log configures the default slog handler.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the full set of settings.
type Config struct {
	Seed       int64      `mapstructure:"seed" yaml:"seed"`
	Population Population `mapstructure:"population" yaml:"population"`
	Family     Family     `mapstructure:"family" yaml:"family"`
	Tribe      Tribe      `mapstructure:"tribe" yaml:"tribe"`
	Sim        Sim        `mapstructure:"sim" yaml:"sim"`
	DB         DB         `mapstructure:"db" yaml:"db"`
	API        API        `mapstructure:"api" yaml:"api"`
	Log        Log        `mapstructure:"log" yaml:"log"`
}

// Default returns the standard settings.
func Default() Config {
	return Config{
		Seed:       42,
		Population: Population{Initial: 50, LeaderShare: 0.3},
		Family:     Family{ParentsAge: 16},
		Tribe: Tribe{
			MinSize:        5,
			LeaderMinAge:   25,
			LeaderCharisma: 0.6,
		},
		Sim: Sim{Years: 50, Interval: time.Second, BirthChance: 0.3},
		DB:  DB{Path: "data/kindred.db"},
		API: API{Port: 8080, RateLimit: 600},
		Log: Log{Level: "info", Format: "text"},
	}
}

// SetDefaults registers Default() on v so every key is known to
// environment lookup and Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("seed", d.Seed)
	v.SetDefault("population.initial", d.Population.Initial)
	v.SetDefault("population.leader_share", d.Population.LeaderShare)
	v.SetDefault("family.parents_age", d.Family.ParentsAge)
	v.SetDefault("tribe.min_size", d.Tribe.MinSize)
	v.SetDefault("tribe.leader_min_age", d.Tribe.LeaderMinAge)
	v.SetDefault("tribe.leader_charisma", d.Tribe.LeaderCharisma)
	v.SetDefault("tribe.exclude_families", d.Tribe.ExcludeFamilies)
	v.SetDefault("sim.years", d.Sim.Years)
	v.SetDefault("sim.interval", d.Sim.Interval)
	v.SetDefault("sim.birth_chance", d.Sim.BirthChance)
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("api.port", d.API.Port)
	v.SetDefault("api.admin_key", d.API.AdminKey)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env files into the process environment. A missing file
// is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		slog.Debug(".env file not found")
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads file (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Population.Initial >= 0, "population.initial %d is negative", c.Population.Initial)
	check(c.Population.LeaderShare >= 0 && c.Population.LeaderShare <= 1,
		"population.leader_share %.2f outside [0,1]", c.Population.LeaderShare)
	check(c.Family.ParentsAge > 0, "family.parents_age must be positive, got %d", c.Family.ParentsAge)
	check(c.Tribe.MinSize > 0, "tribe.min_size must be positive, got %d", c.Tribe.MinSize)
	check(c.Tribe.LeaderMinAge > 0, "tribe.leader_min_age must be positive, got %d", c.Tribe.LeaderMinAge)
	check(c.Tribe.LeaderCharisma >= 0 && c.Tribe.LeaderCharisma <= 1,
		"tribe.leader_charisma %.2f outside [0,1]", c.Tribe.LeaderCharisma)
	check(c.Sim.Years >= 0, "sim.years %d is negative", c.Sim.Years)
	check(c.Sim.Interval > 0, "sim.interval must be positive, got %s", c.Sim.Interval)
	check(c.Sim.BirthChance >= 0 && c.Sim.BirthChance <= 1,
		"sim.birth_chance %.2f outside [0,1]", c.Sim.BirthChance)
	check(c.API.Port > 0 && c.API.Port < 65536, "api.port %d out of range", c.API.Port)
	check(c.API.RateLimit >= 0, "api.rate_limit %d is negative", c.API.RateLimit)

	return errors.Join(errs...)
}

// SlogLevel parses the configured log level; unknown values fall back to info.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the stdout slog logger described by l.
func (l Log) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
