package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/exam-scheduler/pkg/core/calendar"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/optimizer"
)

const configFileName = "exam_config.yaml"

// Environment variables that override config keys. A .env file in the
// working directory is read first; variables already set win over it.
const (
	EnvDatabaseURL = "EXAM_DATABASE_URL"
	EnvServerAddr  = "EXAM_SERVER_ADDR"
)

// ExamSlot is a daily exam sitting, repeated on every exam day
type ExamSlot struct {
	StartTime string `yaml:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `yaml:"end_time" validate:"required,datetime=15:04"`
}

// Optimization holds the slot search parameters
type Optimization struct {
	PopulationSize      int     `yaml:"population_size" validate:"min=2"`
	Generations         int     `yaml:"generations" validate:"min=0"`
	CrossoverRate       float64 `yaml:"crossover_rate" validate:"min=0,max=1"`
	MutationRate        float64 `yaml:"mutation_rate" validate:"min=0,max=1"`
	PerGeneMutationRate float64 `yaml:"per_gene_mutation_rate" validate:"min=0,max=1"`
	TournamentSize      int     `yaml:"tournament_size" validate:"min=1"`
	RandomSeed          int64   `yaml:"random_seed"`

	// TimeBudget is a Go duration string, e.g. "30s". Empty means no limit.
	TimeBudget string `yaml:"time_budget,omitempty"`

	Workers             int    `yaml:"workers" validate:"min=1"`
	ConflictSource      string `yaml:"conflict_source" validate:"oneof=enrollments graph"`
	LargeClassThreshold int    `yaml:"large_class_threshold" validate:"min=1"`
}

// Config represents the scheduler configuration. Every key is optional.
type Config struct {
	ExamDays     []string     `yaml:"exam_days" validate:"dive,datetime=2006-01-02"`
	ExamDaysRule string       `yaml:"exam_days_rule,omitempty"`
	Holidays     []string     `yaml:"holidays,omitempty" validate:"dive,datetime=2006-01-02"`
	ExamSlots    []ExamSlot   `yaml:"exam_slots" validate:"required,min=1,dive"`
	Optimization Optimization `yaml:"optimization"`

	MaxRoomsPerTeacher  int `yaml:"max_rooms_per_teacher" validate:"min=1"`
	BufferDays          int `yaml:"buffer_days" validate:"min=0"`
	DefaultInvigilators int `yaml:"default_invigilators" validate:"min=0"`

	// DatabaseURL enables persistence of runs when set
	DatabaseURL string `yaml:"database_url,omitempty"`

	Server Server `yaml:"server"`
}

// Server configures the HTTP API
type Server struct {
	Addr        string `yaml:"addr" validate:"required"`
	MaxUploadMB int64  `yaml:"max_upload_mb" validate:"min=1"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no file sets a value
func Default() *Config {
	return &Config{
		ExamDays: []string{"2024-05-01", "2024-05-02"},
		ExamSlots: []ExamSlot{
			{StartTime: "09:00", EndTime: "12:00"},
		},
		Optimization: Optimization{
			PopulationSize:      50,
			Generations:         100,
			CrossoverRate:       0.8,
			MutationRate:        0.1,
			PerGeneMutationRate: 0.1,
			TournamentSize:      3,
			RandomSeed:          42,
			Workers:             4,
			ConflictSource:      string(optimizer.ConflictSourceEnrollments),
			LargeClassThreshold: optimizer.DefaultLargeClassThreshold,
		},
		MaxRoomsPerTeacher:  3,
		BufferDays:          2,
		DefaultInvigilators: 10,
		Server: Server{
			Addr:        ":8080",
			MaxUploadMB: 32,
		},
	}
}

// Load looks for exam_config.<env>.yaml, then exam_config.yaml, in the current
// directory and then the user's home directory. Defaults are returned when no
// file exists.
func Load(env string) (*Config, error) {
	configPath, found := FindConfigFile(env)
	if !found {
		cfg := Default()
		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the file at path over the defaults and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

// Validate validates the configuration struct, the exam day rule and the
// time budget
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, slot := range cfg.ExamSlots {
		// HH:MM compares correctly as a string
		if slot.EndTime <= slot.StartTime {
			return fmt.Errorf("config validation failed: exam_slots[%d] ends at %s before it starts at %s", i, slot.EndTime, slot.StartTime)
		}
	}

	if cfg.ExamDaysRule != "" {
		if _, err := calendar.RuleOccurrences(cfg.ExamDaysRule); err != nil {
			return fmt.Errorf("invalid rrule in exam_days_rule: %w", err)
		}
	} else if len(cfg.ExamDays) == 0 {
		return fmt.Errorf("config validation failed: exam_days or exam_days_rule must be set")
	}

	if _, err := cfg.TimeBudget(); err != nil {
		return err
	}

	return nil
}

// TimeBudget parses optimization.time_budget. Zero means no limit.
func (c *Config) TimeBudget() (time.Duration, error) {
	if c.Optimization.TimeBudget == "" {
		return 0, nil
	}
	budget, err := time.ParseDuration(c.Optimization.TimeBudget)
	if err != nil {
		return 0, fmt.Errorf("invalid optimization.time_budget: %w", err)
	}
	if budget < 0 {
		return 0, fmt.Errorf("invalid optimization.time_budget: must not be negative")
	}
	return budget, nil
}

// SlotTemplates converts the configured exam slots
func (c *Config) SlotTemplates() []model.SlotTemplate {
	templates := make([]model.SlotTemplate, len(c.ExamSlots))
	for i, slot := range c.ExamSlots {
		templates[i] = model.SlotTemplate{StartTime: slot.StartTime, EndTime: slot.EndTime}
	}
	return templates
}

// OptimizerParams converts the optimization section into search params
func (c *Config) OptimizerParams() (optimizer.Params, error) {
	budget, err := c.TimeBudget()
	if err != nil {
		return optimizer.Params{}, err
	}

	o := c.Optimization
	return optimizer.Params{
		PopulationSize:      o.PopulationSize,
		Generations:         o.Generations,
		CrossoverRate:       o.CrossoverRate,
		MutationRate:        o.MutationRate,
		PerGeneMutationRate: o.PerGeneMutationRate,
		TournamentSize:      o.TournamentSize,
		Seed:                o.RandomSeed,
		TimeBudget:          budget,
		Workers:             o.Workers,
	}, nil
}

// FindConfigFile searches the current directory and then the home directory,
// preferring an env-specific file in each
func FindConfigFile(env string) (string, bool) {
	names := []string{configFileName}
	if env != "" {
		names = []string{fmt.Sprintf("exam_config.%s.yaml", env), configFileName}
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}

	return "", false
}
