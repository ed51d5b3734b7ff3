package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_DefaultConfig(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidate_InvalidExamDay(t *testing.T) {
	cfg := Default()
	cfg.ExamDays = []string{"2024-05-01", "01/05/2024"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NoExamDays(t *testing.T) {
	cfg := Default()
	cfg.ExamDays = nil

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exam_days or exam_days_rule")
}

func TestValidate_RuleReplacesExamDays(t *testing.T) {
	cfg := Default()
	cfg.ExamDays = nil
	cfg.ExamDaysRule = "FREQ=DAILY;DTSTART=20240501T000000Z;COUNT=5"

	assert.NoError(t, Validate(cfg))
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := Default()
	cfg.ExamDaysRule = "INVALID_RRULE_SYNTAX"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_UnboundedRRule(t *testing.T) {
	cfg := Default()
	cfg.ExamDaysRule = "FREQ=DAILY;DTSTART=20240501T000000Z"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "COUNT or UNTIL")
}

func TestValidate_SlotEndsBeforeStart(t *testing.T) {
	cfg := Default()
	cfg.ExamSlots = []ExamSlot{{StartTime: "14:00", EndTime: "12:00"}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exam_slots[0]")
}

func TestValidate_BadSlotTime(t *testing.T) {
	cfg := Default()
	cfg.ExamSlots = []ExamSlot{{StartTime: "9am", EndTime: "12:00"}}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_NoSlots(t *testing.T) {
	cfg := Default()
	cfg.ExamSlots = []ExamSlot{}

	assert.Error(t, Validate(cfg))
}

func TestValidate_OptimizationBounds(t *testing.T) {
	cfg := Default()
	cfg.Optimization.CrossoverRate = 1.2
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Optimization.PopulationSize = 1
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Optimization.ConflictSource = "students"
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Optimization.TimeBudget = "soon"
	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "time_budget")
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "exam_config.yaml", `
exam_days:
  - "2024-06-03"
  - "2024-06-04"
  - "2024-06-05"
exam_slots:
  - start_time: "09:00"
    end_time: "12:00"
  - start_time: "14:00"
    end_time: "17:00"
optimization:
  generations: 20
  random_seed: 7
  time_budget: "30s"
max_rooms_per_teacher: 2
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-06-03", "2024-06-04", "2024-06-05"}, cfg.ExamDays)
	assert.Len(t, cfg.ExamSlots, 2)
	assert.Equal(t, 20, cfg.Optimization.Generations)
	assert.Equal(t, int64(7), cfg.Optimization.RandomSeed)
	assert.Equal(t, 2, cfg.MaxRoomsPerTeacher)

	// Untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Optimization.PopulationSize)
	assert.Equal(t, 0.8, cfg.Optimization.CrossoverRate)
	assert.Equal(t, 3, cfg.Optimization.TournamentSize)
	assert.Equal(t, "enrollments", cfg.Optimization.ConflictSource)
	assert.Equal(t, 2, cfg.BufferDays)
	assert.Equal(t, 10, cfg.DefaultInvigilators)

	params, err := cfg.OptimizerParams()
	require.NoError(t, err)
	assert.Equal(t, 20, params.Generations)
	assert.Equal(t, int64(7), params.Seed)
	assert.Equal(t, 30*time.Second, params.TimeBudget)
	assert.NoError(t, params.Validate())

	assert.Equal(t, []model.SlotTemplate{
		{StartTime: "09:00", EndTime: "12:00"},
		{StartTime: "14:00", EndTime: "17:00"},
	}, cfg.SlotTemplates())
}

func TestLoadFromPath_EmptyFileIsDefault(t *testing.T) {
	path := writeConfig(t, "exam_config.yaml", "")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_InvalidValue(t *testing.T) {
	path := writeConfig(t, "exam_config.yaml", `
buffer_days: -1
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "exam_config.yaml", `
exam_days_rule: "FREQ=DAILY"
  invalid indentation
buffer_days: 2
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/exam_config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestFindConfigFile_PrefersEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	_, found := FindConfigFile("test")
	assert.False(t, found)

	require.NoError(t, os.WriteFile("exam_config.yaml", []byte(""), 0644))
	path, found := FindConfigFile("test")
	require.True(t, found)
	assert.Equal(t, "exam_config.yaml", path)

	require.NoError(t, os.WriteFile("exam_config.test.yaml", []byte("buffer_days: 5\n"), 0644))
	path, found = FindConfigFile("test")
	require.True(t, found)
	assert.Equal(t, "exam_config.test.yaml", path)

	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BufferDays)
}

func TestLoad_NoFileGivesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("prod")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "exam_config.yaml", `
database_url: postgres://file/db
server:
  addr: ":9000"
`)
	t.Setenv(EnvDatabaseURL, "postgres://env/db")
	t.Setenv(EnvServerAddr, "127.0.0.1:7000")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, int64(32), cfg.Server.MaxUploadMB)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { os.Unsetenv(EnvDatabaseURL) })

	require.NoError(t, os.WriteFile(".env", []byte(EnvDatabaseURL+"=postgres://dotenv/db\n"), 0644))

	cfg, err := Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/db", cfg.DatabaseURL)
}

func TestValidate_ServerSection(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Server.MaxUploadMB = 0
	assert.Error(t, Validate(cfg))
}
