package main

import (
	"context"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/dataio"
	"github.com/udisondev/opdps/internal/model"
)

const operatorsCSV = "name,class,attack,attack_interval,damage_type\n" +
	"Guard,guard,500,1.0,physical\n" +
	"Caster,caster,600,1.6,arts\n"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opdps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nhttp:\n  port: 9000\n"), 0o644))
	t.Setenv(envConfig, path)
	t.Setenv(envDSN, "postgres://env@db/opdps")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "postgres://env@db/opdps", cfg.Database.DSN())
}

func TestLoadConfig_RejectsInvalidDefaultScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opdps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario:\n  time_window: 60\n  targets: 0\n"), 0o644))
	t.Setenv(envConfig, path)

	_, err := loadConfig()
	var scErr *model.InvalidScenarioError
	require.ErrorAs(t, err, &scErr)
	assert.Equal(t, "targets", scErr.Field)
	assert.ErrorContains(t, err, "default scenario")
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(good, []byte("time_window: 20\ntargets: 2\nenemy:\n  defense: 800\n  resistance: 0.5\n"), 0o644))
	sc, err := loadScenario(good, config.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 20.0, sc.TimeWindow)
	assert.Equal(t, 2, sc.Targets)
	assert.Equal(t, 800.0, sc.Enemy.Defense)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("time_window: 0\ntargets: 1\n"), 0o644))
	_, err = loadScenario(bad, config.DefaultRules())
	var scErr *model.InvalidScenarioError
	assert.ErrorAs(t, err, &scErr)

	huge := filepath.Join(dir, "huge.yaml")
	require.NoError(t, os.WriteFile(huge, []byte("time_window: 1000000000\ntargets: 1\n"), 0o644))
	_, err = loadScenario(huge, config.DefaultRules())
	assert.ErrorAs(t, err, &scErr)

	_, err = loadScenario(filepath.Join(dir, "absent.yaml"), config.DefaultRules())
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	ctx := context.Background()

	assert.Error(t, run(ctx, nil))
	assert.ErrorContains(t, run(ctx, []string{"fly"}), "unknown command")
	assert.ErrorContains(t, run(ctx, []string{"compare"}), "-in is required")
	assert.ErrorContains(t, run(ctx, []string{"import"}), "-in is required")
	assert.ErrorContains(t, run(ctx, []string{"export"}), "-out is required")
}

func TestRun_Compare(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfig, filepath.Join(dir, "absent.yaml"))

	in := filepath.Join(dir, "ops.csv")
	require.NoError(t, os.WriteFile(in, []byte(operatorsCSV), 0o644))
	xlsxPath := filepath.Join(dir, "report.xlsx")
	chartPath := filepath.Join(dir, "ranking.png")
	timelinePath := filepath.Join(dir, "timeline.png")

	err := run(context.Background(), []string{
		"compare", "-in", in, "-sort", "total_damage",
		"-out", xlsxPath, "-chart", chartPath, "-timeline", timelinePath,
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Ranking")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	for _, p := range []string{chartPath, timelinePath} {
		img, err := os.Open(p)
		require.NoError(t, err)
		_, err = png.Decode(img)
		img.Close()
		assert.NoError(t, err, p)
	}

	err = run(context.Background(), []string{"compare", "-in", in, "-sort", "luck"})
	assert.Error(t, err)
}

func TestRun_Template(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfig, filepath.Join(dir, "absent.yaml"))
	out := filepath.Join(dir, "template.csv")

	require.NoError(t, run(context.Background(), []string{"template", "-out", out}))

	res, format, err := dataio.ImportFile(out)
	require.NoError(t, err)
	assert.Equal(t, dataio.FormatCSV, format)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.Records, len(dataio.Template()))
}
