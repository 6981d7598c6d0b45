package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/crawler"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/fcf-scraper/pkg/watch"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv("FCF_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	cfgPath := writeConfig(t, `
season: "2024-25"
season_route: "2425"
num_workers: 6
database_url: "postgres://localhost/fcf?sslmode=disable"
`)

	cfg, err := loadConfig(cfgPath)

	require.NoError(t, err)
	assert.Equal(t, "2024-25", cfg.Season)
	assert.Equal(t, 6, cfg.NumWorkers)
	assert.Equal(t, "postgres://localhost/fcf?sslmode=disable", cfg.DatabaseURL)
}

func TestLoadConfig_EnvOverridesDatabaseURL(t *testing.T) {
	cfgPath := writeConfig(t, `database_url: "postgres://file"`)
	t.Setenv("FCF_DATABASE_URL", "postgres://env")

	cfg, err := loadConfig(cfgPath)

	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := loadConfig("/nonexistent/path/config.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfgPath := writeConfig(t, "{{invalid yaml")

	_, err := loadConfig(cfgPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDoValidate(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantCode   int
		wantStdout []string
		wantStderr string
	}{
		{
			name:       "defaults with warning",
			content:    "num_workers: 2\n",
			wantCode:   0,
			wantStdout: []string{"WARN: database_url is empty", "OK: season 2025-26 (route 2526)", "Configuration valid"},
		},
		{
			name:       "watch settings",
			content:    "database_url: postgres://x\nwatch_interval: 12h\nwatch_targets: [calendars, reports]\n",
			wantCode:   0,
			wantStdout: []string{"OK: watch [calendars reports] every 12h"},
		},
		{
			name:       "bad derived rows",
			content:    "derived_rows: overwrite\n",
			wantCode:   1,
			wantStderr: "derived_rows",
		},
		{
			name:       "unknown watch target",
			content:    "watch_targets: [players]\n",
			wantCode:   1,
			wantStderr: "players",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeConfig(t, tt.content)
			var stdout, stderr bytes.Buffer

			code := doValidate(cfgPath, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr.String())
			for _, want := range tt.wantStdout {
				assert.Contains(t, stdout.String(), want)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestDoValidate_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := doValidate("/nonexistent/config.yaml", &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestOverrides_Apply(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var o overrides
	o.register(fs)
	require.NoError(t, fs.Parse([]string{
		"-season", "2024-25", "-season-route", "2425", "-whole-season", "-derived-rows", "REPLACE", "-incremental",
	}))

	cfg := &config.AppConfig{Season: "2025-26"}
	o.apply(cfg, log)

	assert.Equal(t, "2024-25", cfg.Season)
	assert.Equal(t, "2425", cfg.SeasonRoute)
	assert.True(t, cfg.WholeSeason)
	assert.True(t, cfg.Incremental)
	assert.Equal(t, config.DerivedRowsReplace, cfg.DerivedRows)

	t.Run("full wins over incremental", func(t *testing.T) {
		o := overrides{incremental: true, full: true}
		cfg := &config.AppConfig{Incremental: true}
		o.apply(cfg, log)
		assert.False(t, cfg.Incremental)
	})

	t.Run("unset flags keep config", func(t *testing.T) {
		var o overrides
		cfg := &config.AppConfig{Season: "2023-24", DerivedRows: config.DerivedRowsAppend}
		o.apply(cfg, log)
		assert.Equal(t, "2023-24", cfg.Season)
		assert.Equal(t, config.DerivedRowsAppend, cfg.DerivedRows)
	})
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		args       []string
		wantAction string
		wantN      int
		wantErr    bool
	}{
		{args: []string{"up"}, wantAction: "up"},
		{args: []string{"version"}, wantAction: "version"},
		{args: []string{"down", "2"}, wantAction: "down", wantN: 2},
		{args: []string{"force", "3"}, wantAction: "force", wantN: 3},
		{args: nil, wantErr: true},
		{args: []string{"up", "1"}, wantErr: true},
		{args: []string{"down"}, wantErr: true},
		{args: []string{"down", "0"}, wantErr: true},
		{args: []string{"force", "x"}, wantErr: true},
		{args: []string{"drop"}, wantErr: true},
	}

	for _, tt := range tests {
		action, n, err := parseMigrateArgs(tt.args)
		if tt.wantErr {
			assert.Error(t, err, "args %v", tt.args)
			continue
		}
		require.NoError(t, err, "args %v", tt.args)
		assert.Equal(t, tt.wantAction, action)
		assert.Equal(t, tt.wantN, n)
	}
}

type fakeMigrator struct {
	calls   []string
	steps   int
	version uint
	dirty   bool
	applied bool
	err     error
}

func (f *fakeMigrator) Up() error { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeMigrator) Down(steps int) error {
	f.calls = append(f.calls, "down")
	f.steps = steps
	return f.err
}
func (f *fakeMigrator) Version() (uint, bool, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, f.dirty, f.applied, f.err
}
func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.steps = version
	return f.err
}

func TestDoMigrate(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		mg := &fakeMigrator{}
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 0, doMigrate(mg, "up", 0, &stdout, &stderr))
		assert.Equal(t, []string{"up"}, mg.calls)
		assert.Contains(t, stdout.String(), "OK: migrate up")
	})

	t.Run("down passes steps", func(t *testing.T) {
		mg := &fakeMigrator{}
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 0, doMigrate(mg, "down", 2, &stdout, &stderr))
		assert.Equal(t, 2, mg.steps)
	})

	t.Run("version dirty", func(t *testing.T) {
		mg := &fakeMigrator{version: 3, dirty: true, applied: true}
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 0, doMigrate(mg, "version", 0, &stdout, &stderr))
		assert.Equal(t, "Version: 3 (dirty)\n", stdout.String())
	})

	t.Run("version none applied", func(t *testing.T) {
		mg := &fakeMigrator{}
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 0, doMigrate(mg, "version", 0, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "No migrations applied")
	})

	t.Run("error", func(t *testing.T) {
		mg := &fakeMigrator{err: errors.New("dirty database")}
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, doMigrate(mg, "force", 1, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "dirty database")
	})
}

func TestPrintUsageTo(t *testing.T) {
	var buf bytes.Buffer
	printUsageTo(&buf)

	out := buf.String()
	for _, cmd := range []string{"scrape", "migrate", "watch", "status", "validate", "targets", "version"} {
		assert.Contains(t, out, cmd)
	}
}

func TestPrintTargetsTo(t *testing.T) {
	var buf bytes.Buffer
	printTargetsTo(&buf)

	out := buf.String()
	assert.Contains(t, out, "1. competitions")
	assert.Contains(t, out, "7. venues")
	assert.Contains(t, out, "all")
}

func TestDoStatus(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, doStatus(dir, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "No watch runs recorded")

	sm := watch.NewStateManager(dir)
	sm.RecordResult(orchestrate.TargetResult{
		Target: models.TargetReports, Success: true,
		Stats: crawler.RunStats{Target: models.TargetReports, Processed: 12},
	}, "run-1")
	sm.RecordResult(orchestrate.TargetResult{
		Target: models.TargetVenues, Error: errors.New("robots disallowed"),
		Stats: crawler.RunStats{Target: models.TargetVenues, Failed: 3},
	}, "run-1")
	require.NoError(t, sm.Save())

	stdout.Reset()
	assert.Equal(t, 0, doStatus(dir, &stdout, &stderr))
	out := stdout.String()
	assert.Contains(t, out, "processed=12")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "error: robots disallowed")
	assert.Less(t, bytes.Index(stdout.Bytes(), []byte("reports")), bytes.Index(stdout.Bytes(), []byte("venues")))
}

func TestDoStatus_CorruptState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "watch_state.json"), []byte("{not json"), 0644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, doStatus(dir, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "parse state file")
}
