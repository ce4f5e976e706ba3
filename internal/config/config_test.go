package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventkpi/internal/errors"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, StorageNone, cfg.Storage.Backend)
				assert.Equal(t, DefaultStateKey, cfg.Storage.Key)
				assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
				assert.True(t, cfg.Telemetry.PrometheusEnabled)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"EVENTKPI_SERVER_PORT":               "9090",
				"EVENTKPI_SERVER_READ_TIMEOUT":       "30s",
				"EVENTKPI_SECURITY_ALLOWED_ORIGINS":  "http://a.example,https://b.example",
				"EVENTKPI_LOGGING_LEVEL":             "debug",
				"EVENTKPI_LOGGING_FORMAT":            "text",
				"EVENTKPI_STORAGE_BACKEND":           "FILE",
				"EVENTKPI_STORAGE_FILE_PATH":         "state/blob.json",
				"EVENTKPI_SECURITY_RATE_LIMIT_BURST": "7",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, StorageFile, cfg.Storage.Backend)
				assert.Equal(t, "state/blob.json", cfg.Storage.FilePath)
				assert.Equal(t, 7, cfg.Security.RateLimit.Burst)
			},
		},
		{
			name: "file values apply and env wins",
			env: map[string]string{
				"EVENTKPI_SERVER_PORT": "7070",
			},
			fileContent: `
server:
  port: 6060
  idle_timeout: 90s
storage:
  backend: postgres
  database_url: postgres://localhost/eventkpi
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 90*time.Second, cfg.Server.IdleTimeout)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
				assert.Equal(t, "postgres://localhost/eventkpi", cfg.Storage.DatabaseURL)
			},
		},
		{
			name:    "invalid port number",
			env:     map[string]string{"EVENTKPI_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "unknown storage backend",
			env:     map[string]string{"EVENTKPI_STORAGE_BACKEND": "redis"},
			wantErr: true,
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"EVENTKPI_STORAGE_BACKEND": "postgres"},
			wantErr: true,
		},
		{
			name:    "sheets without credentials",
			env:     map[string]string{"EVENTKPI_STORAGE_BACKEND": "sheets", "EVENTKPI_STORAGE_SHEET_ID": "abc"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			fileContent: "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var path string
			if tt.fileContent != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.fileContent), 0644))
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_ValidationErrorType(t *testing.T) {
	t.Setenv("EVENTKPI_SERVER_PORT", "70000")

	_, err := LoadFrom("")
	require.Error(t, err)

	errType, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeConfig, errType)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestValidate_SheetsDefaultsSheetName(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = StorageSheets
	cfg.Storage.SheetID = "sheet"
	cfg.Storage.CredentialsFile = "creds.json"
	cfg.Storage.SheetName = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "State", cfg.Storage.SheetName)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Storage.FilePath = filepath.Join(base, "abs", "state.json")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(base, "abs", "state.json"), paths.StateFile)
	assert.Equal(t, filepath.Join(base, "data", "exports", "summary.csv"), paths.GetExportPath("summary.csv"))

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.ExportsDir)
	assert.DirExists(t, paths.LogsDir)
}
