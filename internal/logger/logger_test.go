package logger_test

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	logpkg "github.com/fusaf/fusaf-service/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *logpkg.LoggerConfig
		expectError bool
		wantLevel   zerolog.Level
	}{
		{
			name: "production json",
			config: &logpkg.LoggerConfig{
				ServiceName: "fusaf-test", ServiceVersion: "1.0.0", Env: "prod", Level: "info",
				TimeField: "timestamp", Fields: map[string]any{"key": "value"},
			},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:        "wrong env",
			config:      &logpkg.LoggerConfig{Env: "qa", Level: "debug"},
			expectError: true,
		},
		{
			name:        "wrong level",
			config:      &logpkg.LoggerConfig{Env: "prod", Level: "loud"},
			expectError: true,
		},
		{
			name:        "wrong output target",
			config:      &logpkg.LoggerConfig{Env: "prod", OutputTarget: "syslog"},
			expectError: true,
		},
		{
			name:      "staging warn to stderr",
			config:    &logpkg.LoggerConfig{Env: "staging", Level: "warn", OutputTarget: "stderr", Stacktrace: true},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "dev console without debug file",
			config:    &logpkg.LoggerConfig{Env: "dev", Level: "info", TimeFormat: "unix"},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:      "dev forced json",
			config:    &logpkg.LoggerConfig{Env: "dev", Level: "error", Format: "json", WithCaller: true},
			wantLevel: zerolog.ErrorLevel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := logpkg.New(tc.config)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantLevel, zerolog.GlobalLevel())
		})
	}

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &logpkg.LoggerConfig{}
		_, err := logpkg.New(cfg)
		assert.NoError(t, err)
		assert.Equal(t, "prod", cfg.Env)
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, "fusaf-service", cfg.ServiceName)
		assert.Equal(t, "ts", cfg.TimeField)
	})

	t.Run("debug log file creation", func(t *testing.T) {
		cfg := &logpkg.LoggerConfig{ServiceName: "integration-test", Env: "dev", Level: "debug"}

		_, err := logpkg.New(cfg)
		assert.NoError(t, err)

		_, statErr := os.Stat("logs/debug.log")
		assert.NoError(t, statErr)

		t.Cleanup(func() {
			if err := os.RemoveAll("logs"); err != nil {
				t.Logf("cleanup failed: %v", err)
			}
		})
	})

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
