package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"Trace", zerolog.TraceLevel, true},
		{"fatal", zerolog.FatalLevel, true},
		{"off", zerolog.Disabled, true},
		{"disabled", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvLogNoColor, "garbage")

	cfg := DefaultConfig(ProfileRuntime, &bytes.Buffer{})
	cfg.JSON = false
	ApplyEnvOverrides(&cfg)

	if cfg.Level != zerolog.ErrorLevel || !cfg.JSON || cfg.NoColor {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		level     zerolog.Level
		timestamp bool
	}{
		{"runtime", ProfileRuntime, zerolog.InfoLevel, true},
		{"test", ProfileTest, zerolog.DebugLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(tt.profile, &bytes.Buffer{})
			if cfg.Level != tt.level || cfg.Timestamp != tt.timestamp {
				t.Errorf("DefaultConfig = %+v", cfg)
			}
			if !cfg.JSON {
				t.Errorf("non-terminal writer should select JSON output")
			}
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, JSON: true}, "gt06", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("conn_id", "node-01-1").Msg("session opened")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["app"] != "gt06" || entry["conn_id"] != "node-01-1" || entry["message"] != "session opened" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; ok {
		t.Errorf("timestamp written although disabled")
	}
}
