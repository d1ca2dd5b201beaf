package config

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = testSecret
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "too-short" },
			wantErr: "jwt_secret",
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Services.Image.BaseURL = "image:8002" },
			wantErr: "base_url",
		},
		{
			name:    "zero probe timeout",
			mutate:  func(c *Config) { c.Services.Music.ProbeTimeout = 0 },
			wantErr: "probe_timeout",
		},
		{
			name:    "probe slower than indexing",
			mutate:  func(c *Config) { c.Services.Analysis.ProbeTimeout = time.Minute },
			wantErr: "probe",
		},
		{
			name:    "indexing slower than analysis",
			mutate:  func(c *Config) { c.Services.Chat.Timeouts[OpSendMessage] = 4 * time.Minute },
			wantErr: "indexing",
		},
		{
			name:    "analysis slower than generation",
			mutate:  func(c *Config) { c.Services.Analysis.Timeouts[OpAnalyze] = 6 * time.Minute },
			wantErr: "analysis",
		},
		{
			name:    "rate limit without budget",
			mutate:  func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests_per_minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestServiceConfig_Timeout(t *testing.T) {
	svc := DefaultConfig().Services.Analysis

	if got := svc.Timeout(OpGenerate); got != 10*time.Minute {
		t.Errorf("generate = %s", got)
	}
	if got := svc.Timeout(OpProbe); got != 5*time.Second {
		t.Errorf("probe = %s", got)
	}
	if got := svc.Timeout("unknown"); got != svc.ProbeTimeout {
		t.Errorf("unknown op = %s, want probe timeout", got)
	}
}

func TestServiceConfig_CloneIsIndependent(t *testing.T) {
	orig := DefaultConfig().Services.Chat
	clone := orig.Clone()
	clone.Timeouts[OpSendMessage] = time.Hour

	if orig.Timeouts[OpSendMessage] == time.Hour {
		t.Error("mutating the clone changed the original")
	}
}
