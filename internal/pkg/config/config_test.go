package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("posterforge-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Poster.DPI != 300 {
		t.Errorf("dpi = %d, want 300", cfg.Poster.DPI)
	}
	if cfg.Poster.DefaultTheme != "feature_based" {
		t.Errorf("default theme = %q, want feature_based", cfg.Poster.DefaultTheme)
	}
	if cfg.Jobs.Workers != 2 || cfg.Jobs.QueueSize != 32 {
		t.Errorf("jobs = %d workers / %d queue, want 2/32", cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	}
	if cfg.NATS.Enabled || cfg.Valkey.Enabled || cfg.Telemetry.Enabled {
		t.Error("optional backends should be disabled by default")
	}
	if cfg.Telemetry.ServiceName != "posterforge-test" {
		t.Errorf("service name = %q, want posterforge-test", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POSTERFORGE_SERVER_PORT", "9090")
	t.Setenv("POSTERFORGE_POSTER_DEFAULT_THEME", "noir")

	cfg, err := Load("posterforge-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from env", cfg.Server.Port)
	}
	if cfg.Poster.DefaultTheme != "noir" {
		t.Errorf("default theme = %q, want noir from env", cfg.Poster.DefaultTheme)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg, err := Load("posterforge-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg.Server.Port = 0
	cfg.Poster.DPI = 10
	cfg.Poster.MaxDistance = cfg.Poster.MinDistance

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"server.port", "poster.dpi", "poster.max_distance"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestTimeoutDurations(t *testing.T) {
	j := JobsConfig{GenerationTimeout: 300, RerenderTimeout: 60}
	if got := j.GenerationTimeoutDuration().Seconds(); got != 300 {
		t.Errorf("generation timeout = %vs, want 300", got)
	}
	if got := j.RerenderTimeoutDuration().Seconds(); got != 60 {
		t.Errorf("rerender timeout = %vs, want 60", got)
	}
}
