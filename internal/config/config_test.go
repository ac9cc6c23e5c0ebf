package config

import (
	"strings"
	"testing"
	"time"
)

// envMap returns a lookup function backed by a map.
func envMap(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Reference.Path != "data/basedatos.xlsx" {
		t.Errorf("Reference.Path = %q, want %q", cfg.Reference.Path, "data/basedatos.xlsx")
	}
	if cfg.Upload.PreviewRows != 20 {
		t.Errorf("Upload.PreviewRows = %d, want %d", cfg.Upload.PreviewRows, 20)
	}
	if cfg.Upload.MaxFileSize != 52428800 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 52428800)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 2*time.Hour)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v, want enabled at /metrics", cfg.Metrics)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_DECODE_WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.DecodeWorkers != 8 {
		t.Errorf("Upload.DecodeWorkers = %d, want %d", cfg.Upload.DecodeWorkers, 8)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"BASEDATOS_PATH": "/srv/assets/basedatos.xlsx",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Reference.Path != "/srv/assets/basedatos.xlsx" {
		t.Errorf("Reference.Path = %q, want %q", cfg.Reference.Path, "/srv/assets/basedatos.xlsx")
	}
}

func TestLoad_PrimaryWinsOverAlt(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"REFERENCE_PATH": "primary.xlsx",
		"BASEDATOS_PATH": "alt.xlsx",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Reference.Path != "primary.xlsx" {
		t.Errorf("Reference.Path = %q, want %q", cfg.Reference.Path, "primary.xlsx")
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"SERVER_READ_TIMEOUT":  "45s",
		"UPLOAD_MAX_WAIT_TIME": "1m30s",
		"SESSION_TTL":          "30m",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 30*time.Minute)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad integer", map[string]string{"SERVER_PORT": "eighty"}},
		{"bad duration", map[string]string{"SESSION_TTL": "forever"}},
		{"bad bool", map[string]string{"RATE_LIMIT_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(envMap(tt.vars)); err == nil {
				t.Error("LoadFrom() expected error")
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	cfg.Server.Port = 70000
	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for port out of range")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error %q should mention SERVER_PORT", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	cfg.Reference.Path = " "
	cfg.Upload.DecodeWorkers = 0
	cfg.Session.MaxSessions = -1
	cfg.Logging.Level = "verbose"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"REFERENCE_PATH", "UPLOAD_DECODE_WORKERS", "SESSION_MAX", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_MetricsPath(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{"METRICS_PATH": "metrics"}))
	if err == nil {
		t.Fatal("LoadFrom() expected error for relative metrics path")
	}

	cfg, err := LoadFrom(envMap(map[string]string{"METRICS_PATH": "metrics", "METRICS_ENABLED": "false"}))
	if err != nil {
		t.Fatalf("disabled metrics should not validate path: %v", err)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
}

func TestLoad_SecurityLists(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"TRUSTED_PROXIES":          "10.0.0.0/8, 127.0.0.1,",
		"SECURITY_REQUIRE_API_KEY": "true",
		"SECURITY_API_KEYS":        "k1,k2",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(cfg.Security.TrustedProxies) != 2 || cfg.Security.TrustedProxies[1] != "127.0.0.1" {
		t.Errorf("TrustedProxies = %v, want [10.0.0.0/8 127.0.0.1]", cfg.Security.TrustedProxies)
	}
	if len(cfg.Security.APIKeys) != 2 {
		t.Errorf("APIKeys = %v, want 2 keys", cfg.Security.APIKeys)
	}
}

func TestValidate_APIKeyRequiresKeys(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{"SECURITY_REQUIRE_API_KEY": "true"}))
	if err == nil || !strings.Contains(err.Error(), "SECURITY_API_KEYS") {
		t.Errorf("LoadFrom() error = %v, want SECURITY_API_KEYS message", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 3000, ":3000"},
		{"127.0.0.1", 443, "127.0.0.1:443"},
	}

	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg, err := LoadFrom(envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	s := cfg.String()
	if !strings.Contains(s, "basedatos.xlsx") {
		t.Errorf("String() = %q, want reference path", s)
	}
	if !strings.HasPrefix(s, "Config{") {
		t.Errorf("String() = %q, want Config{ prefix", s)
	}
}
