package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcosta74/opstack/middleware"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if want, got := "localhost", cfg.Endpoint.Host; want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
	if want, got := 8080, cfg.Endpoint.Port; want != got {
		t.Errorf("want: %d, got: %d", want, got)
	}
	if want, got := 10*time.Second, cfg.Timeout; want != got {
		t.Errorf("want: %v, got: %v", want, got)
	}
	if want, got := TransportHTTP, cfg.Transport; want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
	if want, got := 3, cfg.MaxAttempts; want != got {
		t.Errorf("want: %d, got: %d", want, got)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opstack.yaml")
	data := []byte(`
endpoint:
  host: widgets.example.com
  port: 9443
  scheme: https
log_mode: request_and_response
transport: nats
nats:
  subject_prefix: svc.widgets
compression:
  enabled: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPSTACK_ENDPOINT__HOST", "override.example.com")
	t.Setenv("OPSTACK_TIMEOUT", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if want, got := "override.example.com", cfg.Endpoint.Host; want != got {
		t.Errorf("env must win over the file: want: %q, got: %q", want, got)
	}
	if want, got := 9443, cfg.Endpoint.Port; want != got {
		t.Errorf("want: %d, got: %d", want, got)
	}
	if want, got := 2*time.Second, cfg.Timeout; want != got {
		t.Errorf("want: %v, got: %v", want, got)
	}
	if want, got := "svc.widgets", cfg.NATS.SubjectPrefix; want != got {
		t.Errorf("want: %q, got: %q", want, got)
	}
	if !cfg.Compression.Enabled {
		t.Error("compression should be enabled")
	}
	if want, got := 10240, cfg.Compression.Threshold; want != got {
		t.Errorf("want: %d, got: %d", want, got)
	}

	mode, err := cfg.ClientLogMode()
	if err != nil {
		t.Fatal(err)
	}
	if want, got := middleware.LogRequestAndResponse, mode; want != got {
		t.Errorf("want: %v, got: %v", want, got)
	}
}

func TestLoadInvalid(t *testing.T) {
	for name, env := range map[string][2]string{
		"transport":    {"OPSTACK_TRANSPORT", "carrier-pigeon"},
		"log mode":     {"OPSTACK_LOG_MODE", "everything"},
		"max attempts": {"OPSTACK_MAX_ATTEMPTS", "0"},
		"websocket":    {"OPSTACK_TRANSPORT", "websocket"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])

			if _, err := Load(""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
