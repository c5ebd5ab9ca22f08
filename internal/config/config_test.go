package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/hwsnap/internal/classify"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hwsnap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFromFlagsDefaults(t *testing.T) {
	cfg, err := FromFlags(nil)
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	if cfg.Interval != time.Second || cfg.Indent != 4 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.Categories.GPU || !cfg.Categories.Battery {
		t.Fatal("optional categories should default on")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
interval: 250ms
async_gpu: true
categories:
  storage: false
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interval != 250*time.Millisecond || !cfg.AsyncGPU {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Categories.Storage || !cfg.Categories.CPU {
		t.Fatalf("categories = %+v", cfg.Categories)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Encoding != "console" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Indent != 4 {
		t.Fatalf("indent = %d", cfg.Indent)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("empty file changed defaults: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "intervall: 1s\n"))
	if err == nil || !strings.Contains(err.Error(), "intervall") {
		t.Fatalf("err = %v, want unknown field error", err)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "interval: 5s\nlisten: \":1\"\n")
	cfg, err := FromFlags([]string{"--config", path, "--interval", "2s"})
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	if cfg.Interval != 2*time.Second {
		t.Fatalf("interval = %v, want flag value", cfg.Interval)
	}
	if cfg.Listen != ":1" {
		t.Fatalf("listen = %q, want file value", cfg.Listen)
	}
	if cfg.File != path {
		t.Fatalf("file = %q", cfg.File)
	}
}

func TestEnvOverridesFlags(t *testing.T) {
	t.Setenv("HWSNAP_INTERVAL", "3")
	t.Setenv("HWSNAP_GPU", "0")
	t.Setenv("HWSNAP_BATTERY", "0")
	cfg, err := FromFlags([]string{"--interval", "10s", "--gpu"})
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	if cfg.Interval != 3*time.Second {
		t.Fatalf("interval = %v", cfg.Interval)
	}
	if cfg.Categories.GPU || cfg.Categories.Battery {
		t.Fatalf("categories = %+v", cfg.Categories)
	}
}

func TestIntervalIsNotValidated(t *testing.T) {
	cfg, err := FromFlags([]string{"--interval", "-1s"})
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	if cfg.Interval != -time.Second {
		t.Fatalf("interval = %v", cfg.Interval)
	}
}

func TestBadFlag(t *testing.T) {
	if _, err := FromFlags([]string{"--no-such-flag"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCategoriesEnabled(t *testing.T) {
	c := Default().Categories
	c.Memory = false
	for fam, want := range map[classify.Family]bool{
		classify.FamilyCPU:     true,
		classify.FamilyGPU:     true,
		classify.FamilyMemory:  false,
		classify.FamilyStorage: true,
		classify.FamilyNetwork: true,
		classify.FamilyNone:    false,
	} {
		if got := c.Enabled(fam); got != want {
			t.Errorf("Enabled(%s) = %v, want %v", fam, got, want)
		}
	}
}
