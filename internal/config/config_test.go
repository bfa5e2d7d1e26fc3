package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Terrain.ErrorLimit != 2.0 {
		t.Errorf("expected error limit 2.0, got %f", cfg.Terrain.ErrorLimit)
	}
	if cfg.Terrain.MorphTime != 2.5 {
		t.Errorf("expected morph time 2.5, got %f", cfg.Terrain.MorphTime)
	}
	if cfg.Terrain.FrustumBias != 0.18 {
		t.Errorf("expected frustum bias 0.18, got %f", cfg.Terrain.FrustumBias)
	}

	if cfg.Data.MapDir != "maps/default" {
		t.Errorf("expected default map dir, got %s", cfg.Data.MapDir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

terrain:
  error_limit: 4.5
  morph_time: 1.0
  frustum_bias: 0.0
  rain_step: 2

data:
  map_dir: /data/maps/canyon

logging:
  level: debug
  log_file: /tmp/terrain.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Terrain.ErrorLimit != 4.5 {
		t.Errorf("expected error limit 4.5, got %f", cfg.Terrain.ErrorLimit)
	}
	if cfg.Terrain.RainStep != 2 {
		t.Errorf("expected rain step 2, got %d", cfg.Terrain.RainStep)
	}
	if cfg.Data.MapDir != "/data/maps/canyon" {
		t.Errorf("expected map dir override, got %s", cfg.Data.MapDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestFindConfigFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if got := findConfigFile(); got != "" {
		t.Errorf("expected no config file found, got %s", got)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := Default()
	cfg.Graphics.Width = 2560
	cfg.Terrain.ErrorLimit = 3.0

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	reloaded := Default()
	if err := loadFromFile(reloaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Graphics.Width != 2560 {
		t.Errorf("expected width 2560 after round trip, got %d", reloaded.Graphics.Width)
	}
	if reloaded.Terrain.ErrorLimit != 3.0 {
		t.Errorf("expected error limit 3.0 after round trip, got %f", reloaded.Terrain.ErrorLimit)
	}
}
