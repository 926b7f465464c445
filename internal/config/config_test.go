package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Sections(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.DataDir == "" {
		t.Error("expected a non-empty DataDir")
	}
	if cfg.Paths.InstancesDir != filepath.Join(cfg.Paths.DataDir, "instances") {
		t.Error("InstancesDir should be under DataDir")
	}
	if cfg.Memory.MaxMB <= cfg.Memory.MinMB {
		t.Error("expected MaxMB > MinMB by default")
	}
	if cfg.APIKeys.MSAClientID != DefaultMSAClientID {
		t.Error("expected default MSA client ID")
	}
	if cfg.Network.MaxConcurrentDownloads <= 0 {
		t.Error("expected a positive default download concurrency")
	}
}

func TestConfig_SaveLoadRoundtrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("LoadFrom on empty dir failed: %v", err)
	}
	cfg.UI.Theme = "light"
	cfg.Memory.MaxMB = 4096

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if reloaded.UI.Theme != "light" {
		t.Errorf("expected theme to persist, got %q", reloaded.UI.Theme)
	}
	if reloaded.Memory.MaxMB != 4096 {
		t.Errorf("expected MaxMB to persist, got %d", reloaded.Memory.MaxMB)
	}
}

func TestConfig_EnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, _ := LoadFrom(tmpDir)

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InstancesDir, cfg.Paths.AssetsDir, cfg.Paths.LibrariesDir, cfg.Paths.JavaDir} {
		if _, err := filepath.Abs(dir); err != nil {
			t.Errorf("bad dir path %q: %v", dir, err)
		}
	}
}
