package core

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInstanceManager_CreateAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{
		ID:      "test-1",
		Name:    "Test Instance",
		Version: "1.21.4",
		Loader:  LoaderVanilla,
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	configPath := filepath.Join(inst.Path, "instance.json")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}

	mgr2 := NewInstanceManager(tmpDir)
	if err := mgr2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded, ok := mgr2.Get("test-1")
	if !ok {
		t.Fatal("Instance not found after reload")
	}

	if loaded.Name != "Test Instance" {
		t.Errorf("Name mismatch: got %q, want %q", loaded.Name, "Test Instance")
	}
	if loaded.Version != "1.21.4" {
		t.Errorf("Version mismatch: got %q, want %q", loaded.Version, "1.21.4")
	}
}

func TestInstanceManager_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "to-delete", Name: "Delete Me", Version: "1.21.4", Loader: LoaderVanilla}
	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, ok := mgr.Get("to-delete"); !ok {
		t.Fatal("Instance should exist after creation")
	}

	if err := mgr.Delete("to-delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := mgr.Get("to-delete"); ok {
		t.Error("Instance should not exist after deletion")
	}

	if _, err := os.Stat(inst.Path); !os.IsNotExist(err) {
		t.Error("Instance directory should be deleted")
	}
}

func TestInstanceManager_List(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	for i := 0; i < 3; i++ {
		inst := &Instance{
			ID:      fmt.Sprintf("inst-%d", i),
			Name:    fmt.Sprintf("Instance %d", i),
			Version: "1.21.4",
			Loader:  LoaderVanilla,
		}
		if err := mgr.Create(inst); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list := mgr.List()
	if len(list) != 3 {
		t.Errorf("Expected 3 instances, got %d", len(list))
	}
}

func TestInstanceManager_UpdateLastPlayed(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "play-test", Name: "Play Test", Version: "1.21.4", Loader: LoaderVanilla}
	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	before := time.Now()
	if err := mgr.UpdateLastPlayed("play-test"); err != nil {
		t.Fatalf("UpdateLastPlayed failed: %v", err)
	}
	after := time.Now()

	updated, _ := mgr.Get("play-test")
	if updated.LastPlayed.Before(before) || updated.LastPlayed.After(after) {
		t.Error("LastPlayed should be between before and after")
	}

	mgr2 := NewInstanceManager(tmpDir)
	mgr2.Load()
	reloaded, _ := mgr2.Get("play-test")
	if reloaded.LastPlayed.IsZero() {
		t.Error("LastPlayed should persist after reload")
	}
}

func TestInstanceManager_EmptyDir(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	if err := mgr.Load(); err != nil {
		t.Fatalf("Load from empty dir failed: %v", err)
	}

	if len(mgr.List()) != 0 {
		t.Error("Expected empty list from new directory")
	}
}

func TestInstanceManager_RenameAndCopy(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "orig", Name: "Original", Version: "1.21.4", Loader: LoaderFabric}
	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inst.Path, "marker.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Rename("orig", "Renamed"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	renamed, _ := mgr.Get("orig")
	if renamed.Name != "Renamed" {
		t.Errorf("expected renamed name, got %q", renamed.Name)
	}

	clone, err := mgr.Copy("orig", "Copy Of Original")
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if clone.ID == "orig" {
		t.Error("copy should not reuse source ID slot in manager without assigning new ID upstream")
	}
	if _, err := os.Stat(filepath.Join(clone.Path, "marker.txt")); err != nil {
		t.Errorf("expected copied file to exist: %v", err)
	}
}

func TestInstanceManager_Export(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "exp", Name: "Exportable", Version: "1.21.4", Loader: LoaderVanilla}
	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	os.MkdirAll(filepath.Join(inst.Path, "natives"), 0755)
	os.WriteFile(filepath.Join(inst.Path, "natives", "skip.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(inst.Path, "mods.txt"), []byte("keep"), 0644)

	destZip := filepath.Join(tmpDir, "out.zip")
	if err := mgr.Export("exp", destZip); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := os.Stat(destZip); err != nil {
		t.Fatalf("expected zip to exist: %v", err)
	}
}
