package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchcore/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDetect_Native(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "instance.json", `{"id":"abc","name":"My Pack","version":"1.21.4","loader":"fabric","loaderVer":"0.16.5","path":"`+dir+`","settings":{"recordPlaytime":true}}`)

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatNative {
		t.Fatalf("got format %s, want native", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Name != "My Pack" || res.MinecraftVersion != "1.21.4" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderFabric {
		t.Fatalf("expected fabric loader, got %+v", res.ModLoader)
	}
}

func TestDetect_ATLauncherNotConfusedWithNative(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "instance.json", `{"id":"pack-1","name":"ATPack","minecraftVersion":"1.20.1","launcher":{"name":"ATPack","loaderType":"Forge","version":"47.2.0"}}`)

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatATLauncher {
		t.Fatalf("got format %s, want atlauncher", imp.Format())
	}
}

func TestDetect_FTBNotConfusedWithNative(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "instance.json", `{"name":"FTB Pack","mcVersion":"1.20.1","modLoader":"forge-47.2.0","playTime":3600000}`)

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatFTB {
		t.Fatalf("got format %s, want ftb", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Playtime.Seconds() != 3600 {
		t.Fatalf("expected 3600s playtime, got %v", res.Playtime)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderForge || res.ModLoader.Version != "47.2.0" {
		t.Fatalf("unexpected loader: %+v", res.ModLoader)
	}
}

func TestDetect_Modrinth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "modrinth.index.json", `{
		"formatVersion": 1,
		"game": "minecraft",
		"name": "Skyblock Pack",
		"summary": "a pack",
		"files": [
			{"path": "mods/sodium.jar", "hashes": {"sha1": "abc123", "sha512": "def456"}, "downloads": ["https://cdn.modrinth.com/sodium.jar"], "fileSize": 1024}
		],
		"dependencies": {"minecraft": "1.21.4", "fabric-loader": "0.16.5"}
	}`)
	writeFile(t, dir, "overrides/config/test.cfg", "ok")

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatModrinth {
		t.Fatalf("got format %s, want modrinth", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MinecraftVersion != "1.21.4" {
		t.Fatalf("unexpected mc version: %s", res.MinecraftVersion)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderFabric || res.ModLoader.Version != "0.16.5" {
		t.Fatalf("unexpected loader: %+v", res.ModLoader)
	}
	if len(res.FilesToDownload) != 1 || res.FilesToDownload[0].Hash != "def456" {
		t.Fatalf("unexpected files: %+v", res.FilesToDownload)
	}
	if res.OverridesPath == "" {
		t.Fatalf("expected overrides path to be found")
	}
}

func TestDetect_Prism(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "instance.cfg", "InstanceType=OneSix\nname=My Prism Pack\ntotalTimePlayed=120\nlastLaunchTime=0\n")
	writeFile(t, dir, "mmc-pack.json", `{"components":[{"uid":"net.minecraft","version":"1.20.1"},{"uid":"net.minecraftforge","version":"47.2.0"}]}`)
	writeFile(t, dir, ".minecraft/saves/world/level.dat", "x")

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatPrism {
		t.Fatalf("got format %s, want prism", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Name != "My Prism Pack" {
		t.Fatalf("unexpected name: %s", res.Name)
	}
	if res.MinecraftVersion != "1.20.1" {
		t.Fatalf("unexpected mc version: %s", res.MinecraftVersion)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderForge {
		t.Fatalf("unexpected loader: %+v", res.ModLoader)
	}
	if res.Playtime.Seconds() != 120 {
		t.Fatalf("unexpected playtime: %v", res.Playtime)
	}
}

func TestDetect_Technic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bin/version.json", `{"id":"1.12.2","libraries":[{"name":"net.minecraftforge:forge:1.12.2-14.23.5.2860"}]}`)

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatTechnic {
		t.Fatalf("got format %s, want technic", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.MinecraftVersion != "1.12.2" {
		t.Fatalf("unexpected mc version: %s", res.MinecraftVersion)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderForge {
		t.Fatalf("unexpected loader: %+v", res.ModLoader)
	}
}

func TestSplitLoaderVersion(t *testing.T) {
	kind, version := splitLoaderVersion("forge-47.2.0")
	if kind != "forge" || version != "47.2.0" {
		t.Fatalf("got %q/%q", kind, version)
	}

	kind, version = splitLoaderVersion("vanilla")
	if kind != "vanilla" || version != "" {
		t.Fatalf("got %q/%q", kind, version)
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	dir := t.TempDir()
	if _, err := Detect(dir); err == nil {
		t.Fatal("expected an error for an unrecognized directory")
	}
}

func TestDetect_CurseForgeWithoutClient(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.json", `{
		"minecraft": {"version": "1.20.1", "modLoaders": [{"id": "forge-47.2.0", "primary": true}]},
		"name": "CF Pack",
		"overrides": "overrides",
		"files": [{"projectID": 1, "fileID": 2, "required": true}]
	}`)
	writeFile(t, dir, "overrides/config/x.cfg", "ok")

	imp, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if imp.Format() != FormatCurseForge {
		t.Fatalf("got format %s, want curseforge", imp.Format())
	}

	res, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Name != "CF Pack" || res.MinecraftVersion != "1.20.1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ModLoader == nil || res.ModLoader.Type != core.LoaderForge || res.ModLoader.Version != "47.2.0" {
		t.Fatalf("unexpected loader: %+v", res.ModLoader)
	}
	if len(res.FilesToDownload) != 0 {
		t.Fatalf("expected no resolved files without an API client, got %+v", res.FilesToDownload)
	}
}
