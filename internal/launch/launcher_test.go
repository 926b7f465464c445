package launch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quasar/launchcore/internal/config"
	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/modloader"
	"github.com/quasar/launchcore/internal/resolver"
	"github.com/quasar/launchcore/internal/rules"
)

func testLauncher(t *testing.T, inst *core.Instance) (*Launcher, *config.Config) {
	t.Helper()
	dataDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.DataDir = dataDir
	cfg.Paths.LibrariesDir = filepath.Join(dataDir, "libraries")
	cfg.Paths.AssetsDir = filepath.Join(dataDir, "assets")
	cfg.Paths.JavaDir = filepath.Join(dataDir, "java")

	l := NewLauncher(&Options{Instance: inst, Config: cfg, Offline: true}, nil)
	return l, cfg
}

func TestResolveVersion_PrefersPerInstanceLoaderCache(t *testing.T) {
	instDir := t.TempDir()
	inst := &core.Instance{ID: "inst-1", Version: "1.20.1", Loader: core.LoaderFabric, LoaderVer: "0.15.0", Path: instDir}

	l, _ := testLauncher(t, inst)

	cached := cachedLoaderProfile{
		Data:         &resolver.VersionData{ID: "fabric-loader-0.15.0-1.20.1", MainClass: "net.fabricmc.loader.impl.launch.knot.KnotClient"},
		LauncherType: modloader.LauncherStandard,
	}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(instDir, "version.json"), data, 0644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	if err := l.resolveVersion(nil); err != nil {
		t.Fatalf("resolveVersion: %v", err)
	}
	if l.versionData == nil || l.versionData.MainClass != "net.fabricmc.loader.impl.launch.knot.KnotClient" {
		t.Fatalf("expected merged fabric main class from cache, got %+v", l.versionData)
	}
}

func TestMainClass_TweakerFallsBackToLaunchwrapper(t *testing.T) {
	inst := &core.Instance{ID: "inst-2", Version: "1.12.2", Loader: core.LoaderForge, Path: t.TempDir()}
	l, _ := testLauncher(t, inst)
	l.versionData = &resolver.VersionData{ID: "1.12.2"} // no MainClass of its own
	l.loaderProf = &modloader.Profile{LauncherType: modloader.LauncherTweaker, TweakClass: "net.minecraftforge.fml.common.launcher.FMLTweaker"}

	if got := l.mainClass(); got != "net.minecraft.launchwrapper.Launch" {
		t.Errorf("mainClass() = %q, want launchwrapper", got)
	}
}

func TestBuildArguments_AppendsTweakClass(t *testing.T) {
	inst := &core.Instance{ID: "inst-3", Version: "1.12.2", Loader: core.LoaderForge, Path: t.TempDir()}
	l, _ := testLauncher(t, inst)
	l.versionData = &resolver.VersionData{ID: "1.12.2", MinecraftArguments: "--username ${auth_player_name}"}
	l.loaderProf = &modloader.Profile{LauncherType: modloader.LauncherTweaker, TweakClass: "net.minecraftforge.fml.common.launcher.FMLTweaker"}

	args := l.buildArguments()
	found := false
	for i, a := range args {
		if a == "--tweakClass" && i+1 < len(args) && args[i+1] == "net.minecraftforge.fml.common.launcher.FMLTweaker" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected --tweakClass in arguments, got %v", args)
	}
}

func TestDecodeConditionalStrings_BareAndConditional(t *testing.T) {
	env := rules.CurrentEnv()

	if got := decodeConditionalStrings(json.RawMessage(`"--demo"`), env); len(got) != 1 || got[0] != "--demo" {
		t.Errorf("bare string: got %v", got)
	}

	raw := json.RawMessage(`{"rules":[{"action":"allow","os":{"name":"` + env.OSName + `"}}],"value":["--a","--b"]}`)
	if got := decodeConditionalStrings(raw, env); len(got) != 2 {
		t.Errorf("conditional list: got %v", got)
	}

	raw2 := json.RawMessage(`{"rules":[{"action":"allow","os":{"name":"not-` + env.OSName + `"}}],"value":"--skip"}`)
	if got := decodeConditionalStrings(raw2, env); len(got) != 0 {
		t.Errorf("expected rule mismatch to drop the argument, got %v", got)
	}
}

func TestBuildClasspath_DedupesAndAppendsClientJar(t *testing.T) {
	inst := &core.Instance{ID: "inst-4", Version: "1.20.1", Path: t.TempDir()}
	l, cfg := testLauncher(t, inst)
	l.versionData = &resolver.VersionData{
		ID: "1.20.1",
		Libraries: []resolver.Library{
			{Name: "com.example:foo:1.0.0", Downloads: &resolver.LibraryDownloads{
				Artifact: &resolver.Artifact{Path: "com/example/foo/1.0.0/foo-1.0.0.jar"},
			}},
		},
	}

	cp := l.buildClasspath()
	if cp == "" {
		t.Fatal("expected non-empty classpath")
	}
	clientJar := filepath.Join(cfg.Paths.LibrariesDir, "com", "mojang", "minecraft", "1.20.1", "minecraft-1.20.1-client.jar")
	if !strings.Contains(cp, clientJar) {
		t.Errorf("expected classpath to contain client jar %s, got %s", clientJar, cp)
	}
}
