package modloader

import (
	"testing"

	"github.com/quasar/launchcore/internal/resolver"
)

func TestSubstituteProcessorArgs(t *testing.T) {
	data := map[string]string{"MAPPINGS": "/tmp/mappings.tsrg"}
	args := []string{"--mappings", "{MAPPINGS}", "--task", "strip", "--lib", "[net.minecraft:client:1.20.1]"}

	got := substituteProcessorArgs(args, data, "/libs")
	want := []string{"--mappings", "/tmp/mappings.tsrg", "--task", "strip", "--lib", "/libs/net/minecraft/client/1.20.1/client-1.20.1.jar"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsLegacyForge(t *testing.T) {
	legacy := &resolver.VersionData{MinecraftArguments: "--username ${auth_player_name}"}
	if !isLegacyForge(legacy) {
		t.Error("expected legacy detection for MinecraftArguments-only doc")
	}

	modern := &resolver.VersionData{Arguments: &resolver.Arguments{}}
	if isLegacyForge(modern) {
		t.Error("expected modern doc with Arguments block to not be legacy")
	}
}

func TestForgeProcessor_AppliesToClient(t *testing.T) {
	cases := []struct {
		name  string
		sides []string
		want  bool
	}{
		{"no sides means every side", nil, true},
		{"explicit client", []string{"client"}, true},
		{"explicit both", []string{"client", "server"}, true},
		{"server only", []string{"server"}, false},
	}
	for _, c := range cases {
		p := forgeProcessor{Sides: c.sides}
		if got := p.appliesToClient(); got != c.want {
			t.Errorf("%s: appliesToClient() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestForgeInstallerURL(t *testing.T) {
	i := &ForgeInstaller{}
	got := i.installerURL("1.20.1", "47.2.0")
	want := "https://maven.minecraftforge.net/net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-installer.jar"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	neo := &ForgeInstaller{neo: true}
	gotNeo := neo.installerURL("1.20.1", "20.4.80")
	wantNeo := "https://maven.neoforged.net/releases/net/neoforged/neoforge/20.4.80/neoforge-20.4.80-installer.jar"
	if gotNeo != wantNeo {
		t.Errorf("got %q, want %q", gotNeo, wantNeo)
	}
}
