package library

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchcore/internal/resolver"
	"github.com/quasar/launchcore/internal/rules"
)

func TestParseCoordinate_Path(t *testing.T) {
	c, err := ParseCoordinate("org.ow2.asm:asm:9.7")
	if err != nil {
		t.Fatalf("ParseCoordinate failed: %v", err)
	}
	want := "org/ow2/asm/asm/9.7/asm-9.7.jar"
	if got := c.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestParseCoordinate_WithClassifier(t *testing.T) {
	c, err := ParseCoordinate("org.lwjgl:lwjgl:3.3.3:natives-linux")
	if err != nil {
		t.Fatalf("ParseCoordinate failed: %v", err)
	}
	want := "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"
	if got := c.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if !c.IsNativesOnly() {
		t.Error("expected natives classifier to be detected as natives-only")
	}
}

func TestSelect_FiltersByRule(t *testing.T) {
	libs := []resolver.Library{
		{Name: "com.example:linux-only:1.0", Rules: []resolver.Rule{
			{Action: "allow", OS: &rules.OS{Name: "linux"}},
		}},
		{Name: "com.example:always:1.0"},
	}

	linuxEnv := rules.Env{OSName: "linux", OSArch: "x86_64"}
	selected, err := Select(libs, linuxEnv, "/libs")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 libraries on linux, got %d", len(selected))
	}

	osxEnv := rules.Env{OSName: "osx", OSArch: "x86_64"}
	selected, err = Select(libs, osxEnv, "/libs")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(selected) != 1 {
		t.Fatalf("expected 1 library on osx, got %d", len(selected))
	}
}

func TestIsNativesOnly_NamedPlatformArtifacts(t *testing.T) {
	cases := []struct {
		coord string
		want  bool
	}{
		{"tv.twitch:twitch-platform:1.0", true},
		{"tv.twitch:twitch-external-platform:1.0", true},
		{"org.lwjgl:lwjgl-platform:3.3.3", true},
		{"org.lwjgl:lwjgl:3.3.3", false},
	}
	for _, c := range cases {
		coord, err := ParseCoordinate(c.coord)
		if err != nil {
			t.Fatalf("ParseCoordinate(%q): %v", c.coord, err)
		}
		if got := coord.IsNativesOnly(); got != c.want {
			t.Errorf("IsNativesOnly(%q) = %v, want %v", c.coord, got, c.want)
		}
	}
}

func TestExtractJar_PreservesExecutableBit(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "natives.jar")

	f, err := os.Create(jarPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	hdr := &zip.FileHeader{Name: "libfoo.so", Method: zip.Deflate}
	hdr.SetMode(0755)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("fake native")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	destDir := t.TempDir()
	n, err := extractJar(jarPath, destDir, nil)
	if err != nil {
		t.Fatalf("extractJar failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 file extracted, got %d", n)
	}

	info, err := os.Stat(filepath.Join(destDir, "libfoo.so"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Errorf("expected executable bit preserved, got mode %v", info.Mode())
	}
}

func TestPopulateLegacyAssets_UsesIndexID(t *testing.T) {
	assetsDir := t.TempDir()
	hash := "abc123"
	objDir := filepath.Join(assetsDir, "objects", hash[:2])
	if err := os.MkdirAll(objDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(objDir, hash), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	idx := &AssetIndex{
		ID:      "pre-1.6",
		Virtual: true,
		Objects: map[string]struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		}{
			"sound/click.ogg": {Hash: hash, Size: 4},
		},
	}

	if err := PopulateLegacyAssets(idx, assetsDir); err != nil {
		t.Fatalf("PopulateLegacyAssets failed: %v", err)
	}

	want := filepath.Join(assetsDir, "virtual", "pre-1.6", "sound", "click.ogg")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected asset at %s: %v", want, err)
	}
}

func TestClasspath_DedupKeepsFirst(t *testing.T) {
	loader := []Selected{{LocalPath: "/libs/a.jar"}}
	vanilla := []Selected{{LocalPath: "/libs/a.jar"}, {LocalPath: "/libs/b.jar"}}
	cp := Classpath(loader, vanilla, "/client.jar")
	want := []string{"/libs/a.jar", "/libs/b.jar", "/client.jar"}
	if len(cp) != len(want) {
		t.Fatalf("got %v, want %v", cp, want)
	}
	for i := range want {
		if cp[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, cp[i], want[i])
		}
	}
}
