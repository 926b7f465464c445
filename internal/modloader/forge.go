package modloader

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
	"github.com/quasar/launchcore/internal/library"
	"github.com/quasar/launchcore/internal/resolver"
)

const (
	forgeMavenBase    = "https://maven.minecraftforge.net/net/minecraftforge/forge"
	neoforgeMavenBase = "https://maven.neoforged.net/releases/net/neoforged/neoforge"
)

// ForgeInstaller installs (Neo)Forge from its installer jar. Modern
// versions (1.13+) ship an install_profile.json with a processors list
// that has to be executed with a real JVM; legacy versions (<=1.12.2) ship
// a ready-made version JSON and a universal jar, invoked as a tweaker on
// top of the vanilla launch.
type ForgeInstaller struct {
	librariesDir string
	neo          bool
	javaPath     string // set by the launch pipeline before Install runs
}

// SetJavaPath tells the installer which java binary to run install
// processors with. The launch pipeline sets this once Java has been
// resolved for the target instance; without it, "java" from PATH is used.
func (i *ForgeInstaller) SetJavaPath(path string) {
	i.javaPath = path
}

func (i *ForgeInstaller) Loader() core.LoaderType {
	if i.neo {
		return core.LoaderNeoForge
	}
	return core.LoaderForge
}

// installerURL follows the installer's well-known Maven naming:
// forge-<mc>-<forge>-installer.jar under its own version directory.
func (i *ForgeInstaller) installerURL(mcVersion, loaderVersion string) string {
	if i.neo {
		return fmt.Sprintf("%s/%s/neoforge-%s-installer.jar", neoforgeMavenBase, loaderVersion, loaderVersion)
	}
	full := mcVersion + "-" + loaderVersion
	return fmt.Sprintf("%s/%s/forge-%s-installer.jar", forgeMavenBase, full, full)
}

type forgeInstallProfile struct {
	Version   string                         `json:"version"`
	Libraries []resolver.Library             `json:"libraries"`
	Processors []forgeProcessor              `json:"processors"`
	Data       map[string]forgeDataEntry     `json:"data"`
	JSONPath   string                        `json:"json"`   // modern: path of embedded version.json inside the installer
	VersionInfo *resolver.VersionData        `json:"versionInfo"` // legacy: version doc embedded directly
}

type forgeProcessor struct {
	Jar       string            `json:"jar"`
	Classpath []string          `json:"classpath"`
	Args      []string          `json:"args"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Sides     []string          `json:"sides,omitempty"`
}

// appliesToClient reports whether a processor should run for a client
// install: an empty sides list applies to every side, a non-empty one must
// name "client".
func (p forgeProcessor) appliesToClient() bool {
	if len(p.Sides) == 0 {
		return true
	}
	for _, s := range p.Sides {
		if s == "client" {
			return true
		}
	}
	return false
}

type forgeDataEntry struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

func (i *ForgeInstaller) Install(ctx context.Context, mcVersion, loaderVersion, librariesDir string) (*Profile, error) {
	i.librariesDir = librariesDir

	tmpDir, err := os.MkdirTemp("", "forge-install-*")
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "creating temp dir", err)
	}
	defer os.RemoveAll(tmpDir)

	installerPath := filepath.Join(tmpDir, "installer.jar")
	if err := downloadFile(ctx, i.installerURL(mcVersion, loaderVersion), installerPath); err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "downloading forge installer", err)
	}

	zr, err := zip.OpenReader(installerPath)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "opening forge installer", err)
	}
	defer zr.Close()

	profile, err := readInstallProfile(zr)
	if err != nil {
		return nil, err
	}

	// Modern installers keep the real version document as a sibling entry
	// inside the jar rather than inline in install_profile.json.
	vd := profile.VersionInfo
	if vd == nil && profile.JSONPath != "" {
		vd, err = readEmbeddedVersion(zr, strings.TrimPrefix(profile.JSONPath, "/"))
		if err != nil {
			return nil, err
		}
	}
	if vd == nil {
		return nil, launcherr.New(launcherr.KindParse, "forge install profile has no version document")
	}

	// The installer's own library list (processor jars, the forge universal
	// jar itself) has to land in the shared libraries dir before any
	// processor runs, since processors load each other off that tree.
	for _, lib := range profile.Libraries {
		if err := extractOrDownloadLibrary(ctx, zr, lib, librariesDir); err != nil {
			return nil, err
		}
	}
	for _, lib := range vd.Libraries {
		if err := extractOrDownloadLibrary(ctx, zr, lib, librariesDir); err != nil {
			return nil, err
		}
	}

	var warnings []string
	if len(profile.Processors) > 0 {
		clientJar := filepath.Join(librariesDir, "..", "versions", mcVersion, mcVersion+".jar")
		warnings, err = i.runProcessors(ctx, zr, tmpDir, profile, clientJar, mcVersion)
		if err != nil {
			return nil, launcherr.Wrap(launcherr.KindProcessorFailed, "running forge install processors", err)
		}
	}

	launcherType := LauncherStandard
	tweakClass := ""
	if isLegacyForge(vd) {
		launcherType = LauncherTweaker
		tweakClass = "net.minecraftforge.fml.common.launcher.FMLTweaker"
	}

	return &Profile{
		LoaderVersionID: vd.ID,
		LauncherType:    launcherType,
		TweakClass:      tweakClass,
		Data:            vd,
		Warnings:        warnings,
	}, nil
}

// isLegacyForge distinguishes pre-1.13 Forge (launched as a vanilla
// tweaker) from 1.13+ Forge (its own MainClass, modern arguments block).
func isLegacyForge(vd *resolver.VersionData) bool {
	return vd.Arguments == nil && vd.MinecraftArguments != ""
}

func readInstallProfile(zr *zip.ReadCloser) (*forgeInstallProfile, error) {
	data, err := readZipEntry(zr, "install_profile.json")
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "reading install_profile.json", err)
	}
	var profile forgeInstallProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding install_profile.json", err)
	}
	// Legacy installers nest the actual profile under an "install" key with
	// versionInfo as a sibling of install rather than at the top level.
	if profile.VersionInfo == nil && profile.JSONPath == "" {
		var legacy struct {
			Install struct {
				Path    string `json:"path"`
				Version string `json:"version"`
			} `json:"install"`
			VersionInfo *resolver.VersionData `json:"versionInfo"`
		}
		if err := json.Unmarshal(data, &legacy); err == nil {
			profile.VersionInfo = legacy.VersionInfo
		}
	}
	return &profile, nil
}

func readEmbeddedVersion(zr *zip.ReadCloser, name string) (*resolver.VersionData, error) {
	data, err := readZipEntry(zr, name)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "reading embedded "+name, err)
	}
	var vd resolver.VersionData
	if err := json.Unmarshal(data, &vd); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding embedded "+name, err)
	}
	return &vd, nil
}

func readZipEntry(zr *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry not found: %s", name)
}

// extractOrDownloadLibrary materializes one installer library onto the
// shared libraries tree: from inside the installer jar under maven/ if
// present (Forge bundles its own artifacts there to avoid a second
// network round trip), otherwise by downloading its declared URL.
func extractOrDownloadLibrary(ctx context.Context, zr *zip.ReadCloser, lib resolver.Library, librariesDir string) error {
	coord, err := library.ParseCoordinate(lib.Name)
	if err != nil {
		return err
	}
	destPath := filepath.Join(librariesDir, filepath.FromSlash(coord.Path()))
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}

	bundled := "maven/" + coord.Path()
	if data, err := readZipEntry(zr, bundled); err == nil {
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return launcherr.Wrap(launcherr.KindIO, "creating library dir", err)
		}
		return os.WriteFile(destPath, data, 0644)
	}

	if lib.Downloads != nil && lib.Downloads.Artifact != nil && lib.Downloads.Artifact.URL != "" {
		return downloadFile(ctx, lib.Downloads.Artifact.URL, destPath)
	}
	base := lib.URL
	if base == "" {
		base = "https://libraries.minecraft.net/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return downloadFile(ctx, base+coord.Path(), destPath)
}

// runProcessors executes install_profile.json's processors list in order:
// each entry names a jar whose manifest Main-Class gets invoked with a
// classpath and an argument list where "{KEY}" substitutes a data value
// and "[group:artifact:version]" substitutes a resolved library path.
//
// A processor naming a non-empty sides list that excludes "client" is
// skipped outright. A processor that does apply but exits non-zero is
// logged as a warning rather than aborting the install: Forge's installer
// jar is written to tolerate partial processor failure on a client-only
// run, and later processors (and the game itself) generally still work.
func (i *ForgeInstaller) runProcessors(ctx context.Context, zr *zip.ReadCloser, tmpDir string, profile *forgeInstallProfile, clientJar, mcVersion string) ([]string, error) {
	data := make(map[string]string)
	for key, entry := range profile.Data {
		raw := entry.Client
		switch {
		case strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]"):
			coord, err := library.ParseCoordinate(strings.Trim(raw, "[]"))
			if err != nil {
				return nil, err
			}
			data[key] = filepath.Join(i.librariesDir, filepath.FromSlash(coord.Path()))
		case strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'"):
			data[key] = strings.Trim(raw, "'")
		case strings.HasPrefix(raw, "/"):
			extracted, err := extractInstallerFile(zr, strings.TrimPrefix(raw, "/"), tmpDir)
			if err != nil {
				return nil, err
			}
			data[key] = extracted
		default:
			data[key] = raw
		}
	}
	data["MINECRAFT_JAR"] = clientJar
	data["MINECRAFT_VERSION"] = mcVersion
	data["SIDE"] = "client"

	javaPath := i.javaPath
	if javaPath == "" {
		javaPath = "java"
	}

	var warnings []string
	for _, p := range profile.Processors {
		if !p.appliesToClient() {
			continue
		}

		coord, err := library.ParseCoordinate(p.Jar)
		if err != nil {
			return warnings, err
		}
		processorJar := filepath.Join(i.librariesDir, filepath.FromSlash(coord.Path()))

		mainClass, err := jarMainClass(processorJar)
		if err != nil {
			return warnings, err
		}

		var classpath []string
		for _, cpEntry := range p.Classpath {
			c, err := library.ParseCoordinate(cpEntry)
			if err != nil {
				return warnings, err
			}
			classpath = append(classpath, filepath.Join(i.librariesDir, filepath.FromSlash(c.Path())))
		}
		classpath = append(classpath, processorJar)

		args := []string{"-cp", strings.Join(classpath, string(os.PathListSeparator)), mainClass}
		args = append(args, substituteProcessorArgs(p.Args, data, i.librariesDir)...)

		cmd := exec.CommandContext(ctx, javaPath, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("processor %s exited with an error: %s", p.Jar, strings.TrimSpace(string(out))))
		}
	}
	return warnings, nil
}

func substituteProcessorArgs(args []string, data map[string]string, librariesDir string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "{") && strings.HasSuffix(a, "}"):
			out = append(out, data[strings.Trim(a, "{}")])
		case strings.HasPrefix(a, "[") && strings.HasSuffix(a, "]"):
			coord, err := library.ParseCoordinate(strings.Trim(a, "[]"))
			if err != nil {
				out = append(out, a)
				continue
			}
			out = append(out, filepath.Join(librariesDir, filepath.FromSlash(coord.Path())))
		default:
			out = append(out, a)
		}
	}
	return out
}

func extractInstallerFile(zr *zip.ReadCloser, name, destDir string) (string, error) {
	data, err := readZipEntry(zr, name)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, filepath.Base(name))
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", launcherr.Wrap(launcherr.KindIO, "extracting "+name, err)
	}
	return dest, nil
}
