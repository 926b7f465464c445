// Package modloader installs Fabric, Quilt, Forge, NeoForge, and LiteLoader
// on top of an already-resolved vanilla version, producing a VersionData
// the launch pipeline merges over vanilla's exactly like an inheritsFrom
// child over its parent.
package modloader

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
	"github.com/quasar/launchcore/internal/library"
	"github.com/quasar/launchcore/internal/resolver"
	"github.com/quasar/launchcore/internal/rules"
)

// LauncherType distinguishes how a loader's main class expects to be
// invoked, since Forge's legacy and modern installers each bolt onto the
// vanilla launch arguments differently.
type LauncherType string

const (
	// LauncherStandard runs the loader's own main class directly with
	// vanilla-style game arguments (Fabric, Quilt, NeoForge, modern Forge).
	LauncherStandard LauncherType = "standard"
	// LauncherTweaker sandwiches a tweaker class onto the vanilla launch
	// via --tweakClass (legacy Forge/LiteLoader on 1.12.2 and earlier).
	LauncherTweaker LauncherType = "tweaker"
	// LauncherLegacy covers the oldest Forge installers that ship their
	// own full version JSON with no tweaker indirection at all.
	LauncherLegacy LauncherType = "legacy"
)

// Profile is the result of installing a mod loader: a VersionData to merge
// over the vanilla document, plus how the launch pipeline should invoke it.
type Profile struct {
	LoaderVersionID string
	LauncherType    LauncherType
	TweakClass      string
	Data            *resolver.VersionData

	// Warnings collects non-fatal problems surfaced during Install, such as
	// a client-side Forge install processor that exited non-zero.
	// The launch pipeline reports these but does not fail the step for them.
	Warnings []string
}

// Installer installs a mod loader version and returns the merge-ready
// profile. One Installer per loader family.
type Installer interface {
	Loader() core.LoaderType
	Install(ctx context.Context, mcVersion, loaderVersion, librariesDir string) (*Profile, error)
}

// httpClient is shared by every loader installer; none of these endpoints
// see enough traffic to warrant retryablehttp's backoff policy, which is
// reserved for the bulk library/asset downloader.
var httpClient = &http.Client{}

func fetchJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return launcherr.Wrap(launcherr.KindInvalidInput, "building request", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return launcherr.Wrap(launcherr.KindNetwork, "fetching "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("%s returned status %d", url, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return launcherr.Wrap(launcherr.KindParse, "decoding "+url, err)
	}
	return nil
}

func downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return launcherr.Wrap(launcherr.KindNetwork, "downloading "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("%s returned status %d", url, resp.StatusCode))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return launcherr.Wrap(launcherr.KindIO, "creating dir for "+dest, err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return launcherr.Wrap(launcherr.KindIO, "creating "+dest, err)
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// jarMainClass reads the Main-Class attribute out of a jar's
// META-INF/MANIFEST.MF, used to invoke a Forge install processor without
// hardcoding its entry point.
func jarMainClass(jarPath string) (string, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return "", launcherr.Wrap(launcherr.KindIO, "opening "+jarPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "META-INF/MANIFEST.MF" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.HasPrefix(line, "Main-Class:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "Main-Class:")), nil
			}
		}
	}
	return "", launcherr.New(launcherr.KindParse, "no Main-Class in manifest: "+jarPath)
}

// ForInstance picks the right Installer for an instance's loader field.
func ForInstance(loader core.LoaderType, librariesDir string) (Installer, error) {
	switch loader {
	case core.LoaderFabric:
		return &FabricInstaller{librariesDir: librariesDir}, nil
	case core.LoaderQuilt:
		return &FabricInstaller{librariesDir: librariesDir, quilt: true}, nil
	case core.LoaderForge:
		return &ForgeInstaller{librariesDir: librariesDir}, nil
	case core.LoaderNeoForge:
		return &ForgeInstaller{librariesDir: librariesDir, neo: true}, nil
	case core.LoaderLite:
		return &LiteLoaderInstaller{librariesDir: librariesDir}, nil
	default:
		return nil, launcherr.New(launcherr.KindInvalidInput, "no installer for loader "+string(loader))
	}
}

// SelectLibraries resolves a profile's own Libraries against env, the same
// way library.Select does for the vanilla document, so the caller can
// build a loader-specific classpath segment without duplicating rule logic.
func SelectLibraries(p *Profile, env rules.Env, librariesDir string) ([]library.Selected, error) {
	if p == nil || p.Data == nil {
		return nil, nil
	}
	return library.Select(p.Data.Libraries, env, librariesDir)
}
