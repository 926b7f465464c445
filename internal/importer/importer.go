// Package importer detects and parses external pack/instance formats
// (Modrinth, CurseForge, Prism, Technic, ATLauncher, FTB App, and this
// launcher's own native export) into a format-agnostic ImportResult the
// caller can use to provision a new core.Instance.
package importer

import (
	"context"
	"time"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/download"
	"github.com/quasar/launchcore/internal/launcherr"
)

// Format names one of the supported source pack layouts.
type Format string

const (
	FormatNative     Format = "native"
	FormatModrinth   Format = "modrinth"
	FormatCurseForge Format = "curseforge"
	FormatPrism      Format = "prism"
	FormatTechnic    Format = "technic"
	FormatATLauncher Format = "atlauncher"
	FormatFTB        Format = "ftb"
)

// ModLoaderRef names a mod loader and the version a pack pins.
type ModLoaderRef struct {
	Type    core.LoaderType
	Version string
}

// ImportResult is the unified output of every importer: everything needed
// to provision a new instance, independent of the source format.
type ImportResult struct {
	Name             string
	MinecraftVersion string
	ModLoader        *ModLoaderRef
	FilesToDownload  []download.Item
	OverridesPath    string // local directory to copy into the instance's game/ dir, "" if none
	Icon             string
	Playtime         time.Duration
	Notes            string
	ManagedPack      *core.ManagedPack
	Settings         core.Settings
}

// Importer is implemented by each source format's adapter.
type Importer interface {
	Format() Format
	// Detect reports whether root (a directory the archive/export was
	// already extracted into) looks like this format.
	Detect(root string) bool
	Import(ctx context.Context, root string) (*ImportResult, error)
}

// registry lists every importer in detection priority order. Native,
// ATLauncher and FTB all key off an instance.json at root, so each one's
// Detect checks for a distinguishing shape rather than just the filename;
// order here doesn't matter for correctness but Native is checked first
// since it's the common case for round-tripping this launcher's own
// exports.
func registry() []Importer {
	return []Importer{
		&NativeImporter{},
		&ModrinthImporter{},
		&CurseForgeImporter{},
		&PrismImporter{},
		&TechnicImporter{},
		&ATLauncherImporter{},
		&FTBImporter{},
	}
}

// Detect walks the registry and returns the first importer whose marker
// file is present under root.
func Detect(root string) (Importer, error) {
	for _, imp := range registry() {
		if imp.Detect(root) {
			return imp, nil
		}
	}
	return nil, launcherr.New(launcherr.KindInvalidInput, "unrecognized pack format: "+root)
}

// Import detects the format under root and runs its importer in one call.
func Import(ctx context.Context, root string) (*ImportResult, error) {
	imp, err := Detect(root)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, root)
}
