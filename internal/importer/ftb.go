package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
)

// ftbInstance mirrors the subset of an FTB App instance.json this importer
// reads. FTB's modLoader field packs a loader family and version into one
// "kind-version" string (e.g. "forge-47.2.0"), and playtime is stored in
// milliseconds rather than seconds.
type ftbInstance struct {
	Name       string `json:"name"`
	MCVersion  string `json:"mcVersion"`
	ModLoader  string `json:"modLoader"`
	PlayTimeMs int64  `json:"playTime"`
	Art        string `json:"art"`
	Notes      string `json:"notes"`
}

// FTBImporter reads an FTB App instance directory. Its instance.json has
// neither the native format's loader/version split fields nor ATLauncher's
// "launcher" envelope, so detection checks for FTB's distinctive mcVersion
// key instead.
type FTBImporter struct{}

func (FTBImporter) Format() Format { return FormatFTB }

func (FTBImporter) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return false
	}
	var probe struct {
		MCVersion string          `json:"mcVersion"`
		Launcher  json.RawMessage `json:"launcher"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.MCVersion != "" && len(probe.Launcher) == 0
}

func (FTBImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading instance.json", err)
	}

	var inst ftbInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing FTB instance.json", err)
	}

	result := &ImportResult{
		Name:             inst.Name,
		MinecraftVersion: inst.MCVersion,
		Icon:             inst.Art,
		Notes:            inst.Notes,
		Playtime:         millisToDuration(inst.PlayTimeMs),
		OverridesPath:    firstExistingDir(root, "minecraft", ".minecraft"),
	}

	if inst.ModLoader != "" {
		kind, version := splitLoaderVersion(inst.ModLoader)
		result.ModLoader = &ModLoaderRef{Type: ftbLoaderType(kind), Version: version}
	}

	return result, nil
}

func ftbLoaderType(kind string) core.LoaderType {
	switch kind {
	case "fabric":
		return core.LoaderFabric
	case "quilt":
		return core.LoaderQuilt
	case "neoforge":
		return core.LoaderNeoForge
	default:
		return core.LoaderForge
	}
}
