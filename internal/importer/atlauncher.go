package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
)

// atLauncherInstance mirrors the subset of ATLauncher's instance.json this
// importer reads. ATLauncher's file is distinguished from this launcher's
// own native instance.json by its "launcher" envelope, which the native
// format never writes.
type atLauncherInstance struct {
	Launcher struct {
		Name       string `json:"name"`
		PackName   string `json:"pack"`
		Version    string `json:"version"`
		LoaderType string `json:"loaderType"`
	} `json:"launcher"`
	ID               string `json:"id"`
	Name             string `json:"name"`
	MinecraftVersion string `json:"minecraftVersion"`
}

// ATLauncherImporter reads an ATLauncher instance directory.
type ATLauncherImporter struct{}

func (ATLauncherImporter) Format() Format { return FormatATLauncher }

func (ATLauncherImporter) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return false
	}
	var probe struct {
		Launcher json.RawMessage `json:"launcher"`
	}
	return json.Unmarshal(data, &probe) == nil && len(probe.Launcher) > 0
}

func (ATLauncherImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading instance.json", err)
	}

	var inst atLauncherInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing ATLauncher instance.json", err)
	}

	name := inst.Launcher.Name
	if name == "" {
		name = inst.Name
	}

	result := &ImportResult{
		Name:             name,
		MinecraftVersion: inst.MinecraftVersion,
		OverridesPath:    firstExistingDir(root, "minecraft", ".minecraft"),
	}

	if loaderType := atLauncherLoaderType(inst.Launcher.LoaderType); loaderType != "" {
		result.ModLoader = &ModLoaderRef{Type: loaderType, Version: inst.Launcher.Version}
	}

	return result, nil
}

func atLauncherLoaderType(name string) core.LoaderType {
	switch name {
	case "Fabric":
		return core.LoaderFabric
	case "Forge":
		return core.LoaderForge
	case "Quilt":
		return core.LoaderQuilt
	case "NeoForge":
		return core.LoaderNeoForge
	default:
		return ""
	}
}
