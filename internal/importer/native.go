package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
)

// NativeImporter reads a directory produced by this launcher's own
// InstanceManager.Export: an instance.json at root plus the instance's
// game directory contents alongside it (minus natives/ and logs/, which
// Export already strips).
type NativeImporter struct{}

func (NativeImporter) Format() Format { return FormatNative }

// Detect requires both instance.json to exist and its shape to match this
// launcher's own Instance struct (a "settings" key), so ATLauncher's
// and FTB's differently-shaped instance.json files fall through to their
// own importers instead of misparsing here.
func (NativeImporter) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return false
	}
	var probe struct {
		Path     string          `json:"path"`
		Settings json.RawMessage `json:"settings"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Settings != nil
}

func (NativeImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	data, err := os.ReadFile(filepath.Join(root, "instance.json"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading instance.json", err)
	}

	var inst core.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing instance.json", err)
	}

	result := &ImportResult{
		Name:             inst.Name,
		MinecraftVersion: inst.Version,
		OverridesPath:    root,
		Icon:             inst.Icon,
		Playtime:         secondsToDuration(inst.PlayTimeSeconds),
		Notes:            inst.Notes,
		ManagedPack:      inst.ManagedPack,
		Settings:         inst.Settings,
	}
	if inst.Loader != "" && inst.Loader != core.LoaderVanilla {
		result.ModLoader = &ModLoaderRef{Type: inst.Loader, Version: inst.LoaderVer}
	}
	return result, nil
}
