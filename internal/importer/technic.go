package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
)

// technicVersion mirrors the subset of a Technic bin/version.json this
// importer reads: the Minecraft version plus a libraries list that names
// the loader (e.g. "net.minecraftforge:forge:1.20.1-47.2.0").
type technicVersion struct {
	ID        string `json:"id"`
	Libraries []struct {
		Name string `json:"name"`
	} `json:"libraries"`
}

// TechnicImporter reads a Technic Solder pack directory: a bin/modpack.jar
// or bin/version.json may live at any nesting level under root, so
// detection walks the tree rather than checking a fixed path.
type TechnicImporter struct{}

func (TechnicImporter) Format() Format { return FormatTechnic }

func (TechnicImporter) Detect(root string) bool {
	_, err := findTechnicMarker(root)
	return err == nil
}

func (TechnicImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	marker, err := findTechnicMarker(root)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "locating technic bin/ directory", err)
	}
	binDir := filepath.Dir(marker)
	packRoot := filepath.Dir(binDir)

	result := &ImportResult{
		Name:          filepath.Base(packRoot),
		OverridesPath: packRoot,
	}

	versionPath := filepath.Join(binDir, "version.json")
	data, err := os.ReadFile(versionPath)
	if err != nil {
		// modpack.jar with no version.json: nothing further to parse.
		return result, nil
	}
	var v technicVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing technic version.json", err)
	}
	result.MinecraftVersion = v.ID

	for _, lib := range v.Libraries {
		parts := strings.Split(lib.Name, ":")
		if len(parts) < 3 {
			continue
		}
		group, artifact, version := parts[0], parts[1], parts[2]
		switch {
		case strings.Contains(group, "minecraftforge"):
			result.ModLoader = &ModLoaderRef{Type: core.LoaderForge, Version: version}
		case strings.Contains(group, "fabricmc") && artifact == "fabric-loader":
			result.ModLoader = &ModLoaderRef{Type: core.LoaderFabric, Version: version}
		case strings.Contains(group, "quiltmc"):
			result.ModLoader = &ModLoaderRef{Type: core.LoaderQuilt, Version: version}
		case strings.Contains(group, "neoforged"):
			result.ModLoader = &ModLoaderRef{Type: core.LoaderNeoForge, Version: version}
		}
	}

	return result, nil
}

// findTechnicMarker walks root looking for bin/modpack.jar or
// bin/version.json and returns whichever is found first.
func findTechnicMarker(root string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if filepath.Base(filepath.Dir(path)) == "bin" && (base == "modpack.jar" || base == "version.json") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", os.ErrNotExist
	}
	return found, nil
}
