package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/download"
	"github.com/quasar/launchcore/internal/launcherr"
)

// modrinthIndex mirrors a .mrpack's modrinth.index.json. Field names match
// the Modrinth pack format spec, a distinct document from the live
// Modrinth API's version-file JSON modeled in internal/platform.
type modrinthIndex struct {
	FormatVersion int    `json:"formatVersion"`
	Game          string `json:"game"`
	VersionID     string `json:"versionId"`
	Name          string `json:"name"`
	Summary       string `json:"summary"`
	Files         []struct {
		Path      string            `json:"path"`
		Hashes    map[string]string `json:"hashes"`
		Env       map[string]string `json:"env,omitempty"`
		Downloads []string          `json:"downloads"`
		FileSize  int64             `json:"fileSize"`
	} `json:"files"`
	Dependencies map[string]string `json:"dependencies"`
}

// ModrinthImporter reads a .mrpack directory (an extracted modrinth.index.json
// plus an overrides/ tree).
type ModrinthImporter struct{}

func (ModrinthImporter) Format() Format { return FormatModrinth }

func (ModrinthImporter) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "modrinth.index.json"))
	return err == nil
}

func (ModrinthImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	data, err := os.ReadFile(filepath.Join(root, "modrinth.index.json"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading modrinth.index.json", err)
	}

	var idx modrinthIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing modrinth.index.json", err)
	}

	result := &ImportResult{
		Name:             idx.Name,
		MinecraftVersion: idx.Dependencies["minecraft"],
		Notes:            idx.Summary,
		OverridesPath:    firstExistingDir(root, "overrides", "client-overrides"),
	}

	for loaderKey, loaderType := range map[string]core.LoaderType{
		"fabric-loader": core.LoaderFabric,
		"forge":         core.LoaderForge,
		"quilt-loader":  core.LoaderQuilt,
		"neoforge":      core.LoaderNeoForge,
	} {
		if v, ok := idx.Dependencies[loaderKey]; ok && v != "" {
			result.ModLoader = &ModLoaderRef{Type: loaderType, Version: v}
			break
		}
	}

	for _, f := range idx.Files {
		if len(f.Downloads) == 0 {
			continue
		}
		algo, hash := preferredHash(f.Hashes)
		result.FilesToDownload = append(result.FilesToDownload, download.Item{
			URL:      f.Downloads[0],
			Path:     filepath.Join(root, f.Path),
			Hash:     hash,
			HashAlgo: algo,
			Size:     f.FileSize,
		})
	}

	return result, nil
}

func preferredHash(hashes map[string]string) (download.HashAlgo, string) {
	if h, ok := hashes["sha512"]; ok {
		return download.HashSHA512, h
	}
	if h, ok := hashes["sha1"]; ok {
		return download.HashSHA1, h
	}
	return download.HashSHA1, ""
}
