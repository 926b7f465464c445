package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/download"
	"github.com/quasar/launchcore/internal/launcherr"
	"github.com/quasar/launchcore/internal/platform"
)

// cfManifest mirrors a CurseForge modpack's manifest.json. Unlike the
// Modrinth pack format, file entries only carry a {projectId, fileId}
// pair; the actual download URL must be resolved through the CurseForge
// API at import time (CurseForge manifests omit direct URLs by policy).
type cfManifest struct {
	Minecraft struct {
		Version    string `json:"version"`
		ModLoaders []struct {
			ID      string `json:"id"`
			Primary bool   `json:"primary"`
		} `json:"modLoaders"`
	} `json:"minecraft"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Author    string `json:"author"`
	Overrides string `json:"overrides"`
	Files     []struct {
		ProjectID int  `json:"projectID"`
		FileID    int  `json:"fileID"`
		Required  bool `json:"required"`
	} `json:"files"`
}

// CurseForgeImporter reads a CurseForge modpack directory (manifest.json
// plus an overrides/ tree). Resolving mod file URLs requires a CurseForge
// API client; Client may be left nil to import metadata only, leaving
// FilesToDownload empty.
type CurseForgeImporter struct {
	Client *platform.CurseForgeClient
}

func (CurseForgeImporter) Format() Format { return FormatCurseForge }

func (CurseForgeImporter) Detect(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "manifest.json"))
	if err != nil {
		return false
	}
	var probe struct {
		Minecraft struct {
			ModLoaders []struct{} `json:"modLoaders"`
		} `json:"minecraft"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Minecraft.ModLoaders != nil
}

func (imp *CurseForgeImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	data, err := os.ReadFile(filepath.Join(root, "manifest.json"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading manifest.json", err)
	}

	var mf cfManifest
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "parsing manifest.json", err)
	}

	result := &ImportResult{
		Name:             mf.Name,
		MinecraftVersion: mf.Minecraft.Version,
		OverridesPath:    firstExistingDir(root, mf.Overrides, "overrides"),
	}

	for _, l := range mf.Minecraft.ModLoaders {
		loaderType, version := curseforgeLoaderType(l.ID)
		result.ModLoader = &ModLoaderRef{Type: loaderType, Version: version}
		if l.Primary {
			break
		}
	}

	if imp.Client != nil {
		for _, f := range mf.Files {
			pv, err := imp.Client.GetVersion(ctx, fmt.Sprintf("%d", f.FileID))
			if err != nil {
				if f.Required {
					return nil, launcherr.Wrap(launcherr.KindNetwork, "resolving curseforge file", err)
				}
				continue
			}
			for _, file := range pv.Files {
				if !file.Primary && len(pv.Files) > 1 {
					continue
				}
				algo, hash := firstFileHash(file.Hashes)
				result.FilesToDownload = append(result.FilesToDownload, download.Item{
					URL:      file.URL,
					Path:     filepath.Join(root, "mods", file.Filename),
					Hash:     hash,
					HashAlgo: algo,
					Size:     file.Size,
				})
			}
		}
	}

	return result, nil
}

// curseforgeLoaderType splits a manifest modLoaders[].id like
// "forge-47.2.0" into its loader family and version.
func curseforgeLoaderType(id string) (core.LoaderType, string) {
	name, version := splitLoaderVersion(id)
	switch name {
	case "fabric":
		return core.LoaderFabric, version
	case "quilt":
		return core.LoaderQuilt, version
	case "neoforge":
		return core.LoaderNeoForge, version
	default:
		return core.LoaderForge, version
	}
}

func firstFileHash(hashes []platform.FileHash) (download.HashAlgo, string) {
	for _, h := range hashes {
		switch h.Algo {
		case "sha1":
			return download.HashSHA1, h.Value
		case "sha256":
			return download.HashSHA256, h.Value
		}
	}
	return download.HashSHA1, ""
}
