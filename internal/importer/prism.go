package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launcherr"
)

// PrismImporter reads a Prism/MultiMC instance directory: instance.cfg
// (an INI-style key=value file, no section headers in the fields we
// care about) plus an optional mmc-pack.json component list and a
// .minecraft/ directory copied in as-is.
//
// No INI parsing library appears anywhere in the retrieval pack, so this
// hand-rolls the handful of key=value lines Prism actually writes.
type PrismImporter struct{}

func (PrismImporter) Format() Format { return FormatPrism }

func (PrismImporter) Detect(root string) bool {
	_, err := os.Stat(filepath.Join(root, "instance.cfg"))
	return err == nil
}

func (PrismImporter) Import(ctx context.Context, root string) (*ImportResult, error) {
	cfg, err := parseIniLike(filepath.Join(root, "instance.cfg"))
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "reading instance.cfg", err)
	}

	result := &ImportResult{
		Name:          cfg["name"],
		OverridesPath: firstExistingDir(root, ".minecraft", "minecraft"),
	}
	if result.Name == "" {
		result.Name = filepath.Base(root)
	}
	if secs, err := strconv.ParseInt(cfg["totalTimePlayed"], 10, 64); err == nil {
		result.Playtime = secondsToDuration(secs)
	}

	mcVersion, loaderType, loaderVersion, err := parseMMCPack(filepath.Join(root, "mmc-pack.json"))
	if err == nil {
		result.MinecraftVersion = mcVersion
		if loaderType != "" {
			result.ModLoader = &ModLoaderRef{Type: loaderType, Version: loaderVersion}
		}
	}

	return result, nil
}

// parseIniLike reads Prism's flat key=value config format. Prism's file
// has no [section] headers for the fields this importer reads, so lines
// starting with '[' are simply skipped rather than tracked as sections.
func parseIniLike(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, scanner.Err()
}

// mmcPack is the subset of mmc-pack.json's component list this importer
// needs: the Minecraft version and, if present, a mod loader component.
type mmcPack struct {
	Components []struct {
		UID     string `json:"uid"`
		Version string `json:"version"`
	} `json:"components"`
}

func parseMMCPack(path string) (mcVersion string, loaderType core.LoaderType, loaderVersion string, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", "", readErr
	}
	var pack mmcPack
	if jsonErr := json.Unmarshal(data, &pack); jsonErr != nil {
		return "", "", "", jsonErr
	}
	for _, c := range pack.Components {
		switch c.UID {
		case "net.minecraft":
			mcVersion = c.Version
		case "net.fabricmc.fabric-loader":
			loaderType, loaderVersion = core.LoaderFabric, c.Version
		case "net.minecraftforge":
			loaderType, loaderVersion = core.LoaderForge, c.Version
		case "org.quiltmc.quilt-loader":
			loaderType, loaderVersion = core.LoaderQuilt, c.Version
		case "net.neoforged":
			loaderType, loaderVersion = core.LoaderNeoForge, c.Version
		}
	}
	return mcVersion, loaderType, loaderVersion, nil
}
