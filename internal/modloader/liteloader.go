package modloader

import (
	"context"
	"fmt"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/library"
	"github.com/quasar/launchcore/internal/resolver"
)

const liteLoaderVersionsURL = "https://dl.liteloader.com/versions/versions.json"

type liteLoaderVersions struct {
	Versions map[string]struct {
		Artefacts struct {
			ComMumfrexLiteloader map[string]struct {
				Version string `json:"version"`
				File    string `json:"file"`
				MD5     string `json:"md5"`
				Tweak   string `json:"tweakClass"`
				Libs    []struct {
					Name string `json:"name"`
					URL  string `json:"url,omitempty"`
				} `json:"libraries"`
			} `json:"com.mumfrex:liteloader"`
		} `json:"artefacts"`
	} `json:"versions"`
}

// LiteLoaderInstaller registers LiteLoader as a tweaker on top of vanilla,
// grounded on the same "fetch a meta document, translate to libraries +
// tweak class" shape as Fabric, since LiteLoader publishes its own
// versions.json rather than a Forge-style processor-driven installer.
type LiteLoaderInstaller struct {
	librariesDir string
}

func (i *LiteLoaderInstaller) Loader() core.LoaderType { return core.LoaderLite }

func (i *LiteLoaderInstaller) Install(ctx context.Context, mcVersion, loaderVersion, librariesDir string) (*Profile, error) {
	var versions liteLoaderVersions
	if err := fetchJSON(ctx, liteLoaderVersionsURL, &versions); err != nil {
		return nil, err
	}

	mcEntry, ok := versions.Versions[mcVersion]
	if !ok {
		return nil, fmt.Errorf("no liteloader build for minecraft %s", mcVersion)
	}
	build, ok := mcEntry.Artefacts.ComMumfrexLiteloader[loaderVersion]
	if !ok {
		// "latest" is the conventional alias LiteLoader's feed publishes
		// when a caller doesn't pin an exact build.
		build, ok = mcEntry.Artefacts.ComMumfrexLiteloader["latest"]
		if !ok {
			return nil, fmt.Errorf("no liteloader build %q for minecraft %s", loaderVersion, mcVersion)
		}
	}

	liteCoord, err := library.ParseCoordinate(fmt.Sprintf("com.mumfrex:liteloader:%s", build.Version))
	if err != nil {
		return nil, err
	}

	vd := &resolver.VersionData{
		ID: fmt.Sprintf("%s-liteloader-%s", mcVersion, build.Version),
		Libraries: []resolver.Library{{
			Name: liteCoord.Group + ":" + liteCoord.Artifact + ":" + liteCoord.Version,
			URL:  "https://dl.liteloader.com/versions/",
		}},
	}
	for _, lib := range build.Libs {
		vd.Libraries = append(vd.Libraries, resolver.Library{Name: lib.Name, URL: lib.URL})
	}

	tweak := build.Tweak
	if tweak == "" {
		tweak = "com.mumfrex.liteloader.launch.LiteLoaderTweaker"
	}

	return &Profile{
		LoaderVersionID: vd.ID,
		LauncherType:    LauncherTweaker,
		TweakClass:      tweak,
		Data:            vd,
	}, nil
}
