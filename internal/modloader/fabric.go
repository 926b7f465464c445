package modloader

import (
	"context"
	"fmt"

	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/resolver"
)

const (
	fabricMetaURL = "https://meta.fabricmc.net/v2/versions/loader/%s/%s/profile/json"
	quiltMetaURL  = "https://meta.quiltmc.org/v3/versions/loader/%s/%s/profile/json"
)

// FabricInstaller installs Fabric or Quilt, whose meta-servers both publish
// a ready-to-merge version profile keyed by Minecraft version and loader
// version — no processors, no install jar, just a document to fetch.
type FabricInstaller struct {
	librariesDir string
	quilt        bool
}

func (i *FabricInstaller) Loader() core.LoaderType {
	if i.quilt {
		return core.LoaderQuilt
	}
	return core.LoaderFabric
}

func (i *FabricInstaller) Install(ctx context.Context, mcVersion, loaderVersion, librariesDir string) (*Profile, error) {
	base := fabricMetaURL
	if i.quilt {
		base = quiltMetaURL
	}
	url := fmt.Sprintf(base, mcVersion, loaderVersion)

	var vd resolver.VersionData
	if err := fetchJSON(ctx, url, &vd); err != nil {
		return nil, err
	}

	return &Profile{
		LoaderVersionID: vd.ID,
		LauncherType:    LauncherStandard,
		Data:            &vd,
	}, nil
}
