// Package resolver fetches and caches Mojang's version manifest and
// per-version metadata, merging inheritsFrom chains into a single
// VersionData the library and launch pipelines consume.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/quasar/launchcore/internal/launcherr"
)

const versionManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// VersionKind is the release channel of a version.
type VersionKind string

const (
	KindRelease  VersionKind = "release"
	KindSnapshot VersionKind = "snapshot"
	KindOldBeta  VersionKind = "old_beta"
	KindOldAlpha VersionKind = "old_alpha"
)

// ManifestEntry is one row of the version manifest.
type ManifestEntry struct {
	ID          string      `json:"id"`
	Type        VersionKind `json:"type"`
	URL         string      `json:"url"`
	ReleaseTime time.Time   `json:"releaseTime"`
	SHA1        string      `json:"sha1"`
}

// Manifest is the root of Mojang's version manifest.
type Manifest struct {
	Latest   LatestVersions  `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

// LatestVersions names the newest release/snapshot IDs.
type LatestVersions struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// Resolver fetches and caches the manifest and per-version VersionData.
type Resolver struct {
	httpClient *http.Client

	manifest        *Manifest
	manifestFetched time.Time
	manifestTTL     time.Duration

	cacheRoot string
}

// New creates a Resolver whose per-version cache lives under
// <dataDir>/cache/versions.
func New(dataDir string) *Resolver {
	return &Resolver{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		manifestTTL: 5 * time.Minute,
		cacheRoot:   filepath.Join(dataDir, "cache", "versions"),
	}
}

// Manifest fetches (or returns a cached copy of) the version manifest.
func (r *Resolver) Manifest(ctx context.Context) (*Manifest, error) {
	if r.manifest != nil && time.Since(r.manifestFetched) < r.manifestTTL {
		return r.manifest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionManifestURL, nil)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindInvalidInput, "creating request", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "fetching manifest", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("manifest status %d", resp.StatusCode))
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding manifest", err)
	}

	r.manifest = &manifest
	r.manifestFetched = time.Now()
	return &manifest, nil
}

// LatestRelease returns the current release version ID.
func (r *Resolver) LatestRelease(ctx context.Context) (string, error) {
	m, err := r.Manifest(ctx)
	if err != nil {
		return "", err
	}
	return m.Latest.Release, nil
}

// LatestSnapshot returns the current snapshot version ID.
func (r *Resolver) LatestSnapshot(ctx context.Context) (string, error) {
	m, err := r.Manifest(ctx)
	if err != nil {
		return "", err
	}
	return m.Latest.Snapshot, nil
}

// FindEntry looks up a manifest entry by version ID.
func (r *Resolver) FindEntry(ctx context.Context, id string) (*ManifestEntry, error) {
	m, err := r.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range m.Versions {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, launcherr.New(launcherr.KindInvalidInput, fmt.Sprintf("version not found: %s", id))
}

func (r *Resolver) fetchVersionData(ctx context.Context, url string) (*VersionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindInvalidInput, "creating request", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "fetching version data", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("version data status %d", resp.StatusCode))
	}

	var vd VersionData
	if err := json.NewDecoder(resp.Body).Decode(&vd); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding version data", err)
	}
	return &vd, nil
}

// Resolve returns the fully merged VersionData for versionID, following
// inheritsFrom chains and disk-caching each fetched document. When offline
// is true, only the disk cache is consulted.
func (r *Resolver) Resolve(ctx context.Context, versionID string, offline bool) (*VersionData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offline {
		return r.loadMerged(versionID)
	}

	vd, err := r.resolveChain(ctx, versionID)
	if err != nil {
		if cached, cerr := r.loadMerged(versionID); cerr == nil {
			return cached, nil
		}
		return nil, err
	}
	_ = r.save(versionID, vd)
	return vd, nil
}

// resolveChain fetches versionID and, recursively, its inheritsFrom
// ancestor, merging child-over-parent per Mojang's semantics.
func (r *Resolver) resolveChain(ctx context.Context, versionID string) (*VersionData, error) {
	var vd *VersionData
	var err error

	if cached, cerr := r.load(versionID); cerr == nil {
		vd = cached
	} else {
		entry, ferr := r.FindEntry(ctx, versionID)
		if ferr != nil {
			return nil, ferr
		}
		vd, err = r.fetchVersionData(ctx, entry.URL)
		if err != nil {
			return nil, err
		}
		_ = r.save(versionID, vd)
	}

	if vd.InheritsFrom == "" {
		return vd, nil
	}

	parent, err := r.resolveChain(ctx, vd.InheritsFrom)
	if err != nil {
		return nil, err
	}

	return Merge(parent, vd), nil
}

func (r *Resolver) versionPath(versionID string) string {
	return filepath.Join(r.cacheRoot, versionID, versionID+".json")
}

func (r *Resolver) load(versionID string) (*VersionData, error) {
	data, err := os.ReadFile(r.versionPath(versionID))
	if err != nil {
		return nil, err
	}
	var vd VersionData
	if err := json.Unmarshal(data, &vd); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding cached version data", err)
	}
	return &vd, nil
}

func (r *Resolver) loadMerged(versionID string) (*VersionData, error) {
	vd, err := r.load(versionID)
	if err != nil {
		return nil, err
	}
	if vd.InheritsFrom == "" {
		return vd, nil
	}
	parent, err := r.loadMerged(vd.InheritsFrom)
	if err != nil {
		return nil, err
	}
	return Merge(parent, vd), nil
}

func (r *Resolver) save(versionID string, vd *VersionData) error {
	path := r.versionPath(versionID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(vd)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
