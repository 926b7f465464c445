// Package library turns a resolved version document into the concrete
// files a launch needs: a filtered, deduplicated classpath, extracted
// native libraries, and the asset store under assets/objects.
package library

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/quasar/launchcore/internal/download"
	"github.com/quasar/launchcore/internal/launcherr"
	"github.com/quasar/launchcore/internal/resolver"
	"github.com/quasar/launchcore/internal/rules"
)

// natives-classifier artifacts that ship real platform code but must never
// land on the classpath: they are extracted, not loaded as a jar.
var nativesOnlySuffixes = []string{
	"-natives-windows", "-natives-linux", "-natives-macos", "-natives-osx",
	"-natives-windows-x86", "-natives-linux-x86", "-natives-macos-x86",
	"natives-windows", "natives-linux", "natives-osx", "natives-macos",
}

// namedNativesOnlyArtifacts lists the handful of artifacts bundled purely
// for their native code that are identified by artifact name rather than
// classifier (LWJGL's twitch integration jars are the known bestiary).
var namedNativesOnlyArtifacts = map[string]bool{
	"twitch-platform":          true,
	"twitch-external-platform": true,
}

// Coordinate is a parsed Maven-style library name: group:artifact:version[:classifier][@ext].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Ext        string
}

// ParseCoordinate splits a Maven coordinate string into its parts.
func ParseCoordinate(name string) (Coordinate, error) {
	ext := "jar"
	if at := strings.LastIndex(name, "@"); at != -1 {
		ext = name[at+1:]
		name = name[:at]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return Coordinate{}, launcherr.New(launcherr.KindInvalidInput, "invalid maven coordinate: "+name)
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Ext: ext}
	if len(parts) >= 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Path returns the injective maven-repository-relative path for the
// coordinate: <group-with-slashes>/<artifact>/<version>/<artifact>-<version>[-classifier].<ext>
func (c Coordinate) Path() string {
	groupPath := strings.ReplaceAll(c.Group, ".", "/")
	fileName := fmt.Sprintf("%s-%s", c.Artifact, c.Version)
	if c.Classifier != "" {
		fileName += "-" + c.Classifier
	}
	fileName += "." + c.Ext
	return fmt.Sprintf("%s/%s/%s/%s", groupPath, c.Artifact, c.Version, fileName)
}

// IsNativesOnly reports whether a coordinate identifies a natives-only
// artifact that must be extracted rather than classpath-linked: either its
// classifier marks it as a per-OS natives bundle, or its artifact name ends
// in "-platform" or names one of the known twitch-platform jars.
func (c Coordinate) IsNativesOnly() bool {
	for _, suffix := range nativesOnlySuffixes {
		if strings.HasSuffix(c.Classifier, suffix) || strings.Contains(c.Classifier, "natives") {
			return true
		}
	}
	if strings.HasSuffix(c.Artifact, "-platform") || namedNativesOnlyArtifacts[c.Artifact] {
		return true
	}
	return false
}

// Selected is one library resolved against the current platform: its local
// jar path, and whether it is a classpath entry or a natives bundle.
type Selected struct {
	Library    resolver.Library
	Coordinate Coordinate
	LocalPath  string
	IsNatives  bool
}

// Select filters a version's libraries against env, resolving each
// surviving entry's local path under librariesDir. Entries disallowed by
// their rule list are dropped entirely.
func Select(libs []resolver.Library, env rules.Env, librariesDir string) ([]Selected, error) {
	var out []Selected
	for _, lib := range libs {
		if len(lib.Rules) > 0 && !rules.Applies(resolver.ToEngineRules(lib.Rules), env) {
			continue
		}

		coord, err := ParseCoordinate(lib.Name)
		if err != nil {
			return nil, err
		}

		if nativeKey, ok := lib.Natives[env.OSName]; ok && nativeKey != "" {
			nativeKey = strings.ReplaceAll(nativeKey, "${arch}", archBits(env.OSArch))
			nc := coord
			nc.Classifier = nativeKey
			path := artifactPath(lib, nc, librariesDir)
			out = append(out, Selected{Library: lib, Coordinate: nc, LocalPath: path, IsNatives: true})
			continue
		}

		isNatives := coord.IsNativesOnly()
		path := artifactPath(lib, coord, librariesDir)
		out = append(out, Selected{Library: lib, Coordinate: coord, LocalPath: path, IsNatives: isNatives})
	}
	return out, nil
}

func archBits(arch string) string {
	if arch == "x86" {
		return "32"
	}
	return "64"
}

func artifactPath(lib resolver.Library, coord Coordinate, librariesDir string) string {
	if lib.Downloads != nil {
		if coord.Classifier != "" && lib.Downloads.Classifiers != nil {
			if art, ok := lib.Downloads.Classifiers[coord.Classifier]; ok && art.Path != "" {
				return filepath.Join(librariesDir, filepath.FromSlash(art.Path))
			}
		}
		if coord.Classifier == "" && lib.Downloads.Artifact != nil && lib.Downloads.Artifact.Path != "" {
			return filepath.Join(librariesDir, filepath.FromSlash(lib.Downloads.Artifact.Path))
		}
	}
	return filepath.Join(librariesDir, filepath.FromSlash(coord.Path()))
}

// DownloadTasks builds the download.Task list for a selection, skipping
// entries whose source URL cannot be determined (legacy loader libraries
// with no explicit download block resolve their own URL via lib.URL).
func DownloadTasks(selected []Selected) []download.Task {
	var tasks []download.Task
	for _, s := range selected {
		url, sha1, size := resolveSource(s)
		if url == "" {
			continue
		}
		tasks = append(tasks, download.Task{
			URL:      url,
			Path:     s.LocalPath,
			Hash:     sha1,
			HashAlgo: download.HashSHA1,
			Size:     size,
		})
	}
	return tasks
}

func resolveSource(s Selected) (url, sha1 string, size int64) {
	lib := s.Library
	if lib.Downloads != nil {
		if s.Coordinate.Classifier != "" && lib.Downloads.Classifiers != nil {
			if art, ok := lib.Downloads.Classifiers[s.Coordinate.Classifier]; ok {
				return art.URL, art.SHA1, art.Size
			}
		}
		if s.Coordinate.Classifier == "" && lib.Downloads.Artifact != nil {
			return lib.Downloads.Artifact.URL, lib.Downloads.Artifact.SHA1, lib.Downloads.Artifact.Size
		}
	}
	base := lib.URL
	if base == "" {
		base = "https://libraries.minecraft.net/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + s.Coordinate.Path(), "", 0
}

// Classpath assembles the classpath entries for a launch: loaderLibs first
// (in document order, mod-loader before vanilla), then vanilla selected
// libraries, then the client jar, deduplicating by local path and keeping
// the first occurrence.
func Classpath(loaderLibs, vanillaLibs []Selected, clientJarPath string) []string {
	seen := make(map[string]bool)
	var cp []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		cp = append(cp, path)
	}
	for _, s := range loaderLibs {
		if !s.IsNatives {
			add(s.LocalPath)
		}
	}
	for _, s := range vanillaLibs {
		if !s.IsNatives {
			add(s.LocalPath)
		}
	}
	add(clientJarPath)
	return cp
}

// ExtractNatives unpacks every natives-classified jar in selected into
// destDir, honoring each library's extract.exclude list and skipping
// META-INF. Returns the count of files extracted.
func ExtractNatives(selected []Selected, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, launcherr.Wrap(launcherr.KindIO, "creating natives dir", err)
	}

	count := 0
	for _, s := range selected {
		if !s.IsNatives {
			continue
		}
		n, err := extractJar(s.LocalPath, destDir, excludesFor(s.Library))
		if err != nil {
			return count, launcherr.Wrap(launcherr.KindIO, "extracting natives from "+s.LocalPath, err)
		}
		count += n
	}
	return count, nil
}

func excludesFor(lib resolver.Library) []string {
	if lib.Extract == nil {
		return nil
	}
	return lib.Extract.Exclude
}

func extractJar(jarPath, destDir string, excludes []string) (int, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	extracted := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if excluded(f.Name, excludes) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return extracted, err
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		// Preserve the zip entry's mode (notably the executable bit on
		// Unix) instead of letting os.Create fall back to 0666.
		out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return extracted, err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

func excluded(name string, excludes []string) bool {
	for _, prefix := range excludes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// AssetIndex is the document an AssetIndexRef points at: a flat map of
// virtual asset paths to content hashes.
type AssetIndex struct {
	ID             string `json:"-"` // the version's asset index id, stamped by FetchAssetIndex
	MapToResources bool   `json:"map_to_resources"`
	Virtual        bool   `json:"virtual"`
	Objects        map[string]struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	} `json:"objects"`
}

const assetResourceBaseURL = "https://resources.download.minecraft.net"

// FetchAssetIndex downloads and parses the asset index document for a
// version, caching it under assetsDir/indexes/<id>.json.
func FetchAssetIndex(ctx context.Context, ref resolver.AssetIndexRef, assetsDir string) (*AssetIndex, error) {
	indexPath := filepath.Join(assetsDir, "indexes", ref.ID+".json")

	if data, err := os.ReadFile(indexPath); err == nil {
		var idx AssetIndex
		if err := json.Unmarshal(data, &idx); err == nil {
			idx.ID = ref.ID
			return &idx, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindInvalidInput, "creating request", err)
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "fetching asset index", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("asset index status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "reading asset index", err)
	}

	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, launcherr.Wrap(launcherr.KindParse, "decoding asset index", err)
	}
	idx.ID = ref.ID

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "creating asset index dir", err)
	}
	_ = os.WriteFile(indexPath, data, 0644)

	return &idx, nil
}

// AssetDownloadTasks builds the content-addressed download.Task list for
// an asset index. It builds no per-name copies: those are made afterwards
// by PopulateLegacyAssets, for virtual indexes only.
func AssetDownloadTasks(idx *AssetIndex, assetsDir string) []download.Task {
	var tasks []download.Task
	for _, obj := range idx.Objects {
		prefix := obj.Hash[:2]
		path := filepath.Join(assetsDir, "objects", prefix, obj.Hash)
		tasks = append(tasks, download.Task{
			URL:      fmt.Sprintf("%s/%s/%s", assetResourceBaseURL, prefix, obj.Hash),
			Path:     path,
			Hash:     obj.Hash,
			HashAlgo: download.HashSHA1,
			Size:     obj.Size,
		})
	}
	return tasks
}

// PopulateLegacyAssets copies content-addressed objects into their
// human-readable names under virtual/<index_id> (pre-1.7.10) when the index
// requests it.
func PopulateLegacyAssets(idx *AssetIndex, assetsDir string) error {
	if !idx.Virtual {
		return nil
	}
	indexID := idx.ID
	if indexID == "" {
		indexID = "legacy"
	}
	legacyDir := filepath.Join(assetsDir, "virtual", indexID)
	for name, obj := range idx.Objects {
		src := filepath.Join(assetsDir, "objects", obj.Hash[:2], obj.Hash)
		dst := filepath.Join(legacyDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
