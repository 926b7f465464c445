package java

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchcore/internal/launcherr"
)

// Downloader handles downloading Java runtimes from Adoptium
type Downloader struct {
	client *retryablehttp.Client
}

// NewDownloader creates a new Java downloader
func NewDownloader() *Downloader {
	client := retryablehttp.NewClient()
	client.Logger = nil // specific logger can be added if needed
	return &Downloader{
		client: client,
	}
}

// adoptiumRelease is the subset of Adoptium's feature_releases response this
// downloader needs: the release's vendor/version triple, used to name the
// extraction directory, plus the binary package to fetch.
type adoptiumRelease struct {
	Vendor  string `json:"vendor"`
	Version struct {
		Major int `json:"major"`
		Minor int `json:"minor"`
	} `json:"version"`
	Binaries []struct {
		Package struct {
			Link     string `json:"link"`
			Name     string `json:"name"`
			Checksum string `json:"checksum"`
		} `json:"package"`
	} `json:"binaries"`
}

// DownloadRuntime downloads and extracts the requested Java version into
// <destBaseDir>/<vendor-lowercased>-<major>-<minor>/, returning the probed
// Installation for the extracted runtime.
func (d *Downloader) DownloadRuntime(ctx context.Context, version int, destBaseDir string, progressCb func(string)) (*Installation, error) {
	// 1. Resolve release metadata
	progressCb(fmt.Sprintf("Resolving Java %d...", version))
	rel, err := d.resolveAdoptiumRelease(ctx, version)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "resolving java version", err)
	}
	if len(rel.Binaries) == 0 || rel.Binaries[0].Package.Link == "" {
		return nil, launcherr.New(launcherr.KindNetwork, fmt.Sprintf("no downloadable binary for java %d", version))
	}
	pkg := rel.Binaries[0].Package

	vendor := rel.Vendor
	if vendor == "" {
		vendor = "eclipse"
	}

	// 2. Prepare paths: <data>/java/<vendor>-<major>-<minor>/
	runtimeDirName := fmt.Sprintf("%s-%d-%d", strings.ToLower(vendor), rel.Version.Major, rel.Version.Minor)
	runtimeDir := filepath.Join(destBaseDir, runtimeDirName)
	if err := os.MkdirAll(runtimeDir, 0755); err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "creating runtime dir", err)
	}

	downloadPath := filepath.Join(runtimeDir, pkg.Name)

	// 3. Download
	progressCb(fmt.Sprintf("Downloading Java %d...", version))
	if err := d.downloadFile(ctx, pkg.Link, downloadPath); err != nil {
		return nil, launcherr.Wrap(launcherr.KindNetwork, "downloading java runtime", err)
	}
	defer os.Remove(downloadPath) // Clean up archive

	// 4. Extract
	progressCb("Extracting Java runtime...")
	if err := d.extractArchive(downloadPath, runtimeDir); err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "extracting archive", err)
	}

	// 5. Locate the extracted java binary and probe it the same way
	// detection does, so callers get a fully-populated Installation.
	javaPath, err := d.FindJavaExecutable(runtimeDir)
	if err != nil {
		return nil, launcherr.Wrap(launcherr.KindIO, "locating extracted java binary", err)
	}

	inst := probeJava(javaPath)
	if inst == nil {
		return nil, launcherr.New(launcherr.KindIO, "extracted java binary failed to run: "+javaPath)
	}
	inst.IsManaged = true
	if inst.Vendor == "" {
		inst.Vendor = vendor
	}
	return inst, nil
}

func (d *Downloader) resolveAdoptiumRelease(ctx context.Context, version int) (*adoptiumRelease, error) {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "mac"
	}

	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x64"
	} else if arch == "arm64" {
		arch = "aarch64"
	}

	url := fmt.Sprintf("https://api.adoptium.net/v3/assets/feature_releases/%d/ga?architecture=%s&heap_size=normal&image_type=jre&jvm_impl=hotspot&os=%s&page=0&page_size=1&project=jdk&sort_method=DEFAULT&sort_order=DESC&vendor=eclipse", version, arch, osName)

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var releases []adoptiumRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, err
	}

	if len(releases) == 0 {
		return nil, fmt.Errorf("no releases found for java %d on %s/%s", version, osName, arch)
	}

	return &releases[0], nil
}

func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	// Just a simple copy for now, could add progress tracking wrapper if needed
	_, err = io.Copy(f, resp.Body)
	return err
}

func (d *Downloader) extractArchive(src, dest string) error {
	if strings.HasSuffix(src, ".zip") {
		return d.extractZip(src, dest)
	}
	return d.extractTarGz(src, dest)
}

func (d *Downloader) extractTarGz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	// We strip the top-level directory to keep things clean
	// Common loop
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		// Strip first component: jdk-21.0.4/... -> ...
		parts := strings.Split(header.Name, string(os.PathSeparator))
		if len(parts) <= 1 {
			continue
		}
		// logic to strip top folder usually:
		relPath := strings.Join(parts[1:], string(os.PathSeparator))
		if relPath == "" {
			continue
		}

		target := filepath.Join(dest, relPath)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		case tar.TypeSymlink:
			// Handle symlinks on unix
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Symlink(header.Linkname, target)
		}
	}
	return nil
}

func (d *Downloader) extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		// Strip first component logic
		parts := strings.Split(f.Name, "/") // zip uses forward slash
		if len(parts) <= 1 {
			continue
		}
		relPath := strings.Join(parts[1:], string(os.PathSeparator))
		if relPath == "" {
			continue
		}

		target := filepath.Join(dest, relPath)

		if f.FileInfo().IsDir() {
			os.MkdirAll(target, 0755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}
		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
	}
	return nil
}

func (d *Downloader) FindJavaExecutable(dir string) (string, error) {
	// Look for bin/java or bin/java.exe
	binName := "java"
	if runtime.GOOS == "windows" {
		binName = "java.exe"
	}

	var foundPath string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if foundPath != "" {
			return filepath.SkipDir
		}
		if info.Name() == binName {
			// Check if it's in a bin folder to avoid other java files
			if filepath.Base(filepath.Dir(path)) == "bin" {
				foundPath = path
				return filepath.SkipDir
			}
		}
		return nil
	})

	if foundPath != "" {
		return foundPath, nil
	}
	return "", fmt.Errorf("java executable not found in %s", dir)
}
