// Package platform unifies mod/modpack discovery across Modrinth and
// CurseForge behind a single client interface.
package platform

import (
	"context"
	"fmt"
	"time"
)

// Source identifies which backend a search hit or project came from.
type Source string

const (
	SourceModrinth   Source = "modrinth"
	SourceCurseForge Source = "curseforge"
)

// ProjectType narrows a search to a content kind.
type ProjectType string

const (
	ProjectMod          ProjectType = "mod"
	ProjectModpack      ProjectType = "modpack"
	ProjectResourcePack ProjectType = "resourcepack"
	ProjectShader       ProjectType = "shader"
)

// SearchQuery is the source-agnostic search request.
type SearchQuery struct {
	Text        string
	ProjectType ProjectType
	GameVersion string
	Loader      string
	Offset      int
	Limit       int
}

// SearchHit is a single source-agnostic search result.
type SearchHit struct {
	Source      Source
	ID          string
	Slug        string
	Title       string
	Description string
	Author      string
	IconURL     string
	Downloads   int64
	GameVersion []string
	Loaders     []string
}

// SearchResult wraps a page of hits with basic pagination info.
type SearchResult struct {
	Hits       []SearchHit
	TotalHits  int
	NextOffset int
}

// FileHash identifies a checksum algorithm/value pair attached to a file.
type FileHash struct {
	Algo  string
	Value string
}

// ProjectFile is a single downloadable artifact for a project version.
type ProjectFile struct {
	Filename string
	URL      string
	Size     int64
	Hashes   []FileHash
	Primary  bool
}

// ProjectVersion is a source-agnostic release of a project.
type ProjectVersion struct {
	ID           string
	ProjectID    string
	Name         string
	GameVersions []string
	Loaders      []string
	Released     time.Time
	Files        []ProjectFile
}

// Project is a source-agnostic mod/modpack/resource-pack listing.
type Project struct {
	Source      Source
	ID          string
	Slug        string
	Title       string
	Description string
	IconURL     string
	Downloads   int64
	Loaders     []string
}

// Client is implemented by each platform's backend adapter.
type Client interface {
	Source() Source
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
	GetProject(ctx context.Context, idOrSlug string) (*Project, error)
	GetVersions(ctx context.Context, projectID string, gameVersions []string, loaders []string) ([]ProjectVersion, error)
	GetVersion(ctx context.Context, versionID string) (*ProjectVersion, error)
}

// Aggregator fans a search out across every registered backend and merges
// the results, source intact on each hit so callers can route downloads
// back to the right client.
type Aggregator struct {
	clients []Client
}

func NewAggregator(clients ...Client) *Aggregator {
	return &Aggregator{clients: clients}
}

func (a *Aggregator) ClientFor(src Source) Client {
	for _, c := range a.clients {
		if c.Source() == src {
			return c
		}
	}
	return nil
}

// Search queries every backend concurrently and concatenates hits. A
// backend error is swallowed into an empty result for that source rather
// than failing the whole search, since the user still wants whatever
// other sources returned.
func (a *Aggregator) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	type partial struct {
		hits  []SearchHit
		total int
	}
	results := make(chan partial, len(a.clients))

	for _, c := range a.clients {
		go func(c Client) {
			res, err := c.Search(ctx, q)
			if err != nil || res == nil {
				results <- partial{}
				return
			}
			results <- partial{hits: res.Hits, total: res.TotalHits}
		}(c)
	}

	merged := &SearchResult{}
	for range a.clients {
		p := <-results
		merged.Hits = append(merged.Hits, p.hits...)
		merged.TotalHits += p.total
	}
	return merged, nil
}

// FormatDownloads renders a download count the way both platform cards do:
// 1.2M, 340.5K, or the bare number under a thousand.
func FormatDownloads(count int64) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return fmt.Sprintf("%d", count)
	}
}
