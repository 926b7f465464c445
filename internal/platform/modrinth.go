package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchcore/internal/launcherr"
)

const (
	modrinthBaseURL = "https://api.modrinth.com/v2"
	userAgent       = "quasar/launchcore/1.0.0 (github.com/quasar/launchcore)"
)

// ModrinthClient implements Client against the Modrinth v2 API.
type ModrinthClient struct {
	http    *retryablehttp.Client
	baseURL string
}

func NewModrinthClient() *ModrinthClient {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.HTTPClient.Timeout = 30 * time.Second
	return &ModrinthClient{http: c, baseURL: modrinthBaseURL}
}

func (c *ModrinthClient) Source() Source { return SourceModrinth }

type modrinthSearchResponse struct {
	Hits      []modrinthHit `json:"hits"`
	Offset    int           `json:"offset"`
	Limit     int           `json:"limit"`
	TotalHits int           `json:"total_hits"`
}

type modrinthHit struct {
	ProjectID   string   `json:"project_id"`
	Slug        string   `json:"slug"`
	Author      string   `json:"author"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Versions    []string `json:"versions"`
	Downloads   int64    `json:"downloads"`
	IconURL     string   `json:"icon_url"`
	Categories  []string `json:"display_categories"`
}

func (c *ModrinthClient) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	if q.Text != "" {
		params.Set("query", q.Text)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if q.Offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", q.Offset))
	}

	var facets [][]string
	if q.ProjectType != "" {
		facets = append(facets, []string{"project_type:" + string(q.ProjectType)})
	}
	if q.Loader != "" {
		facets = append(facets, []string{"categories:" + q.Loader})
	}
	if q.GameVersion != "" {
		facets = append(facets, []string{"versions:" + q.GameVersion})
	}
	if len(facets) > 0 {
		fj, _ := json.Marshal(facets)
		params.Set("facets", string(fj))
	}

	var resp modrinthSearchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()), &resp); err != nil {
		return nil, err
	}

	out := &SearchResult{TotalHits: resp.TotalHits, NextOffset: resp.Offset + len(resp.Hits)}
	for _, h := range resp.Hits {
		out.Hits = append(out.Hits, SearchHit{
			Source:      SourceModrinth,
			ID:          h.ProjectID,
			Slug:        h.Slug,
			Title:       h.Title,
			Description: h.Description,
			Author:      h.Author,
			IconURL:     h.IconURL,
			Downloads:   h.Downloads,
			Loaders:     h.Categories,
		})
	}
	return out, nil
}

type modrinthProject struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon_url"`
	Downloads   int64    `json:"downloads"`
	Loaders     []string `json:"loaders"`
}

func (c *ModrinthClient) GetProject(ctx context.Context, idOrSlug string) (*Project, error) {
	var p modrinthProject
	if err := c.getJSON(ctx, fmt.Sprintf("%s/project/%s", c.baseURL, url.PathEscape(idOrSlug)), &p); err != nil {
		return nil, err
	}
	return &Project{
		Source:      SourceModrinth,
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		IconURL:     p.IconURL,
		Downloads:   p.Downloads,
		Loaders:     p.Loaders,
	}, nil
}

type modrinthVersion struct {
	ID           string                  `json:"id"`
	ProjectID    string                  `json:"project_id"`
	Name         string                  `json:"name"`
	GameVersions []string                `json:"game_versions"`
	Loaders      []string                `json:"loaders"`
	Published    time.Time               `json:"date_published"`
	Files        []modrinthVersionFile   `json:"files"`
}

type modrinthVersionFile struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

func (c *ModrinthClient) GetVersions(ctx context.Context, projectID string, gameVersions, loaders []string) ([]ProjectVersion, error) {
	params := url.Values{}
	if len(loaders) > 0 {
		lj, _ := json.Marshal(loaders)
		params.Set("loaders", string(lj))
	}
	if len(gameVersions) > 0 {
		gj, _ := json.Marshal(gameVersions)
		params.Set("game_versions", string(gj))
	}
	u := fmt.Sprintf("%s/project/%s/version", c.baseURL, url.PathEscape(projectID))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var versions []modrinthVersion
	if err := c.getJSON(ctx, u, &versions); err != nil {
		return nil, err
	}
	return toProjectVersions(versions), nil
}

func (c *ModrinthClient) GetVersion(ctx context.Context, versionID string) (*ProjectVersion, error) {
	var v modrinthVersion
	if err := c.getJSON(ctx, fmt.Sprintf("%s/version/%s", c.baseURL, url.PathEscape(versionID)), &v); err != nil {
		return nil, err
	}
	out := toProjectVersions([]modrinthVersion{v})
	return &out[0], nil
}

func toProjectVersions(versions []modrinthVersion) []ProjectVersion {
	out := make([]ProjectVersion, 0, len(versions))
	for _, v := range versions {
		pv := ProjectVersion{
			ID:           v.ID,
			ProjectID:    v.ProjectID,
			Name:         v.Name,
			GameVersions: v.GameVersions,
			Loaders:      v.Loaders,
			Released:     v.Published,
		}
		for _, f := range v.Files {
			var hashes []FileHash
			for algo, val := range f.Hashes {
				hashes = append(hashes, FileHash{Algo: algo, Value: val})
			}
			pv.Files = append(pv.Files, ProjectFile{
				Filename: f.Filename,
				URL:      f.URL,
				Size:     f.Size,
				Hashes:   hashes,
				Primary:  f.Primary,
			})
		}
		out = append(out, pv)
	}
	return out
}

func (c *ModrinthClient) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return launcherr.Wrap(launcherr.KindNetwork, "modrinth request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return launcherr.New(launcherr.KindRemoteRejected, "not found on modrinth")
	}
	if resp.StatusCode != 200 {
		return launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("modrinth returned status %d", resp.StatusCode))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
