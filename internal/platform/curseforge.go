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

const curseforgeBaseURL = "https://api.curseforge.com/v1"

// curseforgeClassID maps a ProjectType to the CurseForge game-class ID
// used by the v1 API (Minecraft game ID 432).
var curseforgeClassID = map[ProjectType]int{
	ProjectMod:          6,
	ProjectModpack:      4471,
	ProjectResourcePack: 12,
	ProjectShader:       6552,
}

// CurseForgeClient implements Client against the CurseForge v1 API. It
// requires an API key issued to the consuming application.
type CurseForgeClient struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
}

func NewCurseForgeClient(apiKey string) *CurseForgeClient {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.HTTPClient.Timeout = 30 * time.Second
	return &CurseForgeClient{http: c, baseURL: curseforgeBaseURL, apiKey: apiKey}
}

func (c *CurseForgeClient) Source() Source { return SourceCurseForge }

type cfSearchResponse struct {
	Data       []cfMod `json:"data"`
	Pagination struct {
		TotalCount int `json:"totalCount"`
		Index      int `json:"index"`
	} `json:"pagination"`
}

type cfMod struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Summary     string `json:"summary"`
	DownloadCnt int64  `json:"downloadCount"`
	Logo        struct {
		URL string `json:"url"`
	} `json:"logo"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	LatestFilesIndexes []struct {
		GameVersion string `json:"gameVersion"`
		ModLoader   int    `json:"modLoader"`
	} `json:"latestFilesIndexes"`
}

func (c *CurseForgeClient) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	params.Set("gameId", "432")
	if classID, ok := curseforgeClassID[q.ProjectType]; ok {
		params.Set("classId", fmt.Sprintf("%d", classID))
	}
	if q.Text != "" {
		params.Set("searchFilter", q.Text)
	}
	if q.GameVersion != "" {
		params.Set("gameVersion", q.GameVersion)
	}
	if q.Loader != "" {
		params.Set("modLoaderType", fmt.Sprintf("%d", curseforgeLoaderID(q.Loader)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	params.Set("pageSize", fmt.Sprintf("%d", limit))
	if q.Offset > 0 {
		params.Set("index", fmt.Sprintf("%d", q.Offset))
	}

	var resp cfSearchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/mods/search?%s", c.baseURL, params.Encode()), &resp); err != nil {
		return nil, err
	}

	out := &SearchResult{TotalHits: resp.Pagination.TotalCount, NextOffset: resp.Pagination.Index + len(resp.Data)}
	for _, m := range resp.Data {
		hit := SearchHit{
			Source:      SourceCurseForge,
			ID:          fmt.Sprintf("%d", m.ID),
			Slug:        m.Slug,
			Title:       m.Name,
			Description: m.Summary,
			IconURL:     m.Logo.URL,
			Downloads:   m.DownloadCnt,
		}
		if len(m.Authors) > 0 {
			hit.Author = m.Authors[0].Name
		}
		for _, idx := range m.LatestFilesIndexes {
			hit.GameVersion = append(hit.GameVersion, idx.GameVersion)
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

type cfModResponse struct {
	Data cfMod `json:"data"`
}

func (c *CurseForgeClient) GetProject(ctx context.Context, idOrSlug string) (*Project, error) {
	var resp cfModResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/mods/%s", c.baseURL, idOrSlug), &resp); err != nil {
		return nil, err
	}
	m := resp.Data
	return &Project{
		Source:      SourceCurseForge,
		ID:          fmt.Sprintf("%d", m.ID),
		Slug:        m.Slug,
		Title:       m.Name,
		Description: m.Summary,
		IconURL:     m.Logo.URL,
		Downloads:   m.DownloadCnt,
	}, nil
}

type cfFilesResponse struct {
	Data []cfFile `json:"data"`
}

type cfFile struct {
	ID           int      `json:"id"`
	ModID        int      `json:"modId"`
	DisplayName  string   `json:"displayName"`
	FileName     string   `json:"fileName"`
	FileDate     string   `json:"fileDate"`
	FileLength   int64    `json:"fileLength"`
	DownloadURL  string   `json:"downloadUrl"`
	GameVersions []string `json:"gameVersions"`
	Hashes       []struct {
		Value string `json:"value"`
		Algo  int    `json:"algo"` // 1 = sha1, 2 = md5
	} `json:"hashes"`
}

func (c *CurseForgeClient) GetVersions(ctx context.Context, projectID string, gameVersions, loaders []string) ([]ProjectVersion, error) {
	params := url.Values{}
	if len(gameVersions) > 0 {
		params.Set("gameVersion", gameVersions[0])
	}
	if len(loaders) > 0 {
		params.Set("modLoaderType", fmt.Sprintf("%d", curseforgeLoaderID(loaders[0])))
	}
	u := fmt.Sprintf("%s/mods/%s/files", c.baseURL, projectID)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var resp cfFilesResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return toCurseForgeVersions(projectID, resp.Data), nil
}

func (c *CurseForgeClient) GetVersion(ctx context.Context, versionID string) (*ProjectVersion, error) {
	var resp struct {
		Data cfFile `json:"data"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/mods/files/%s", c.baseURL, versionID), &resp); err != nil {
		return nil, err
	}
	out := toCurseForgeVersions(fmt.Sprintf("%d", resp.Data.ModID), []cfFile{resp.Data})
	return &out[0], nil
}

func toCurseForgeVersions(projectID string, files []cfFile) []ProjectVersion {
	out := make([]ProjectVersion, 0, len(files))
	for _, f := range files {
		released, _ := time.Parse(time.RFC3339, f.FileDate)
		pv := ProjectVersion{
			ID:           fmt.Sprintf("%d", f.ID),
			ProjectID:    projectID,
			Name:         f.DisplayName,
			GameVersions: f.GameVersions,
			Released:     released,
			Files: []ProjectFile{{
				Filename: f.FileName,
				URL:      f.DownloadURL,
				Size:     f.FileLength,
				Primary:  true,
			}},
		}
		for _, h := range f.Hashes {
			algo := "md5"
			if h.Algo == 1 {
				algo = "sha1"
			}
			pv.Files[0].Hashes = append(pv.Files[0].Hashes, FileHash{Algo: algo, Value: h.Value})
		}
		out = append(out, pv)
	}
	return out
}

func curseforgeLoaderID(loader string) int {
	switch loader {
	case "forge":
		return 1
	case "fabric":
		return 4
	case "quilt":
		return 5
	case "neoforge":
		return 6
	default:
		return 0
	}
}

func (c *CurseForgeClient) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return launcherr.Wrap(launcherr.KindNetwork, "curseforge request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return launcherr.New(launcherr.KindMissingCredentials, "curseforge api key missing or rejected")
	}
	if resp.StatusCode == 404 {
		return launcherr.New(launcherr.KindRemoteRejected, "not found on curseforge")
	}
	if resp.StatusCode != 200 {
		return launcherr.New(launcherr.KindRemoteRejected, fmt.Sprintf("curseforge returned status %d", resp.StatusCode))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
