package platform

import (
	"context"
	"testing"
)

func TestFormatDownloads(t *testing.T) {
	cases := map[int64]string{
		42:        "42",
		1_500:     "1.5K",
		2_300_000: "2.3M",
	}
	for in, want := range cases {
		if got := FormatDownloads(in); got != want {
			t.Errorf("FormatDownloads(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCurseforgeLoaderID(t *testing.T) {
	if curseforgeLoaderID("fabric") != 4 {
		t.Errorf("expected fabric loader id 4")
	}
	if curseforgeLoaderID("unknown") != 0 {
		t.Errorf("expected unknown loader id 0")
	}
}

type stubClient struct {
	src  Source
	hits []SearchHit
}

func (s *stubClient) Source() Source { return s.src }
func (s *stubClient) Search(_ context.Context, _ SearchQuery) (*SearchResult, error) {
	return &SearchResult{Hits: s.hits, TotalHits: len(s.hits)}, nil
}
func (s *stubClient) GetProject(_ context.Context, _ string) (*Project, error) { return nil, nil }
func (s *stubClient) GetVersions(_ context.Context, _ string, _, _ []string) ([]ProjectVersion, error) {
	return nil, nil
}
func (s *stubClient) GetVersion(_ context.Context, _ string) (*ProjectVersion, error) { return nil, nil }

func TestAggregator_MergesAcrossSources(t *testing.T) {
	a := NewAggregator(
		&stubClient{src: SourceModrinth, hits: []SearchHit{{Source: SourceModrinth, ID: "m1"}}},
		&stubClient{src: SourceCurseForge, hits: []SearchHit{{Source: SourceCurseForge, ID: "c1"}}},
	)
	res, err := a.Search(context.Background(), SearchQuery{Text: "sodium"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 2 {
		t.Fatalf("expected 2 merged hits, got %d", len(res.Hits))
	}
	if a.ClientFor(SourceModrinth) == nil || a.ClientFor(SourceCurseForge) == nil {
		t.Error("expected both clients to be retrievable by source")
	}
}
