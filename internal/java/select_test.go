package java

import "testing"

func TestSelectForRange_PrefersExactMatch(t *testing.T) {
	candidates := []Installation{
		{Path: "/j17", MajorVersion: 17, Is64Bit: true},
		{Path: "/j21", MajorVersion: 21, Is64Bit: true},
	}
	got := SelectForRange(candidates, RangeFor(17), 17)
	if got == nil || got.MajorVersion != 17 {
		t.Fatalf("expected major 17 selected, got %+v", got)
	}
}

func TestSelectForRange_FallsBackToBestScoring(t *testing.T) {
	candidates := []Installation{
		{Path: "/j8", MajorVersion: 8, Is64Bit: true},
		{Path: "/j11", MajorVersion: 11, Is64Bit: true},
	}
	got := SelectForRange(candidates, RangeFor(21), 21)
	if got == nil || got.MajorVersion != 11 {
		t.Fatalf("expected fallback to closest major (11), got %+v", got)
	}
}

func TestSelectForRange_PrefersManagedAnd64Bit(t *testing.T) {
	candidates := []Installation{
		{Path: "/j17-32", MajorVersion: 17, Is64Bit: false},
		{Path: "/j17-managed", MajorVersion: 17, Is64Bit: true, IsManaged: true},
	}
	got := SelectForRange(candidates, RangeFor(17), 17)
	if got == nil || got.Path != "/j17-managed" {
		t.Fatalf("expected the 64-bit managed candidate to win, got %+v", got)
	}
}

func TestRangeFor_KnownTable(t *testing.T) {
	cases := []struct {
		required      int
		min, max, def int
	}{
		{8, 8, 8, 0},
		{16, 16, 17, 0},
		{17, 17, 21, 0},
		{21, 21, 25, 0},
	}
	for _, c := range cases {
		r := RangeFor(c.required)
		if r.Min != c.min || r.Max != c.max {
			t.Errorf("RangeFor(%d) = %+v, want {%d %d}", c.required, r, c.min, c.max)
		}
	}
}

func TestRangeFor_UnknownDefaultsToFourAbove(t *testing.T) {
	r := RangeFor(99)
	if r.Min != 99 || r.Max != 103 {
		t.Errorf("expected [99,103], got %+v", r)
	}
}

func TestRequiredJavaMajor(t *testing.T) {
	cases := map[string]int{
		"1.21.4": 21,
		"1.20.1": 17,
		"1.18":   17,
		"1.17.1": 16,
		"1.16.5": 8,
		"1.12.2": 8,
	}
	for version, want := range cases {
		if got := RequiredJavaMajor(version); got != want {
			t.Errorf("RequiredJavaMajor(%q) = %d, want %d", version, got, want)
		}
	}
}

func TestScoreInstallation_ExactMatchBeatsOffTarget(t *testing.T) {
	exact := Installation{MajorVersion: 17, Is64Bit: true}
	off := Installation{MajorVersion: 21, Is64Bit: true}
	if scoreInstallation(exact, 17) <= scoreInstallation(off, 17) {
		t.Errorf("expected an exact major match to outscore an off-target one")
	}
}
