package rules

import "testing"

func TestApplies_NoRules(t *testing.T) {
	if !Applies(nil, Env{OSName: "linux"}) {
		t.Fatal("expected no rules to allow unconditionally")
	}
}

func TestApplies_OSDisallow(t *testing.T) {
	list := []Rule{
		{Action: ActionAllow},
		{Action: ActionDisallow, OS: &OS{Name: "osx"}},
	}
	if Applies(list, Env{OSName: "osx", OSArch: "x86_64"}) {
		t.Fatal("expected osx to be disallowed")
	}
	if !Applies(list, Env{OSName: "linux", OSArch: "x86_64"}) {
		t.Fatal("expected linux to remain allowed")
	}
}

func TestApplies_ArchSpecific(t *testing.T) {
	list := []Rule{
		{Action: ActionDisallow},
		{Action: ActionAllow, OS: &OS{Arch: "x86_64"}},
	}
	if Applies(list, Env{OSArch: "x86"}) {
		t.Fatal("expected x86 to be disallowed")
	}
	if !Applies(list, Env{OSArch: "x86_64"}) {
		t.Fatal("expected x86_64 to be allowed")
	}
}

func TestApplies_Features(t *testing.T) {
	list := []Rule{
		{Action: ActionAllow, Features: map[string]bool{"is_demo_user": true}},
	}
	if Applies(list, Env{Features: map[string]bool{"is_demo_user": false}}) {
		t.Fatal("expected non-demo user to be disallowed")
	}
	if !Applies(list, Env{Features: map[string]bool{"is_demo_user": true}}) {
		t.Fatal("expected demo user to be allowed")
	}
}

func TestNormalizeOS(t *testing.T) {
	cases := map[string]string{"darwin": "osx", "windows": "windows", "linux": "linux", "freebsd": "linux"}
	for in, want := range cases {
		if got := NormalizeOS(in); got != want {
			t.Errorf("NormalizeOS(%q) = %q, want %q", in, got, want)
		}
	}
}
