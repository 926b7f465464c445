package modloader

import (
	"testing"

	"github.com/quasar/launchcore/internal/core"
)

func TestForInstance_SelectsRightInstaller(t *testing.T) {
	cases := map[core.LoaderType]core.LoaderType{
		core.LoaderFabric:   core.LoaderFabric,
		core.LoaderQuilt:    core.LoaderQuilt,
		core.LoaderForge:    core.LoaderForge,
		core.LoaderNeoForge: core.LoaderNeoForge,
		core.LoaderLite:     core.LoaderLite,
	}
	for loader, want := range cases {
		inst, err := ForInstance(loader, "/libs")
		if err != nil {
			t.Fatalf("ForInstance(%s): %v", loader, err)
		}
		if inst.Loader() != want {
			t.Errorf("ForInstance(%s).Loader() = %s, want %s", loader, inst.Loader(), want)
		}
	}
}

func TestForInstance_RejectsVanilla(t *testing.T) {
	if _, err := ForInstance(core.LoaderVanilla, "/libs"); err == nil {
		t.Error("expected error selecting an installer for vanilla")
	}
}
