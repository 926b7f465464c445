// Package ui provides TUI view messages shared between components.
package ui

import (
	"github.com/quasar/launchcore/internal/core"
	"github.com/quasar/launchcore/internal/launch"
	"github.com/quasar/launchcore/internal/resolver"
)

// Navigation messages
type (
	// NavigateToHome returns to the home screen
	NavigateToHome struct{}

	// NavigateToNewInstance opens the new instance wizard
	NavigateToNewInstance struct{}

	// NavigateToMods opens the mod browser
	NavigateToMods struct {
		Instance *core.Instance
	}

	// NavigateToSettings opens settings
	NavigateToSettings struct{}

	// NavigateToLaunch starts the launch view
	NavigateToLaunch struct {
		Instance *core.Instance
		Offline  bool
	}

	// NavigateToAuth opens the authentication screen
	NavigateToAuth struct{}

	// DeleteInstance requests instance deletion
	DeleteInstance struct {
		Instance *core.Instance
	}
)

// Action messages
type (
	// InstanceCreated is sent when a new instance is created
	InstanceCreated struct {
		Instance *core.Instance
	}

	// InstancesLoaded is sent when instances are loaded from disk
	InstancesLoaded struct {
		Instances []*core.Instance
		Error     error
	}

	// VersionsLoaded is sent when version manifest is fetched
	VersionsLoaded struct {
		Versions []resolver.ManifestEntry
		Latest   string
		Error    error
	}

	// VersionDetailsLoaded is sent when full version info is fetched
	VersionDetailsLoaded struct {
		Details *resolver.VersionData
		Error   error
	}

	// LaunchStatusUpdate is sent during launch
	LaunchStatusUpdate struct {
		Status launch.Status
	}

	// LaunchComplete is sent when launch finishes
	LaunchComplete struct {
		Error error
	}

	// CancelLaunch requests the in-progress launch be aborted
	CancelLaunch struct{}

	// RetryLaunch requests the last launch be retried, optionally offline
	RetryLaunch struct {
		Offline bool
	}
)
