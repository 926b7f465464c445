package resolver

import (
	"encoding/json"
	"time"

	"github.com/quasar/launchcore/internal/rules"
)

// Artifact is a single downloadable file referenced from a library or the
// client/server jars.
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// LibraryDownloads holds a library's primary artifact and, for legacy
// natives jars, its per-platform classifier artifacts.
type LibraryDownloads struct {
	Artifact    *Artifact            `json:"artifact,omitempty"`
	Classifiers map[string]*Artifact `json:"classifiers,omitempty"`
}

// Rule is the wire shape of a Mojang os/feature rule entry.
type Rule struct {
	Action   string            `json:"action"`
	OS       *rules.OS         `json:"os,omitempty"`
	Features map[string]bool   `json:"features,omitempty"`
}

// ToEngineRules converts the wire rule list into internal/rules.Rule values.
func ToEngineRules(in []Rule) []rules.Rule {
	out := make([]rules.Rule, len(in))
	for i, r := range in {
		out[i] = rules.Rule{
			Action:   rules.Action(r.Action),
			OS:       r.OS,
			Features: r.Features,
		}
	}
	return out
}

// ExtractRule describes which native paths to skip when unpacking a jar.
type ExtractRule struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Library is one dependency entry of a version document.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *ExtractRule      `json:"extract,omitempty"`
	URL       string            `json:"url,omitempty"` // maven repo base, legacy loader libraries
}

// AssetIndexRef points at the asset index document for a version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// Downloads holds the client/server jar (and mappings) download info.
type Downloads struct {
	Client         *Artifact `json:"client,omitempty"`
	ClientMappings *Artifact `json:"client_mappings,omitempty"`
	Server         *Artifact `json:"server,omitempty"`
	ServerMappings *Artifact `json:"server_mappings,omitempty"`
}

// JavaVersionReq is the version document's minimum-Java-major hint.
type JavaVersionReq struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// Arguments holds the modern (1.13+) conditional argument lists. Each
// element is either a bare string or an object with rules + a value.
type Arguments struct {
	Game []json.RawMessage `json:"game,omitempty"`
	JVM  []json.RawMessage `json:"jvm,omitempty"`
}

// ConditionalArg is the object form of an Arguments entry.
type ConditionalArg struct {
	Rules []Rule          `json:"rules"`
	Value json.RawMessage `json:"value"`
}

// VersionData is the full merged version document: everything needed to
// build a classpath and an argument list for a given Minecraft version,
// with inheritsFrom chains already folded by Merge.
type VersionData struct {
	ID                 string         `json:"id"`
	Type               VersionKind    `json:"type"`
	InheritsFrom       string         `json:"inheritsFrom,omitempty"`
	MainClass          string         `json:"mainClass"`
	MinecraftArguments string         `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments     `json:"arguments,omitempty"`
	Libraries          []Library      `json:"libraries"`
	AssetIndex         AssetIndexRef  `json:"assetIndex"`
	Assets             string         `json:"assets"`
	Downloads          Downloads      `json:"downloads"`
	JavaVersion        JavaVersionReq `json:"javaVersion"`
	ReleaseTime        time.Time      `json:"releaseTime"`
	Time               time.Time      `json:"time"`
}

// Merge folds a child version document over its resolved parent, following
// Mojang's inheritsFrom semantics: scalar fields are child-wins-if-set,
// and libraries/arguments are concatenated parent-then-child.
func Merge(parent, child *VersionData) *VersionData {
	out := *parent
	out.ID = child.ID
	out.InheritsFrom = ""

	if child.Type != "" {
		out.Type = child.Type
	}
	if child.MainClass != "" {
		out.MainClass = child.MainClass
	}
	if child.MinecraftArguments != "" {
		out.MinecraftArguments = child.MinecraftArguments
	}
	if child.Assets != "" {
		out.Assets = child.Assets
	}
	if child.AssetIndex.ID != "" {
		out.AssetIndex = child.AssetIndex
	}
	if child.Downloads.Client != nil || child.Downloads.Server != nil {
		out.Downloads = child.Downloads
	}
	if child.JavaVersion.MajorVersion != 0 {
		out.JavaVersion = child.JavaVersion
	}
	if !child.ReleaseTime.IsZero() {
		out.ReleaseTime = child.ReleaseTime
	}
	if !child.Time.IsZero() {
		out.Time = child.Time
	}

	out.Libraries = append(append([]Library{}, parent.Libraries...), child.Libraries...)

	if child.Arguments != nil || parent.Arguments != nil {
		merged := &Arguments{}
		if parent.Arguments != nil {
			merged.Game = append(merged.Game, parent.Arguments.Game...)
			merged.JVM = append(merged.JVM, parent.Arguments.JVM...)
		}
		if child.Arguments != nil {
			merged.Game = append(merged.Game, child.Arguments.Game...)
			merged.JVM = append(merged.JVM, child.Arguments.JVM...)
		}
		out.Arguments = merged
	}

	return &out
}
