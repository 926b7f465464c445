package java

import (
	"regexp"
	"runtime"
	"strconv"
)

// CompatibleRange is the inclusive [Min, Max] major-version window a
// Minecraft version is known to run on.
type CompatibleRange struct {
	Min int
	Max int
}

// javaRangeForMinecraftMajor maps a Minecraft javaVersion.majorVersion hint
// (from the resolved version document) to the broader acceptable range,
// since newer JDKs usually still run older game versions' bytecode despite
// Mojang pinning a specific one in the manifest.
var javaRangeForMinecraftMajor = map[int]CompatibleRange{
	8:  {Min: 8, Max: 8},
	16: {Min: 16, Max: 17},
	17: {Min: 17, Max: 21},
	21: {Min: 21, Max: 25},
}

// RangeFor resolves the compatible Java major-version range for a version
// document's required major version. Unlisted majors default to a window
// of four versions above the requirement.
func RangeFor(requiredMajor int) CompatibleRange {
	if r, ok := javaRangeForMinecraftMajor[requiredMajor]; ok {
		return r
	}
	if requiredMajor == 0 {
		return CompatibleRange{Min: 8, Max: 8}
	}
	return CompatibleRange{Min: requiredMajor, Max: requiredMajor + 4}
}

func (r CompatibleRange) contains(major int) bool {
	if major < r.Min {
		return false
	}
	if r.Max != 0 && major > r.Max {
		return false
	}
	return true
}

// mcVersionPattern pulls the X out of a Minecraft version string "1.X.Y".
var mcVersionPattern = regexp.MustCompile(`^1\.(\d+)(?:\.\d+)?`)

// RequiredJavaMajor derives the Java major version Minecraft needs purely
// from its version string, for the (common) case where the resolved version
// document carries no javaVersion hint of its own: X>=21 -> 21, X>=18 -> 17,
// X==17 -> 16, else -> 8.
func RequiredJavaMajor(mcVersion string) int {
	matches := mcVersionPattern.FindStringSubmatch(mcVersion)
	if len(matches) < 2 {
		return 8
	}
	x, err := strconv.Atoi(matches[1])
	if err != nil {
		return 8
	}
	switch {
	case x >= 21:
		return 21
	case x >= 18:
		return 17
	case x == 17:
		return 16
	default:
		return 8
	}
}

// scoreInstallation weighs a candidate against a required major version per
// the launcher's selection policy: exact match dominates, then a falloff for
// being off-target, then flat bonuses for 64-bit, being a runtime this
// launcher itself manages, matching the host's native architecture, and
// being an LTS line worth steering users toward.
func scoreInstallation(inst Installation, required int) int {
	score := 0
	if inst.MajorVersion == required {
		score += 1000
	} else {
		score += 500 - 50*abs(inst.MajorVersion-required)
	}
	if inst.Is64Bit {
		score += 200
	}
	if inst.IsManaged {
		score += 150
	}
	if inst.Arch != "" && inst.Arch == runtime.GOARCH {
		score += 100
	}
	if inst.Recommended {
		score += 50
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SelectForRange picks the best installation from candidates for the given
// compatible range and required major version: candidates outside the range
// are excluded outright, and among the survivors the highest-scoring one
// (per scoreInstallation) wins. If nothing falls inside the range, it falls
// back to the best-scoring candidate overall so a close-enough runtime is
// still offered to the caller, who is expected to surface this as a soft
// warning rather than a hard java_incompatible failure.
func SelectForRange(candidates []Installation, r CompatibleRange, required int) *Installation {
	if len(candidates) == 0 {
		return nil
	}

	var best *Installation
	bestScore := -1
	for i := range candidates {
		if !r.contains(candidates[i].MajorVersion) {
			continue
		}
		if s := scoreInstallation(candidates[i], required); s > bestScore {
			bestScore = s
			best = &candidates[i]
		}
	}
	if best != nil {
		return best
	}

	best = &candidates[0]
	bestScore = scoreInstallation(candidates[0], required)
	for i := 1; i < len(candidates); i++ {
		if s := scoreInstallation(candidates[i], required); s > bestScore {
			bestScore = s
			best = &candidates[i]
		}
	}
	return best
}
