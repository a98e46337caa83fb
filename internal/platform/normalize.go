package platform

import "strings"

// distroMap maps distribution names to their canonical family names.
// gopsutil reports families inconsistently across distributions.
var distroMap = map[string]string{
	"debian":   DistroDebian,
	"ubuntu":   DistroDebian,
	"rhel":     DistroRHEL,
	"centos":   DistroRHEL,
	"rocky":    DistroRHEL,
	"fedora":   DistroFedora,
	"suse":     DistroSUSE,
	"opensuse": DistroSUSE,
	"arch":     DistroArch,
	"manjaro":  DistroArch,
	"alpine":   DistroAlpine,
}

// normalizeGOARCH converts raw architecture names to GOARCH spelling.
// Unrecognized names are lowercased and returned as is.
func normalizeGOARCH(arch string) string {
	switch a := strings.ToLower(strings.TrimSpace(arch)); a {
	case "amd64", "x86_64", "x64", "intel":
		return "amd64"
	case "arm64", "aarch64":
		return "arm64"
	default:
		return a
	}
}

// NormalizeArch maps an architecture name or alias to a formula Arch.
func NormalizeArch(arch string) Arch {
	switch a := normalizeGOARCH(arch); a {
	case "amd64":
		return ArchIntel
	case "arm64":
		return ArchARM64
	default:
		return Arch(a)
	}
}

// NormalizeFamily maps a GOOS value or alias to a formula Family.
func NormalizeFamily(os string) Family {
	switch o := strings.ToLower(strings.TrimSpace(os)); o {
	case "darwin", "macos", "mac", "osx":
		return FamilyMac
	case "linux":
		return FamilyLinux
	default:
		return Family(o)
	}
}

// goosFor is the inverse of NormalizeFamily for known families.
func goosFor(f Family) string {
	switch f {
	case FamilyMac:
		return "darwin"
	default:
		return string(f)
	}
}

// goarchFor is the inverse of NormalizeArch for known architectures.
func goarchFor(a Arch) string {
	switch a {
	case ArchIntel:
		return "amd64"
	default:
		return string(a)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapDistro maps distribution family strings to canonical family names.
func mapDistro(family string) string {
	if canonical, ok := distroMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return DistroUnknown
}
