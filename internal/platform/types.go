// Package platform models the host an artifact is installed on.
//
// A Key pairs an OS family ("mac", "linux") with a CPU architecture ("arm64",
// "intel") and is the lookup key for formula artifact tables. Detection uses
// runtime.GOOS and runtime.GOARCH, plus gopsutil for Linux distribution details
// that are reported but never used for artifact selection.
package platform

import (
	"context"
	"fmt"
	"strings"
)

// Family is an operating system family as named in formulas.
type Family string

// Arch is a CPU architecture as named in formulas.
type Arch string

const (
	FamilyMac   Family = "mac"
	FamilyLinux Family = "linux"

	ArchARM64 Arch = "arm64"
	ArchIntel Arch = "intel"
)

// Linux distribution family constants.
const (
	DistroDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	DistroRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	DistroFedora  = "fedora"  // Fedora
	DistroSUSE    = "suse"    // openSUSE, SLES
	DistroArch    = "arch"    // Arch Linux, Manjaro
	DistroAlpine  = "alpine"  // Alpine Linux
	DistroUnknown = "unknown" // Unrecognized distributions
)

// Key identifies one platform/architecture combination.
// It is comparable and used directly as a map key.
type Key struct {
	Family Family
	Arch   Arch
}

// String renders the key as "family/arch", e.g. "mac/arm64".
func (k Key) String() string {
	return string(k.Family) + "/" + string(k.Arch)
}

// ParseKey parses a "family/arch" string. Aliases such as "darwin" or
// "amd64" are accepted and normalized.
func ParseKey(s string) (Key, error) {
	family, arch, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || family == "" || arch == "" {
		return Key{}, fmt.Errorf("invalid platform key %q (expected family/arch)", s)
	}
	return Key{Family: NormalizeFamily(family), Arch: NormalizeArch(arch)}, nil
}

// SupportedKeys lists the combinations skyclerk publishes binaries for,
// in a stable order.
func SupportedKeys() []Key {
	return []Key{
		{Family: FamilyMac, Arch: ArchARM64},
		{Family: FamilyMac, Arch: ArchIntel},
		{Family: FamilyLinux, Arch: ArchARM64},
		{Family: FamilyLinux, Arch: ArchIntel},
	}
}

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // "amd64", "arm64" (normalized GOARCH)
	ArchRaw  string // original GOARCH (e.g., "x86_64", "aarch64")
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Distro   string // canonical distro family (e.g., "debian", "rhel")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Key returns the formula lookup key for this host.
// Unknown operating systems and architectures are passed through verbatim
// so the resolver can reject them explicitly.
func (i *Info) Key() Key {
	return Key{
		Family: NormalizeFamily(i.OS),
		Arch:   NormalizeArch(i.Arch),
	}
}

// WithOverrides returns a copy of the info with OS and/or architecture
// replaced. Empty overrides keep the detected value.
func (i *Info) WithOverrides(os, arch string) *Info {
	out := *i
	if os != "" {
		out.OS = goosFor(NormalizeFamily(os))
		out.Platform, out.Distro, out.Version = "", "", ""
	}
	if arch != "" {
		out.ArchRaw = arch
		out.Arch = goarchFor(NormalizeArch(arch))
	}
	return &out
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.OS == "darwin" && i.Arch == "arm64"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
