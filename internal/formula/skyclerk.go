package formula

import "github.com/cloudmanic/skyclerk-install/internal/platform"

// SkyclerkReleaseBase is where skyclerk release assets are published.
const SkyclerkReleaseBase = "https://github.com/cloudmanic/skyclerk-cli/releases/latest/download"

// Skyclerk returns the built-in skyclerk formula.
// Each call returns a fresh value.
func Skyclerk() *Formula {
	return &Formula{
		Name:     "skyclerk",
		Desc:     "CLI for the Skyclerk bookkeeping API",
		Homepage: "https://github.com/cloudmanic/skyclerk-cli",
		License:  "MIT",
		Version:  "latest",
		Binary:   "skyclerk",
		Artifacts: ArtifactTable{
			{Family: platform.FamilyMac, Arch: platform.ArchARM64}:   {URL: SkyclerkReleaseBase + "/skyclerk-darwin-arm64"},
			{Family: platform.FamilyMac, Arch: platform.ArchIntel}:   {URL: SkyclerkReleaseBase + "/skyclerk-darwin-amd64"},
			{Family: platform.FamilyLinux, Arch: platform.ArchARM64}: {URL: SkyclerkReleaseBase + "/skyclerk-linux-arm64"},
			{Family: platform.FamilyLinux, Arch: platform.ArchIntel}: {URL: SkyclerkReleaseBase + "/skyclerk-linux-amd64"},
		},
		Test: TestSpec{
			Args:   []string{DefaultTestArg},
			Expect: "skyclerk version",
		},
	}
}
