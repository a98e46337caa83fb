// Package formula describes how to obtain one pre-built binary.
//
// A Formula carries package metadata (description, homepage, license,
// version) and an ArtifactTable mapping each supported platform.Key to
// exactly one download URL. Resolution is exact-match only: a host whose key
// is missing from the table gets an UnsupportedPlatformError, never a
// "closest" artifact.
//
// Formulas come from three places:
//   - Skyclerk(), the built-in skyclerk formula
//   - Lua files, evaluated in a sandboxed gopher-lua VM with a read-only
//     platform table so formulas can branch on the host like a Homebrew formula
//   - YAML files, for static tables
//
// A Lua formula looks like:
//
//	formula = {
//	  name     = "skyclerk",
//	  desc     = "CLI for the Skyclerk bookkeeping API",
//	  homepage = "https://github.com/cloudmanic/skyclerk-cli",
//	  license  = "MIT",
//	  version  = "latest",
//	  artifacts = {
//	    { os = "mac",   arch = "arm64", url = base .. "/skyclerk-darwin-arm64" },
//	    { os = "linux", arch = "intel", url = base .. "/skyclerk-linux-amd64" },
//	  },
//	  test = { args = { "version" }, expect = "skyclerk version" },
//	}
//
// Generator renders a Formula back into that form.
package formula
