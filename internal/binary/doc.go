// Package binary fetches, verifies, and installs a resolved artifact.
//
// # Host
//
// Network transfer is owned by a Host. The Manager only asks it to Fetch a
// URL and hand back a local file; Downloader is the default Host, doing HTTP
// GETs with retries, a download cache, and an optional progress bar.
//
// # Verification
//
// Artifacts are checked before anything is written to the bin directory:
//   - SHA256, when the formula lists a digest for the artifact
//   - OpenPGP detached signature, when the formula names a signature suffix
//     and a keyring is configured
//
// With neither configured the artifact is installed as fetched.
//
// # Installation
//
// The artifact is always installed as <bin-dir>/<binary>, whatever its
// download name was. A fresh install is a temp-file + rename in the bin
// directory. Replacing an existing binary goes through go-update so the old
// file is restored if the swap fails.
//
// # Smoke test
//
// After installation the binary is run with the formula's test arguments
// ("version") and its combined output must contain the expected text
// ("skyclerk version"). A failing smoke test is reported, it does not undo
// the install.
package binary
