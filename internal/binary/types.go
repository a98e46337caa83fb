package binary

import (
	"context"
	"time"

	"github.com/blang/semver"
	"github.com/cloudmanic/skyclerk-install/internal/formula"
)

// Host fetches artifacts on behalf of the installer.
type Host interface {
	// Fetch downloads url and returns the path of a local copy.
	Fetch(ctx context.Context, url string) (string, error)
}

// VerificationMethod records which checks an artifact passed before it
// was placed.
type VerificationMethod int

const (
	VerificationNone VerificationMethod = iota
	VerificationSHA256
	VerificationGPG
	// VerificationBoth means the checksum and the detached signature matched.
	VerificationBoth
)

var verificationNames = map[VerificationMethod]string{
	VerificationNone:   "None",
	VerificationSHA256: "SHA256",
	VerificationGPG:    "GPG",
	VerificationBoth:   "SHA256+GPG",
}

func (v VerificationMethod) String() string {
	if name, ok := verificationNames[v]; ok {
		return name
	}
	return "Unknown"
}

// VerificationResult is the outcome of one check. Error is set when
// Success is false.
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// SmokeResult is the outcome of running the installed binary.
type SmokeResult struct {
	Passed   bool
	Output   string
	ExitCode int
	// Version is parsed from the output when it follows the expected text.
	Version *semver.Version
}

// InstallResult describes a completed install run.
type InstallResult struct {
	Spec     *formula.InstallSpec
	Path     string
	Verified VerificationMethod
	// Replaced is true when an existing binary was swapped out.
	Replaced bool
	Duration time.Duration

	// Smoke is nil when the smoke test could not be run; SmokeErr says why.
	Smoke    *SmokeResult
	SmokeErr error
}
