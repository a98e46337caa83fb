package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cloudmanic/skyclerk-install/internal/formula"
	"github.com/cloudmanic/skyclerk-install/internal/logging"
	"github.com/cloudmanic/skyclerk-install/internal/transaction"
	goupdate "github.com/inconshreveable/go-update"
)

// BinaryMode is the permission set on installed binaries.
const BinaryMode os.FileMode = 0o755

// Installer fetches a resolved artifact through a Host, verifies it and
// places it in a bin directory under a fixed name.
type Installer struct {
	host            Host
	verifier        *Verifier
	binaryName      string
	signatureSuffix string
	logger          logging.Logger
	onStep          func(transaction.Step)
}

// NewInstaller creates an installer that installs artifacts as binaryName.
func NewInstaller(host Host, verifier *Verifier, binaryName string) *Installer {
	if verifier == nil {
		verifier = NewVerifier("")
	}
	return &Installer{
		host:       host,
		verifier:   verifier,
		binaryName: binaryName,
		logger:     logging.Nop(),
	}
}

// WithSignatureSuffix enables detached signature checks for artifacts
// published with the given suffix. It only takes effect with a keyring.
func (i *Installer) WithSignatureSuffix(suffix string) *Installer {
	i.signatureSuffix = suffix
	return i
}

// WithLogger sets the installer's logger.
func (i *Installer) WithLogger(l logging.Logger) *Installer {
	i.logger = logging.OrNop(l)
	return i
}

// Install fetches spec.SourceURL and places it at binDir/<binary name>.
// The artifact's own file name is never used for the installed file.
// Nothing is written to binDir unless verification passes.
func (i *Installer) Install(ctx context.Context, spec *formula.InstallSpec, binDir string) (*InstallResult, error) {
	if spec == nil {
		return nil, fmt.Errorf("install spec is required")
	}
	if i.host == nil {
		return nil, fmt.Errorf("no host configured")
	}
	if i.binaryName == "" {
		return nil, fmt.Errorf("binary name is required")
	}

	i.step(transaction.StepFetch)
	artifactPath, err := i.host.Fetch(ctx, spec.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	i.logger.Debug("fetched artifact", "url", spec.SourceURL, "asset", spec.LocalBinaryName, "path", artifactPath)

	i.step(transaction.StepVerify)
	method, err := i.verify(ctx, spec, artifactPath)
	if err != nil {
		return nil, fmt.Errorf("verify artifact: %w", err)
	}

	i.step(transaction.StepPlace)
	target := filepath.Join(binDir, i.binaryName)
	replaced, err := place(artifactPath, target)
	if err != nil {
		return nil, fmt.Errorf("install binary: %w", err)
	}
	i.logger.Info("installed binary", "path", target, "replaced", replaced, "verified", method.String())

	return &InstallResult{
		Spec:     spec,
		Path:     target,
		Verified: method,
		Replaced: replaced,
	}, nil
}

func (i *Installer) step(s transaction.Step) {
	if i.onStep != nil {
		i.onStep(s)
	}
}

// verify runs the checks the install spec and keyring allow.
func (i *Installer) verify(ctx context.Context, spec *formula.InstallSpec, artifactPath string) (VerificationMethod, error) {
	method := VerificationNone

	if spec.SHA256 != "" {
		result, err := i.verifier.VerifySHA256(artifactPath, spec.SHA256)
		if err != nil {
			return method, err
		}
		if !result.Success {
			return method, result.Error
		}
		method = VerificationSHA256
	}

	if i.signatureSuffix != "" && i.verifier.HasKeyring() {
		sigPath, err := i.host.Fetch(ctx, spec.SourceURL+i.signatureSuffix)
		if err != nil {
			return method, fmt.Errorf("fetch signature: %w", err)
		}
		result, err := i.verifier.VerifySignature(artifactPath, sigPath)
		if err != nil {
			return method, err
		}
		if !result.Success {
			return method, result.Error
		}
		if method == VerificationSHA256 {
			method = VerificationBoth
		} else {
			method = VerificationGPG
		}
	}

	return method, nil
}

// place copies src to target with BinaryMode. A new target is written to a
// temp file and renamed into place; an existing one is swapped by go-update,
// which restores the old binary if the swap fails.
func place(src, target string) (bool, error) {
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.IsDir():
		return false, fmt.Errorf("%s is a directory", target)
	case err == nil:
		return true, replaceExisting(src, target)
	case errors.Is(err, os.ErrNotExist):
		return false, installFresh(src, target)
	default:
		return false, fmt.Errorf("stat target: %w", err)
	}
}

func installFresh(src, target string) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := tmp.Chmod(BinaryMode); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

func replaceExisting(src, target string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()

	err = goupdate.Apply(in, goupdate.Options{
		TargetPath: target,
		TargetMode: BinaryMode,
	})
	if err != nil {
		if rerr := goupdate.RollbackError(err); rerr != nil {
			return fmt.Errorf("replace binary: %w (rollback failed: %v)", err, rerr)
		}
		return fmt.Errorf("replace binary: %w", err)
	}

	// TargetMode is subject to the umask.
	return os.Chmod(target, BinaryMode)
}
