package binary

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/cloudmanic/skyclerk-install/internal/formula"
)

// DefaultSmokeTimeout bounds a smoke test run when ctx has no deadline.
const DefaultSmokeTimeout = 30 * time.Second

// SmokeTest runs binDir/skyclerk version and reports whether the combined
// output contains "skyclerk version".
func SmokeTest(ctx context.Context, binDir string) (bool, string, error) {
	f := formula.Skyclerk()
	res, err := RunSmokeTest(ctx, filepath.Join(binDir, f.Binary), f.Test)
	if err != nil {
		return false, "", err
	}
	return res.Passed, res.Output, nil
}

// RunSmokeTest runs binPath with test.Args and checks the combined
// stdout/stderr for test.Expect. It passes only on exit status 0 with
// matching output. A non-zero exit is a failed result, not an error; an
// error is returned only when the binary cannot be run at all.
func RunSmokeTest(ctx context.Context, binPath string, test formula.TestSpec) (*SmokeResult, error) {
	if test.Expect == "" {
		return nil, fmt.Errorf("smoke test has no expected output")
	}
	args := test.Args
	if len(args) == 0 {
		args = []string{formula.DefaultTestArg}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultSmokeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	out, err := cmd.CombinedOutput()

	result := &SmokeResult{Output: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", filepath.Base(binPath), err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("run %s: %w", filepath.Base(binPath), ctx.Err())
		}
		result.ExitCode = exitErr.ExitCode()
	}

	result.Passed = result.ExitCode == 0 && strings.Contains(result.Output, test.Expect)
	if result.Passed {
		if v, err := ParseInstalledVersion(result.Output, test.Expect); err == nil {
			result.Version = v
		}
	}

	return result, nil
}

// ParseInstalledVersion extracts the version printed after expect, e.g.
// "skyclerk version 1.4.0" or "skyclerk version v1.4.0".
func ParseInstalledVersion(output, expect string) (*semver.Version, error) {
	i := strings.Index(output, expect)
	if i < 0 {
		return nil, fmt.Errorf("output does not contain %q", expect)
	}

	fields := strings.Fields(output[i+len(expect):])
	if len(fields) == 0 {
		return nil, fmt.Errorf("no version after %q", expect)
	}

	v, err := semver.ParseTolerant(fields[0])
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", fields[0], err)
	}
	return &v, nil
}
