package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudmanic/skyclerk-install/internal/formula"
	"github.com/cloudmanic/skyclerk-install/internal/logging"
	"github.com/cloudmanic/skyclerk-install/internal/platform"
	"github.com/cloudmanic/skyclerk-install/internal/transaction"
)

// Manager orchestrates resolve, fetch, verification, installation and the
// post-install smoke test for one formula.
type Manager struct {
	binDir    string
	cacheDir  string
	formula   *formula.Formula
	installer *Installer
	logger    logging.Logger
}

// Config holds configuration for the manager
type Config struct {
	// BinDir receives the installed binary.
	BinDir string
	// CacheDir holds downloads, the install lock and the install journal.
	CacheDir string
	// Formula defaults to the built-in skyclerk formula.
	Formula *formula.Formula
	// Host defaults to a Downloader built from the fields below.
	Host Host
	// KeyringPath enables signature checks for formulas with a SignatureSuffix.
	KeyringPath string

	Retries   int
	Timeout   time.Duration
	UserAgent string
	Progress  io.Writer
	Logger    logging.Logger
}

// NewManager creates a new manager
func NewManager(config Config) (*Manager, error) {
	if config.BinDir == "" {
		return nil, fmt.Errorf("BinDir is required")
	}
	if config.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}

	f := config.Formula
	if f == nil {
		f = formula.Skyclerk()
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid formula: %w", err)
	}

	logger := logging.OrNop(config.Logger)

	host := config.Host
	if host == nil {
		host = NewDownloader(DownloaderConfig{
			CacheDir:  filepath.Join(config.CacheDir, "downloads"),
			Version:   f.Version,
			Retries:   config.Retries,
			Timeout:   config.Timeout,
			UserAgent: config.UserAgent,
			Progress:  config.Progress,
			Logger:    logger,
		})
	}

	installer := NewInstaller(host, NewVerifier(config.KeyringPath), f.Binary).
		WithSignatureSuffix(f.SignatureSuffix).
		WithLogger(logger)

	return &Manager{
		binDir:    config.BinDir,
		cacheDir:  config.CacheDir,
		formula:   f,
		installer: installer,
		logger:    logger,
	}, nil
}

// Formula returns the formula the manager installs.
func (m *Manager) Formula() *formula.Formula {
	return m.formula
}

// BinaryPath returns where the binary is installed.
func (m *Manager) BinaryPath() string {
	return filepath.Join(m.binDir, m.formula.Binary)
}

// Resolve returns the install spec for key without touching the network.
func (m *Manager) Resolve(key platform.Key) (*formula.InstallSpec, error) {
	return m.formula.InstallSpec(key)
}

// IsInstalled checks if the binary is already installed and executable
func (m *Manager) IsInstalled() (bool, error) {
	info, err := os.Stat(m.BinaryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	if info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// Install resolves the artifact for key, installs it under the install lock
// and runs the smoke test. A failing smoke test is reported in the result
// and never removes the installed binary.
func (m *Manager) Install(ctx context.Context, key platform.Key) (*InstallResult, error) {
	startTime := time.Now()

	spec, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("resolved artifact", "platform", key.String(), "url", spec.SourceURL, "asset", spec.LocalBinaryName)

	lock, err := transaction.AcquireLock(ctx, m.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	defer lock.Release()

	// A download may outlast StaleLockThreshold.
	stopKeepAlive := lock.KeepAlive(transaction.KeepAliveInterval, func(err error) {
		m.logger.Warn("could not refresh install lock", "err", err)
	})
	defer stopKeepAlive()

	m.reportPrevious()

	txn := transaction.New(key.String(), spec.SourceURL, m.BinaryPath())
	m.saveTxn(txn)

	installer := *m.installer
	installer.onStep = func(step transaction.Step) {
		if err := lock.Refresh(); err != nil {
			m.logger.Warn("could not refresh install lock", "err", err)
		}
		txn.Advance(step)
		m.saveTxn(txn)
	}

	result, err := installer.Install(ctx, spec, m.binDir)
	if err != nil {
		// The failed entry stays in the journal until the next run reports it.
		txn.Fail(err)
		m.saveTxn(txn)
		m.logger.Debug("install failed", "id", txn.ID, "step", string(txn.Step), "err", txn.LastError)
		return nil, err
	}

	txn.Advance(transaction.StepDone)
	m.removeTxn(txn)

	stopKeepAlive()
	if err := lock.Release(); err != nil {
		m.logger.Warn("failed to release install lock", "err", err)
	}

	result.Smoke, result.SmokeErr = RunSmokeTest(ctx, result.Path, m.formula.Test)
	switch {
	case result.SmokeErr != nil:
		m.logger.Warn("smoke test could not run", "path", result.Path, "err", result.SmokeErr)
	case !result.Smoke.Passed:
		m.logger.Warn("smoke test failed", "path", result.Path, "exit", result.Smoke.ExitCode, "expect", m.formula.Test.Expect, "output", result.Smoke.Output)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// Verify runs the smoke test against the installed binary.
func (m *Manager) Verify(ctx context.Context) (*SmokeResult, error) {
	return RunSmokeTest(ctx, m.BinaryPath(), m.formula.Test)
}

// reportPrevious logs and clears journal entries left by earlier runs:
// interrupted runs and runs that failed. Completed entries are dropped
// silently.
func (m *Manager) reportPrevious() {
	dir := m.journalDir()
	txns, err := transaction.List(dir)
	if err != nil {
		m.logger.Debug("could not read install journal", "dir", dir, "err", err)
		return
	}
	for _, txn := range txns {
		started := txn.Timestamp.Format(time.RFC3339)
		switch txn.State {
		case transaction.StateFailed:
			m.logger.Warn("previous install failed",
				"id", txn.ID, "step", string(txn.Step), "target", txn.Target, "started", started, "err", txn.LastError)
		case transaction.StateCompleted:
		default:
			m.logger.Warn("previous install was interrupted",
				"id", txn.ID, "step", string(txn.Step), "target", txn.Target, "started", started)
		}
		m.removeTxn(txn)
	}
}

func (m *Manager) journalDir() string {
	return filepath.Join(m.cacheDir, "journal")
}

func (m *Manager) saveTxn(txn *transaction.InstallTxn) {
	if err := txn.Save(m.journalDir()); err != nil {
		m.logger.Debug("could not write install journal", "id", txn.ID, "err", err)
	}
}

func (m *Manager) removeTxn(txn *transaction.InstallTxn) {
	if err := txn.Remove(m.journalDir()); err != nil {
		m.logger.Debug("could not remove journal entry", "id", txn.ID, "err", err)
	}
}
