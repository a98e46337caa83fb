package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudmanic/skyclerk-install/internal/binary"
	"github.com/cloudmanic/skyclerk-install/internal/formula"
	"github.com/cloudmanic/skyclerk-install/internal/logging"
	"github.com/cloudmanic/skyclerk-install/internal/platform"
	"github.com/cloudmanic/skyclerk-install/internal/settings"
)

// app carries per-invocation state shared by the subcommands.
type app struct {
	v        *viper.Viper
	settings *settings.Settings
	logger   logging.Logger
	detector platform.Detector

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:        settings.New(),
		detector: platform.NewDetector(),
		stdout:   stdout,
		stderr:   stderr,
	}

	root := &cobra.Command{
		Use:   "skyclerk-install",
		Short: "Install the skyclerk CLI for this platform",
		Long: `skyclerk-install resolves the pre-built skyclerk release for the
current OS and CPU, installs it as <bin-dir>/skyclerk and checks that
"skyclerk version" runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if z, ok := a.logger.(*logging.ZapLogger); ok {
				_ = z.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	settings.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newResolveCmd(a),
		newInstallCmd(a),
		newTestCmd(a),
		newInfoCmd(a),
		newFormulaCmd(a),
		newVersionCmd(a),
	)

	return root
}

// setup loads settings and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := settings.BindFlags(a.v, cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	s, err := settings.Load(a.v)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := logging.NewZap(s.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger

	if s.ConfigFile != "" {
		a.logger.Debug("using config file", "config-file", s.ConfigFile)
	}
	return nil
}

// platformInfo detects the host and applies --os/--arch overrides.
func (a *app) platformInfo(ctx context.Context) (*platform.Info, error) {
	info, err := a.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	return info.WithOverrides(a.settings.OS, a.settings.Arch), nil
}

// loadFormula returns the configured formula file, or the built-in one.
// Lua formulas see the (possibly overridden) platform.
func (a *app) loadFormula(ctx context.Context, info *platform.Info) (*formula.Formula, error) {
	if a.settings.Formula == "" {
		return formula.Skyclerk(), nil
	}

	parser := formula.NewParser(platform.NewStaticDetector(info)).WithLogger(a.logger)
	f, err := formula.LoadFile(ctx, parser, a.settings.Formula)
	if err != nil {
		var parseErr *formula.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("load formula %s: %s", a.settings.Formula, formula.FormatError(parseErr, a.settings.Verbose))
		}
		return nil, fmt.Errorf("load formula %s: %w", a.settings.Formula, err)
	}
	a.logger.Debug("loaded formula", "path", a.settings.Formula, "name", f.Name, "artifacts", len(f.Artifacts))
	return f, nil
}

// newManager builds a binary manager for f from the loaded settings.
func (a *app) newManager(f *formula.Formula) (*binary.Manager, error) {
	var progress io.Writer
	if file, ok := a.stderr.(*os.File); ok {
		progress = binary.TerminalWriter(file)
	}

	return binary.NewManager(binary.Config{
		BinDir:      a.settings.BinDir,
		CacheDir:    a.settings.CacheDir,
		Formula:     f,
		KeyringPath: a.settings.Keyring,
		Retries:     a.settings.Retries,
		Timeout:     a.settings.Timeout,
		UserAgent:   "skyclerk-install/" + Version,
		Progress:    progress,
		Logger:      a.logger,
	})
}

// target is the resolved platform, formula and manager for one command.
type target struct {
	info    *platform.Info
	key     platform.Key
	formula *formula.Formula
	manager *binary.Manager
}

func (a *app) resolveTarget(ctx context.Context) (*target, error) {
	info, err := a.platformInfo(ctx)
	if err != nil {
		return nil, err
	}
	f, err := a.loadFormula(ctx, info)
	if err != nil {
		return nil, err
	}
	m, err := a.newManager(f)
	if err != nil {
		return nil, err
	}
	return &target{info: info, key: info.Key(), formula: f, manager: m}, nil
}
