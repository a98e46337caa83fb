// Package settings loads skyclerk-install configuration from flags,
// SKYCLERK_INSTALL_* environment variables and an optional YAML file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Flags use the same names.
const (
	KeyConfig   = "config"
	KeyBinDir   = "bin-dir"
	KeyCacheDir = "cache-dir"
	KeyFormula  = "formula"
	KeyKeyring  = "keyring"
	KeyRetries  = "retries"
	KeyTimeout  = "timeout"
	KeyVerbose  = "verbose"
	KeyOS       = "os"
	KeyArch     = "arch"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. SKYCLERK_INSTALL_BIN_DIR.
	EnvPrefix = "SKYCLERK_INSTALL"

	// ConfigName is the config file name (without extension) searched for
	// in the user config directory.
	ConfigName = "skyclerk-install"

	AppDirName = "skyclerk-install"

	DefaultRetries = 3
	DefaultTimeout = 5 * time.Minute
)

// Settings is the resolved configuration for one run.
type Settings struct {
	BinDir   string
	CacheDir string
	// Formula is a formula file path; empty selects the built-in formula.
	Formula string
	Keyring string
	Retries int
	Timeout time.Duration
	Verbose bool

	// OS and Arch override host detection when set.
	OS   string
	Arch string

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyBinDir, defaultBinDir())
	v.SetDefault(KeyCacheDir, defaultCacheDir())
	v.SetDefault(KeyRetries, DefaultRetries)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// RegisterFlags adds the persistent configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "config file (default <user config dir>/skyclerk-install.yaml)")
	fs.String(KeyBinDir, "", "directory the skyclerk binary is installed into")
	fs.String(KeyCacheDir, "", "download cache directory")
	fs.String(KeyFormula, "", "formula file (.lua, .yaml); built-in skyclerk formula when empty")
	fs.String(KeyKeyring, "", "OpenPGP keyring for release signature checks")
	fs.String(KeyOS, "", "override detected OS family (mac, linux)")
	fs.String(KeyArch, "", "override detected architecture (arm64, intel)")
	fs.Int(KeyRetries, DefaultRetries, "download retries")
	fs.Duration(KeyTimeout, DefaultTimeout, "per-request download timeout")
	fs.BoolP(KeyVerbose, "v", false, "enable debug logging")
}

// BindFlags binds every registered flag in fs to v. Flags only take
// precedence when set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// Load reads the optional config file and resolves the settings.
// An explicitly named config file must exist; the default one may not.
func Load(v *viper.Viper) (*Settings, error) {
	v.SetConfigType("yaml")

	explicit := v.GetString(KeyConfig)
	if explicit != "" {
		v.SetConfigFile(expandHome(explicit))
	} else {
		v.SetConfigName(ConfigName)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir)
			v.AddConfigPath(filepath.Join(dir, AppDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &Settings{
		BinDir:     expandHome(v.GetString(KeyBinDir)),
		CacheDir:   expandHome(v.GetString(KeyCacheDir)),
		Formula:    expandHome(v.GetString(KeyFormula)),
		Keyring:    expandHome(v.GetString(KeyKeyring)),
		Retries:    v.GetInt(KeyRetries),
		Timeout:    v.GetDuration(KeyTimeout),
		Verbose:    v.GetBool(KeyVerbose),
		OS:         v.GetString(KeyOS),
		Arch:       v.GetString(KeyArch),
		ConfigFile: v.ConfigFileUsed(),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the resolved settings.
func (s *Settings) Validate() error {
	if s.BinDir == "" {
		return fmt.Errorf("%s is required", KeyBinDir)
	}
	if s.CacheDir == "" {
		return fmt.Errorf("%s is required", KeyCacheDir)
	}
	if s.Retries < 0 {
		return fmt.Errorf("%s must not be negative", KeyRetries)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyTimeout)
	}
	return nil
}

func defaultBinDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "bin")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppDirName)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
