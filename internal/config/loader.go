package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from various sources
type Loader struct {
	// Overridable for tests
	workDir       func() (string, error)
	userConfigDir func() (string, error)
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		workDir:       os.Getwd,
		userConfigDir: os.UserConfigDir,
	}
}

// LoadForBuild loads configuration specifically for build operations
func (l *Loader) LoadForBuild(cmd *cobra.Command) (*Config, error) {
	l.prepare(cmd)

	return Load()
}

// LoadForTag loads the settings and version without requiring an allow-list
func (l *Loader) LoadForTag(cmd *cobra.Command) (*Config, error) {
	l.prepare(cmd)

	cfg := Read()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	if err := cfg.ResolveVersion(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadForLedger loads the settings the ledger commands need. Neither an
// allow-list nor a version is required.
func (l *Loader) LoadForLedger(cmd *cobra.Command) (*Config, error) {
	l.prepare(cmd)

	cfg := Read()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) prepare(cmd *cobra.Command) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig()
	l.bindCommandFlags(cmd)
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("source_dir", DefaultSourceDir)
	viper.SetDefault("out_dir", DefaultOutDir)
	viper.SetDefault("package_file", DefaultPackageFile)
	viper.SetDefault("global_css", DefaultGlobalCSS)
	viper.SetDefault("css_exclude", DefaultCSSExclude)
	viper.SetDefault("minify", DefaultMinify)
	viper.SetDefault("target", DefaultTarget)
	viper.SetDefault("jsx", DefaultJSX)
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("ledger_dir", DefaultLedgerDir)
	viper.SetDefault("no_ledger", DefaultNoLedger)

	viper.SetEnvPrefix("widgetpack")
	viper.AutomaticEnv()
}

// loadGlobalConfig loads global configuration from the user config directory
func (l *Loader) loadGlobalConfig() {
	base, err := l.userConfigDir()
	if err != nil || base == "" {
		return
	}

	globalDir := filepath.Join(base, "widgetpack")

	for _, ext := range ConfigExtensions {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// loadLocalConfig merges the nearest .widgetpack.* file and records its
// directory as the project root
func (l *Loader) loadLocalConfig() {
	dir, err := l.workDir()
	if err != nil {
		return // silently ignore, config.Load() will resolve against cwd
	}

	viper.SetDefault("project_root", dir)

	localPath := FindLocalConfig(dir)
	if localPath != "" {
		viper.SetConfigFile(localPath)
		if err := viper.MergeInConfig(); err == nil {
			viper.SetDefault("project_root", filepath.Dir(localPath))
		}
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	bind := func(key, flag string) {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}

	bind("widgets", "widget")
	bind("source_dir", "src")
	bind("out_dir", "out")
	bind("version", "version-string")
	bind("verbose", "verbose")
	bind("no_ledger", "no-ledger")
	bind("sass_path", "sass")

	// --no-minify inverts the minify key
	if f := cmd.Flags().Lookup("no-minify"); f != nil && f.Changed {
		viper.Set("minify", false)
	}
}
