package config

import (
	"path/filepath"
	"slices"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/widgetpack/internal/utils"
)

// Default configuration values
const (
	DefaultSourceDir   = "src"
	DefaultOutDir      = "assets"
	DefaultPackageFile = "package.json"
	DefaultCSSExclude  = "*.module.*"
	DefaultMinify      = true
	DefaultTarget      = "es2020"
	DefaultJSX         = "automatic"
	DefaultVerbose     = false
	DefaultLedgerDir   = ".widgetpack-cache"
	DefaultNoLedger    = false
)

// DefaultGlobalCSS lists the stylesheets applied to every widget
var DefaultGlobalCSS = []string{"src/index.css"}

// Targets are the accepted JavaScript language targets
var Targets = []string{"es2015", "es2016", "es2017", "es2018", "es2019", "es2020", "es2021", "es2022", "esnext"}

// JSXModes are the accepted JSX transform modes
var JSXModes = []string{"automatic", "transform", "preserve"}

var ErrNoWidgets = errors.New("no widgets in allow-list")

var ErrNoVersion = errors.New("build version not specified")

// Holds the configuration options for widgetpack
type Config struct {
	// Directory relative paths are resolved against
	ProjectRoot string

	// Root of the tree scanned for widget entries
	SourceDir string

	// Directory receiving the HTML artifacts
	OutDir string

	// Allow-list of widget names
	Widgets []string

	// Declared build version; falls back to the package file
	Version string

	// Package metadata file consulted when Version is empty
	PackageFile string

	// Stylesheets prepended to every widget, in order
	GlobalCSS []string

	// Glob for stylesheet names that are never included
	CSSExclude string

	Minify bool
	Target string
	JSX    string

	// Path to a sass binary; empty loads .scss/.sass as plain CSS
	SassPath string

	// Enable verbose output
	Verbose bool

	// Build ledger location and toggle
	LedgerDir string
	NoLedger  bool
}

// Load reads the configuration from viper and validates it for a build
func Load() (*Config, error) {
	cfg := Read()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read builds a Config from viper and fills in defaults. Nothing is validated.
func Read() *Config {
	cfg := &Config{
		ProjectRoot: viper.GetString("project_root"),
		SourceDir:   viper.GetString("source_dir"),
		OutDir:      viper.GetString("out_dir"),
		Widgets:     utils.ParseNames(viper.GetStringSlice("widgets")),
		Version:     viper.GetString("version"),
		PackageFile: viper.GetString("package_file"),
		GlobalCSS:   viper.GetStringSlice("global_css"),
		CSSExclude:  viper.GetString("css_exclude"),
		Minify:      viper.GetBool("minify"),
		Target:      viper.GetString("target"),
		JSX:         viper.GetString("jsx"),
		SassPath:    viper.GetString("sass_path"),
		Verbose:     viper.GetBool("verbose"),
		LedgerDir:   viper.GetString("ledger_dir"),
		NoLedger:    viper.GetBool("no_ledger"),
	}

	// Apply defaults if not set
	if cfg.SourceDir == "" {
		cfg.SourceDir = DefaultSourceDir
	}

	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}

	if cfg.PackageFile == "" {
		cfg.PackageFile = DefaultPackageFile
	}

	if cfg.CSSExclude == "" {
		cfg.CSSExclude = DefaultCSSExclude
	}

	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}

	if cfg.JSX == "" {
		cfg.JSX = DefaultJSX
	}

	if cfg.LedgerDir == "" {
		cfg.LedgerDir = DefaultLedgerDir
	}

	return cfg
}

// Validate checks a build configuration: a non-empty allow-list, valid
// settings and a known version
func (c *Config) Validate() error {
	if len(c.Widgets) == 0 {
		return ErrNoWidgets
	}

	if err := c.Normalize(); err != nil {
		return err
	}

	return c.ResolveVersion()
}

// Normalize resolves every path against the project root and checks the
// exclusion pattern, target and JSX mode
func (c *Config) Normalize() error {
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return errors.Wrapf(err, "invalid project root %q", c.ProjectRoot)
	}

	c.ProjectRoot = root

	for _, p := range []*string{&c.SourceDir, &c.OutDir, &c.PackageFile, &c.LedgerDir} {
		*p = c.resolve(*p)
	}

	globals := make([]string, len(c.GlobalCSS))
	for i, css := range c.GlobalCSS {
		globals[i] = c.resolve(css)
	}

	c.GlobalCSS = globals

	if _, err := glob.Compile(c.CSSExclude); err != nil {
		return errors.Wrapf(err, "invalid css_exclude pattern %q", c.CSSExclude)
	}

	if !slices.Contains(Targets, c.Target) {
		return errors.Errorf("invalid target: %s", c.Target)
	}

	if !slices.Contains(JSXModes, c.JSX) {
		return errors.Errorf("invalid jsx mode: %s", c.JSX)
	}

	return nil
}

// ResolveVersion falls back to the package file when no version is declared
func (c *Config) ResolveVersion() error {
	if c.Version == "" {
		v, err := ReadPackageVersion(c.PackageFile)
		if err != nil {
			return errors.Wrap(ErrNoVersion, err.Error())
		}

		c.Version = v
	}

	if c.Version == "" {
		return ErrNoVersion
	}

	return nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(c.ProjectRoot, p)
}
