package bundler

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// Options configure every bundler invocation of a run
type Options struct {
	// Directory the compiled files are written to
	OutDir string

	Minify bool

	// Language target and JSX mode, as accepted by config
	Target string
	JSX    string

	// Path to a sass binary; empty loads .scss/.sass as plain CSS
	SassPath string
}

// AssetNames is the naming template for emitted non-CSS assets
const AssetNames = "assets/[name]-[hash]"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var jsxModes = map[string]api.JSX{
	"automatic": api.JSXAutomatic,
	"transform": api.JSXTransform,
	"preserve":  api.JSXPreserve,
}

// Loaders maps extensions esbuild does not handle natively
var Loaders = map[string]api.Loader{
	".pcss":  api.LoaderCSS,
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".avif":  api.LoaderFile,
	".svg":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".otf":   api.LoaderFile,
	".eot":   api.LoaderFile,
}

// ParseTarget maps a target name to esbuild's constant, defaulting to ES2020
func ParseTarget(name string) api.Target {
	if t, ok := targets[name]; ok {
		return t
	}

	return api.ES2020
}

// ParseJSX maps a JSX mode name to esbuild's constant, defaulting to automatic
func ParseJSX(name string) api.JSX {
	if j, ok := jsxModes[name]; ok {
		return j
	}

	return api.JSXAutomatic
}

// Preset returns the shared application preset. Like most frontend tooling
// defaults it enables code splitting with hashed chunk names; ForEntry strips
// those settings.
func (o Options) Preset() api.BuildOptions {
	minify := o.Minify

	loaders := make(map[string]api.Loader, len(Loaders)+2)
	for ext, l := range Loaders {
		loaders[ext] = l
	}

	if o.SassPath == "" {
		loaders[".scss"] = api.LoaderCSS
		loaders[".sass"] = api.LoaderCSS
	}

	return api.BuildOptions{
		Bundle:            true,
		Write:             false,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            ParseTarget(o.Target),
		JSX:               ParseJSX(o.JSX),
		TreeShaking:       api.TreeShakingTrue,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		Loader:            loaders,
		LogLevel:          api.LogLevelSilent,
		Splitting:         true,
		ChunkNames:        "chunks/[name]-[hash]",
		EntryNames:        "[name]-[hash]",
		AssetNames:        AssetNames,
		Outdir:            o.OutDir,
	}
}

// ForEntry returns the build options for one widget's synthesized module.
// Output is name.js plus name.css in OutDir.
func (o Options) ForEntry(name string, stdin *api.StdinOptions) api.BuildOptions {
	opts := o.Preset()
	StripChunking(&opts)

	opts.Stdin = stdin
	opts.Outdir = ""
	opts.Outfile = filepath.Join(o.OutDir, name+".js")

	return opts
}

// StripChunking removes every setting that could split output into more than
// one JS or CSS file. With splitting off esbuild inlines dynamic imports.
func StripChunking(opts *api.BuildOptions) {
	opts.Splitting = false
	opts.ChunkNames = ""
	opts.EntryNames = ""
}
