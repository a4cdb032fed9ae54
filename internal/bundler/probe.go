package bundler

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// probeExternal matches imports the probe never loads
const probeExternal = `\.(css|pcss|scss|sass|png|jpe?g|gif|webp|avif|svg|woff2?|ttf|otf|eot)$`

// metafile holds the parts of esbuild's metafile the probe reads
type metafile struct {
	Outputs map[string]struct {
		EntryPoint string   `json:"entryPoint"`
		Exports    []string `json:"exports"`
	} `json:"outputs"`
}

// ExportProber lists a module's exports with a metadata-only esbuild pass.
// Packages and stylesheets stay external so only the module's own source
// graph is read.
type ExportProber struct {
	opts  Options
	build BuildFunc
}

// NewExportProber creates a prober sharing the run's target and JSX settings
func NewExportProber(opts Options) *ExportProber {
	return &ExportProber{
		opts:  opts,
		build: api.Build,
	}
}

// Probe returns the export names of entryFile
func (p *ExportProber) Probe(entryFile string) ([]string, error) {
	result := p.build(api.BuildOptions{
		EntryPoints: []string{entryFile},
		Bundle:      true,
		Write:       false,
		Metafile:    true,
		Format:      api.FormatESModule,
		Platform:    api.PlatformBrowser,
		Target:      ParseTarget(p.opts.Target),
		JSX:         ParseJSX(p.opts.JSX),
		Packages:    api.PackagesExternal,
		LogLevel:    api.LogLevelSilent,
		// nothing is written; the directory only has to differ from the source
		Outdir:  filepath.Join(filepath.Dir(entryFile), ".probe"),
		Plugins: []api.Plugin{externalAssetsPlugin()},
	})
	if len(result.Errors) > 0 {
		name := filepath.Base(filepath.Dir(entryFile))
		return nil, newBuildError(name, result.Errors)
	}

	return exportsOf(result.Metafile)
}

func exportsOf(raw string) ([]string, error) {
	var meta metafile
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, errors.Wrap(err, "failed to parse metafile")
	}

	for path, out := range meta.Outputs {
		if out.EntryPoint != "" && strings.HasSuffix(path, ".js") {
			return out.Exports, nil
		}
	}

	return nil, errors.New("no entry point found in metafile")
}

func externalAssetsPlugin() api.Plugin {
	return api.Plugin{
		Name: "probe-externals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: probeExternal},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
		},
	}
}
