package bundler

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// Commander interface for testing
type Commander interface {
	Output() ([]byte, error)
}

// SassCompiler runs an external sass binary and returns the compiled CSS
type SassCompiler struct {
	path        string
	execCommand func(name string, args ...string) Commander
}

// NewSassCompiler creates a compiler for the sass binary at path
func NewSassCompiler(path string) *SassCompiler {
	return &SassCompiler{
		path: path,
		execCommand: func(name string, args ...string) Commander {
			return exec.Command(name, args...)
		},
	}
}

// Args builds the sass command line for one stylesheet
func (s *SassCompiler) Args(file string) []string {
	return []string{"--no-source-map", "--load-path", filepath.Dir(file), file}
}

// Compile compiles one .scss or .sass file
func (s *SassCompiler) Compile(file string) (string, error) {
	out, err := s.execCommand(s.path, s.Args(file)...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", errors.Errorf("sass failed for %s: %s", file, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return "", errors.Wrapf(err, "sass failed for %s", file)
	}

	return string(out), nil
}

// SassPlugin loads .scss and .sass files through the compiler
func SassPlugin(c *SassCompiler) api.Plugin {
	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.s[ac]ss$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					css, err := c.Compile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					return api.OnLoadResult{
						Contents:   &css,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})
		},
	}
}
