// Package bundler drives esbuild for widget builds.
//
// Each widget is bundled exactly once from its synthesized module. Output is
// produced in memory (Write: false) and written through an afero filesystem so
// the rest of the pipeline sees the same files the bundler produced.
package bundler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Norgate-AV/widgetpack/internal/synth"
)

// Artifact lists the files one bundler invocation wrote
type Artifact struct {
	JS     string
	CSS    string
	Assets []string
}

// BuildFunc runs esbuild; replaced in tests
type BuildFunc func(api.BuildOptions) api.BuildResult

// Bundler invokes esbuild for one widget at a time
type Bundler struct {
	fs      afero.Fs
	opts    Options
	logger  *zap.Logger
	build   BuildFunc
	plugins []api.Plugin
}

// New creates a bundler writing through fs
func New(fs afero.Fs, opts Options, logger *zap.Logger) *Bundler {
	b := &Bundler{
		fs:     fs,
		opts:   opts,
		logger: logger,
		build:  api.Build,
	}

	if opts.SassPath != "" {
		b.plugins = append(b.plugins, SassPlugin(NewSassCompiler(opts.SassPath)))
	}

	return b
}

// Build bundles unit into name.js and name.css under the output directory
func (b *Bundler) Build(name string, unit synth.Unit) (*Artifact, error) {
	opts := b.opts.ForEntry(name, &api.StdinOptions{
		Contents:   unit.Contents,
		ResolveDir: unit.ResolveDir,
		Sourcefile: unit.Sourcefile,
		Loader:     api.LoaderJS,
	})
	opts.Plugins = b.plugins

	b.logger.Debug("bundling widget",
		zap.String("widget", name),
		zap.String("outfile", opts.Outfile),
		zap.Stringer("shape", unit.Shape))

	result := b.build(opts)
	if len(result.Errors) > 0 {
		return nil, newBuildError(name, result.Errors)
	}

	for _, w := range result.Warnings {
		b.logger.Warn("bundler warning", zap.String("widget", name), zap.String("text", w.Text))
	}

	return b.write(result.OutputFiles)
}

func (b *Bundler) write(files []api.OutputFile) (*Artifact, error) {
	art := &Artifact{}

	for _, f := range files {
		if err := b.fs.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create output directory")
		}

		if err := afero.WriteFile(b.fs, f.Path, f.Contents, 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", f.Path)
		}

		switch strings.ToLower(filepath.Ext(f.Path)) {
		case ".js":
			art.JS = f.Path
		case ".css":
			art.CSS = f.Path
		default:
			b.logger.Warn("bundler emitted a non-inlined asset", zap.String("path", f.Path))
			art.Assets = append(art.Assets, f.Path)
		}
	}

	return art, nil
}

// BuildError carries esbuild's diagnostics for one widget
type BuildError struct {
	Widget   string
	Messages []string
}

func newBuildError(widget string, msgs []api.Message) *BuildError {
	return &BuildError{
		Widget:   widget,
		Messages: formatMessages(msgs),
	}
}

func (e *BuildError) Error() string {
	return "esbuild errors for " + e.Widget + ":\n" + strings.Join(e.Messages, "\n")
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))

	for _, msg := range msgs {
		text := msg.Text
		if msg.Location != nil {
			text = fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
		}

		out = append(out, text)
	}

	return out
}
