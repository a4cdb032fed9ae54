// Package pipeline builds every allowed widget into its HTML artifacts.
//
// Entries are discovered up front and queued in discovery order. A single
// worker takes them one at a time through:
//
//  1. CSS resolution (global stylesheets first, then the widget's own)
//  2. Virtual entry synthesis
//  3. Bundling
//  4. Renaming name.js/name.css to their versioned names
//  5. Inlining into name-<tag>.html and name.html
//  6. Removing the versioned .js/.css
//  7. Recording the build in the ledger, when one is attached
//
// The first failure stops the run. Widgets completed before it keep their
// artifacts.
package pipeline

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Norgate-AV/widgetpack/internal/bundler"
	"github.com/Norgate-AV/widgetpack/internal/discover"
	"github.com/Norgate-AV/widgetpack/internal/ledger"
	"github.com/Norgate-AV/widgetpack/internal/output"
	"github.com/Norgate-AV/widgetpack/internal/release"
	"github.com/Norgate-AV/widgetpack/internal/synth"
)

var errNoVersion = errors.New("build version not specified")

// Bundler compiles a synthesized unit into name.js and name.css
type Bundler interface {
	Build(name string, unit synth.Unit) (*bundler.Artifact, error)
}

// Recorder stores the record of a completed widget
type Recorder interface {
	Get(widget, tag string) (*ledger.Record, error)
	Record(r ledger.Record) error
}

// Options configures a pipeline run
type Options struct {
	SourceDir  string
	OutDir     string
	Version    string
	Widgets    []string
	GlobalCSS  []string
	CSSExclude string
}

// Built describes one completed widget
type Built struct {
	Name      string
	Versioned string
	Stable    string
	Bytes     int
	SHA256    string
}

// Report is the result of a run
type Report struct {
	Version string
	Tag     string
	Built   []Built
}

// Pipeline runs the build stages for every allowed entry
type Pipeline struct {
	fs          afero.Fs
	opts        Options
	tag         string
	discoverer  *discover.Discoverer
	resolver    *discover.CSSResolver
	synthesizer *synth.Synthesizer
	bundler     Bundler
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a pipeline. The release tag is derived from opts.Version once
// here and used by every stage.
func New(fs afero.Fs, opts Options, prober synth.Prober, b Bundler, logger *zap.Logger) (*Pipeline, error) {
	if opts.Version == "" {
		return nil, fail("", StageDiscover, errNoVersion)
	}

	resolver, err := discover.NewCSSResolver(fs, opts.GlobalCSS, opts.CSSExclude)
	if err != nil {
		return nil, fail("", StageDiscover, err)
	}

	return &Pipeline{
		fs:          fs,
		opts:        opts,
		tag:         release.Tag(opts.Version),
		discoverer:  discover.NewDiscoverer(fs, opts.Widgets, logger),
		resolver:    resolver,
		synthesizer: synth.New(prober),
		bundler:     b,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// WithRecorder attaches a ledger to the pipeline
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// Tag returns the release tag of this run
func (p *Pipeline) Tag() string {
	return p.tag
}

// Run builds every allowed entry in discovery order and stops at the first
// failure. The report lists the widgets completed before any failure.
func (p *Pipeline) Run() (*Report, error) {
	report := &Report{
		Version: p.opts.Version,
		Tag:     p.tag,
	}

	if err := release.CheckVersion(p.opts.Version); err != nil {
		p.logger.Warn("version is not semantic", zap.String("version", p.opts.Version))
	}

	entries, err := p.discoverer.Discover(p.opts.SourceDir)
	if err != nil {
		return report, fail("", StageDiscover, err)
	}

	if len(entries) == 0 {
		p.logger.Warn("no allowed widget entries found", zap.String("source", p.opts.SourceDir))
		return report, nil
	}

	p.logger.Info("building widgets",
		zap.Int("count", len(entries)),
		zap.String("version", p.opts.Version),
		zap.String("tag", p.tag))

	err = newQueue(entries).drain(func(e discover.Entry) error {
		built, err := p.build(e)
		if err != nil {
			return err
		}

		report.Built = append(report.Built, *built)
		return nil
	})

	return report, err
}

func (p *Pipeline) build(e discover.Entry) (*Built, error) {
	log := p.logger.With(zap.String("widget", e.Name))
	start := p.now()

	resolved, err := p.resolver.Resolve(e)
	if err != nil {
		return nil, fail(e.Name, StageResolve, err)
	}

	e = resolved

	log.Debug("resolved stylesheets", zap.Strings("css", e.CSSSources))

	unit, err := p.synthesizer.Synthesize(e)
	if err != nil {
		return nil, fail(e.Name, StageSynthesize, err)
	}

	art, err := p.bundler.Build(e.Name, unit)
	if err != nil {
		return nil, fail(e.Name, StageBundle, err)
	}

	if _, err := output.NewMaterializer(p.fs, p.opts.OutDir, p.tag).Materialize(art.JS, art.CSS); err != nil {
		return nil, fail(e.Name, StageMaterialize, err)
	}

	doc, err := output.NewInliner(p.fs, p.opts.OutDir, p.tag).Inline(e.Name)
	if err != nil {
		return nil, fail(e.Name, StageInline, err)
	}

	if err := output.Cleanup(p.fs, p.opts.OutDir, e.Name, p.tag); err != nil {
		return nil, fail(e.Name, StageCleanup, err)
	}

	built := &Built{
		Name:      e.Name,
		Versioned: doc.Versioned,
		Stable:    doc.Stable,
		Bytes:     len(doc.Content),
		SHA256:    ledger.HashContent(doc.Content),
	}

	if p.recorder != nil {
		if err := p.record(log, built); err != nil {
			return nil, fail(e.Name, StageRecord, err)
		}
	}

	log.Info("built widget",
		zap.String("html", built.Versioned),
		zap.Int("bytes", built.Bytes),
		zap.Duration("elapsed", p.now().Sub(start)))

	return built, nil
}

// record stores built in the ledger. Rebuilding an unchanged version reuses
// the versioned file name, so a recorded tag whose content changed is
// reported before it is replaced.
func (p *Pipeline) record(log *zap.Logger, built *Built) error {
	prev, err := p.recorder.Get(built.Name, p.tag)
	if err != nil {
		return err
	}

	if prev != nil && prev.SHA256 != built.SHA256 {
		log.Warn("versioned file overwritten with different content; bump the version to keep both",
			zap.String("html", built.Versioned),
			zap.String("version", p.opts.Version),
			zap.Time("previous_build", prev.BuiltAt))
	}

	return p.recorder.Record(ledger.Record{
		Widget:        built.Name,
		Tag:           p.tag,
		Version:       p.opts.Version,
		VersionedFile: built.Versioned,
		StableFile:    built.Stable,
		SHA256:        built.SHA256,
		Bytes:         built.Bytes,
		BuiltAt:       p.now(),
	})
}
