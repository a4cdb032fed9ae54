// Package synth builds the in-memory module each widget is bundled from.
//
// A widget's index module may export its component as the default export or
// as a named App export. The synthesized module hides that difference: it
// imports the widget's stylesheets in order, re-exports every named export of
// the index module and always exposes a default export.
package synth

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Norgate-AV/widgetpack/internal/discover"
)

// Shape is the export form an entry module was found to have
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeDefault entries have their own default export
	ShapeDefault
	// ShapeApp entries only have a named App export
	ShapeApp
)

func (s Shape) String() string {
	switch s {
	case ShapeDefault:
		return "default"
	case ShapeApp:
		return "App"
	default:
		return "unknown"
	}
}

// AppExport is the named export used when an entry has no default export
const AppExport = "App"

// ErrMalformedEntry is returned for entries exporting neither default nor App
var ErrMalformedEntry = errors.New("entry exports neither a default export nor App")

// Prober lists the export names of a module
type Prober interface {
	Probe(entryFile string) ([]string, error)
}

// Unit is a synthesized module. It is never written to disk.
type Unit struct {
	// Sourcefile names the unit in bundler diagnostics
	Sourcefile string

	// ResolveDir is the directory imports are resolved from
	ResolveDir string

	Contents string
	Shape    Shape
}

// ShapeOf selects the export shape from a module's export names. A default
// export wins over App.
func ShapeOf(exports []string) (Shape, error) {
	switch {
	case slices.Contains(exports, "default"):
		return ShapeDefault, nil
	case slices.Contains(exports, AppExport):
		return ShapeApp, nil
	default:
		return ShapeUnknown, ErrMalformedEntry
	}
}

// Synthesizer probes entries and renders their virtual modules
type Synthesizer struct {
	prober Prober
}

// New creates a synthesizer using prober to inspect entry exports
func New(prober Prober) *Synthesizer {
	return &Synthesizer{prober: prober}
}

// Synthesize probes e's export shape and renders its virtual module
func (s *Synthesizer) Synthesize(e discover.Entry) (Unit, error) {
	exports, err := s.prober.Probe(e.EntryFile)
	if err != nil {
		return Unit{}, errors.Wrapf(err, "failed to inspect exports of %s", e.EntryFile)
	}

	shape, err := ShapeOf(exports)
	if err != nil {
		return Unit{}, errors.Wrapf(err, "widget %q (%s)", e.Name, e.EntryFile)
	}

	return Render(e, shape)
}

// Render writes the virtual module for an entry of a known shape
func Render(e discover.Entry, shape Shape) (Unit, error) {
	entry := strconv.Quote(e.EntryFile)

	var b strings.Builder
	fmt.Fprintf(&b, "// virtual entry for %s\n", e.Name)

	for _, css := range e.CSSSources {
		fmt.Fprintf(&b, "import %s;\n", strconv.Quote(css))
	}

	fmt.Fprintf(&b, "export * from %s;\n", entry)

	switch shape {
	case ShapeDefault:
		fmt.Fprintf(&b, "export { default } from %s;\n", entry)
	case ShapeApp:
		fmt.Fprintf(&b, "export { %s as default } from %s;\n", AppExport, entry)
	default:
		return Unit{}, errors.Wrapf(ErrMalformedEntry, "widget %q", e.Name)
	}

	return Unit{
		Sourcefile: e.Name + ".entry.js",
		ResolveDir: e.Dir(),
		Contents:   b.String(),
		Shape:      shape,
	}, nil
}
