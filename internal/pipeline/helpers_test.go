package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Norgate-AV/widgetpack/internal/bundler"
	"github.com/Norgate-AV/widgetpack/internal/ledger"
	"github.com/Norgate-AV/widgetpack/internal/synth"
)

const (
	srcDir = "/proj/src"
	outDir = "/proj/assets"
)

// fakeProber answers from a table keyed by entry file, defaulting to App
type fakeProber struct {
	exports map[string][]string
	errs    map[string]error
}

func (f *fakeProber) Probe(entryFile string) ([]string, error) {
	if err, ok := f.errs[entryFile]; ok {
		return nil, err
	}

	if exp, ok := f.exports[entryFile]; ok {
		return exp, nil
	}

	return []string{"App"}, nil
}

// fakeBundler writes name.js and name.css. The CSS is the concatenation of the
// stylesheets the unit imports, in import order.
type fakeBundler struct {
	fs     afero.Fs
	dir    string
	units  map[string]synth.Unit
	calls  []string
	errs   map[string]error
	noCSS  map[string]bool
	extras map[string]string
}

func newFakeBundler(fs afero.Fs) *fakeBundler {
	return &fakeBundler{
		fs:    fs,
		dir:   outDir,
		units: make(map[string]synth.Unit),
	}
}

func (b *fakeBundler) Build(name string, unit synth.Unit) (*bundler.Artifact, error) {
	b.calls = append(b.calls, name)
	b.units[name] = unit

	if err, ok := b.errs[name]; ok {
		return nil, err
	}

	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return nil, err
	}

	art := &bundler.Artifact{JS: filepath.Join(b.dir, name+".js")}
	if err := afero.WriteFile(b.fs, art.JS, []byte("export default '"+name+"';"), 0o644); err != nil {
		return nil, err
	}

	if !b.noCSS[name] {
		var css strings.Builder
		for _, line := range strings.Split(unit.Contents, "\n") {
			if !strings.HasPrefix(line, "import ") {
				continue
			}

			path, err := strconv.Unquote(strings.TrimSuffix(strings.TrimPrefix(line, "import "), ";"))
			if err != nil {
				return nil, err
			}

			data, err := afero.ReadFile(b.fs, path)
			if err != nil {
				return nil, err
			}

			css.Write(data)
		}

		art.CSS = filepath.Join(b.dir, name+".css")
		if err := afero.WriteFile(b.fs, art.CSS, []byte(css.String()), 0o644); err != nil {
			return nil, err
		}
	}

	for rel, content := range b.extras {
		path := filepath.Join(b.dir, rel)
		if err := b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}

		if err := afero.WriteFile(b.fs, path, []byte(content), 0o644); err != nil {
			return nil, err
		}

		art.Assets = append(art.Assets, path)
	}

	return art, nil
}

type fakeRecorder struct {
	records []ledger.Record
	err     error
}

func (r *fakeRecorder) Get(widget, tag string) (*ledger.Record, error) {
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Widget == widget && r.records[i].Tag == tag {
			rec := r.records[i]
			return &rec, nil
		}
	}

	return nil, nil
}

func (r *fakeRecorder) Record(rec ledger.Record) error {
	if r.err != nil {
		return r.err
	}

	r.records = append(r.records, rec)
	return nil
}

func seed(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()

	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
}

func options(version string, widgets ...string) Options {
	return Options{
		SourceDir:  srcDir,
		OutDir:     outDir,
		Version:    version,
		Widgets:    widgets,
		GlobalCSS:  []string{filepath.Join(srcDir, "index.css")},
		CSSExclude: "*.module.*",
	}
}

func newTestPipeline(t *testing.T, fs afero.Fs, opts Options, p synth.Prober, b Bundler) *Pipeline {
	t.Helper()

	pl, err := New(fs, opts, p, b, zap.NewNop())
	require.NoError(t, err)

	return pl
}

// listOut returns the file names in the output directory, ignoring subdirectories
func listOut(t *testing.T, fs afero.Fs) []string {
	t.Helper()

	infos, err := afero.ReadDir(fs, outDir)
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}

	return names
}
