package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Norgate-AV/widgetpack/internal/bundler"
	"github.com/Norgate-AV/widgetpack/internal/codes"
	"github.com/Norgate-AV/widgetpack/internal/release"
)

func entryErr(t *testing.T, err error) *EntryError {
	t.Helper()

	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr), "expected *EntryError, got %T: %v", err, err)

	return entryErr
}

func TestPipeline_AllowListFiltering(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/index.css":        ".global{}",
		srcDir + "/pizzaz/index.tsx": "export function App() {}",
		srcDir + "/other/index.tsx":  "export default 1",
	})

	b := newFakeBundler(fs)
	p := newTestPipeline(t, fs, options("1.2.3", "pizzaz"), &fakeProber{}, b)

	report, err := p.Run()
	require.NoError(t, err)

	assert.Equal(t, "c47f", report.Tag)
	require.Len(t, report.Built, 1)
	assert.Equal(t, "pizzaz", report.Built[0].Name)
	assert.Equal(t, []string{"pizzaz"}, b.calls)
	assert.ElementsMatch(t, []string{"pizzaz.html", "pizzaz-c47f.html"}, listOut(t, fs))
}

func TestPipeline_StableMatchesVersioned(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/index.css":       ".global{}",
		srcDir + "/solar/index.ts":  "export default 1",
		srcDir + "/solar/solar.css": ".solar{}",
	})

	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs))

	report, err := p.Run()
	require.NoError(t, err)
	require.Len(t, report.Built, 1)

	built := report.Built[0]
	assert.Equal(t, filepath.Join(outDir, "solar-c47f.html"), built.Versioned)
	assert.Equal(t, filepath.Join(outDir, "solar.html"), built.Stable)

	versioned, err := afero.ReadFile(fs, built.Versioned)
	require.NoError(t, err)
	stable, err := afero.ReadFile(fs, built.Stable)
	require.NoError(t, err)

	assert.Equal(t, versioned, stable)
	assert.Equal(t, len(stable), built.Bytes)
	assert.Contains(t, string(stable), `<div id="solar-root"></div>`)

	for _, leftover := range []string{"solar.js", "solar.css", "solar-c47f.js", "solar-c47f.css"} {
		ok, err := afero.Exists(fs, filepath.Join(outDir, leftover))
		require.NoError(t, err)
		assert.False(t, ok, "%s should be removed", leftover)
	}
}

func TestPipeline_GlobalCSSFirstAndModuleExcluded(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/index.css":              ".global-rule{}",
		srcDir + "/kanban/index.tsx":       "export default 1",
		srcDir + "/kanban/board.css":       ".local-rule{}",
		srcDir + "/kanban/card.module.css": ".excluded-rule{}",
	})

	b := newFakeBundler(fs)
	p := newTestPipeline(t, fs, options("1.2.3", "kanban"), &fakeProber{}, b)

	report, err := p.Run()
	require.NoError(t, err)

	assert.NotContains(t, b.units["kanban"].Contents, "card.module.css")

	html, err := afero.ReadFile(fs, report.Built[0].Stable)
	require.NoError(t, err)

	g := strings.Index(string(html), ".global-rule")
	l := strings.Index(string(html), ".local-rule")
	require.NotEqual(t, -1, g)
	require.NotEqual(t, -1, l)
	assert.Less(t, g, l)
	assert.NotContains(t, string(html), ".excluded-rule")
}

func TestPipeline_VersionChange(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/index.css":       ".global{}",
		srcDir + "/solar/index.ts":  "export default 1",
		srcDir + "/solar/solar.css": ".solar{}",
	})

	run := func(version string) *Report {
		p := newTestPipeline(t, fs, options(version, "solar"), &fakeProber{}, newFakeBundler(fs))
		report, err := p.Run()
		require.NoError(t, err)
		return report
	}

	first := run("1.2.3")
	again := run("1.2.3")
	assert.Equal(t, first.Built[0].Versioned, again.Built[0].Versioned)
	assert.ElementsMatch(t, []string{"solar.html", "solar-c47f.html"}, listOut(t, fs))

	next := run("1.3.0")
	tag := release.Tag("1.3.0")
	assert.Equal(t, filepath.Join(outDir, "solar-"+tag+".html"), next.Built[0].Versioned)
	assert.ElementsMatch(t, []string{"solar.html", "solar-c47f.html", "solar-" + tag + ".html"}, listOut(t, fs))
}

func TestPipeline_MalformedEntryStopsRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/index.css":       ".global{}",
		srcDir + "/alpha/index.ts":  "export default 1",
		srcDir + "/broken/index.ts": "export const Widget = 1",
		srcDir + "/zeta/index.ts":   "export default 1",
	})

	prober := &fakeProber{exports: map[string][]string{
		srcDir + "/broken/index.ts": {"Widget"},
	}}
	b := newFakeBundler(fs)
	p := newTestPipeline(t, fs, options("1.2.3", "alpha", "broken", "zeta"), prober, b)

	report, err := p.Run()
	require.Error(t, err)

	e := entryErr(t, err)
	assert.Equal(t, "broken", e.Entry)
	assert.Equal(t, StageSynthesize, e.Stage)
	assert.Equal(t, codes.KindMalformedEntry, e.Kind)
	assert.Contains(t, err.Error(), "broken")

	require.Len(t, report.Built, 1)
	assert.Equal(t, "alpha", report.Built[0].Name)
	assert.Equal(t, []string{"alpha"}, b.calls)
	assert.ElementsMatch(t, []string{"alpha.html", "alpha-c47f.html"}, listOut(t, fs))
}

func TestPipeline_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *fakeBundler, p *fakeProber)
		stage   Stage
		kind    codes.Kind
		outputs []string
	}{
		{
			name: "bundler diagnostics",
			setup: func(b *fakeBundler, _ *fakeProber) {
				b.errs = map[string]error{"solar": &bundler.BuildError{Widget: "solar", Messages: []string{"index.ts:1:1: boom"}}}
			},
			stage: StageBundle,
			kind:  codes.KindBundler,
		},
		{
			name: "probe failure",
			setup: func(_ *fakeBundler, p *fakeProber) {
				p.errs = map[string]error{srcDir + "/solar/index.ts": errors.New("parse error")}
			},
			stage: StageSynthesize,
			kind:  codes.KindBundler,
		},
		{
			name: "missing css output",
			setup: func(b *fakeBundler, _ *fakeProber) {
				b.noCSS = map[string]bool{"solar": true}
			},
			stage:   StageInline,
			kind:    codes.KindMissingOutput,
			outputs: []string{"solar-c47f.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			seed(t, fs, map[string]string{
				srcDir + "/solar/index.ts": "export default 1",
				srcDir + "/solar/a.css":    ".a{}",
			})

			b := newFakeBundler(fs)
			prober := &fakeProber{}
			tt.setup(b, prober)

			p := newTestPipeline(t, fs, options("1.2.3", "solar"), prober, b)

			_, err := p.Run()
			e := entryErr(t, err)
			assert.Equal(t, "solar", e.Entry)
			assert.Equal(t, tt.stage, e.Stage)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.kind, KindOf(err))

			ok, err := afero.Exists(fs, filepath.Join(outDir, "solar.html"))
			require.NoError(t, err)
			assert.False(t, ok)

			if tt.outputs != nil {
				assert.ElementsMatch(t, tt.outputs, listOut(t, fs))
			}
		})
	}
}

func TestPipeline_NonCSSAssetsAreKept(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/solar/index.ts": "export default 1",
		srcDir + "/solar/a.css":    ".a{}",
	})

	b := newFakeBundler(fs)
	b.extras = map[string]string{"assets/logo-X7Q2.png": "png"}

	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, b)

	_, err := p.Run()
	require.NoError(t, err)

	ok, err := afero.Exists(fs, filepath.Join(outDir, "assets/logo-X7Q2.png"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPipeline_DuplicateEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/a/solar/index.ts": "export default 1",
		srcDir + "/b/solar/index.ts": "export default 1",
	})

	b := newFakeBundler(fs)
	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, b)

	_, err := p.Run()
	e := entryErr(t, err)
	assert.Equal(t, StageDiscover, e.Stage)
	assert.Equal(t, codes.KindConfig, e.Kind)
	assert.Empty(t, b.calls)
}

func TestPipeline_NoEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{srcDir + "/other/index.ts": "export default 1"})

	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs))

	report, err := p.Run()
	require.NoError(t, err)
	assert.Empty(t, report.Built)
}

func TestPipeline_Recorder(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/solar/index.ts": "export default 1",
		srcDir + "/solar/a.css":    ".a{}",
	})

	rec := &fakeRecorder{}
	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs)).WithRecorder(rec)

	report, err := p.Run()
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, "solar", r.Widget)
	assert.Equal(t, "c47f", r.Tag)
	assert.Equal(t, "1.2.3", r.Version)
	assert.Equal(t, report.Built[0].Versioned, r.VersionedFile)
	assert.Equal(t, report.Built[0].SHA256, r.SHA256)
	assert.False(t, r.BuiltAt.IsZero())
}

func TestPipeline_RecordedTagOverwritten(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/solar/index.ts": "export default 1",
		srcDir + "/solar/a.css":    ".a{}",
	})

	rec := &fakeRecorder{}
	run := func() *observer.ObservedLogs {
		core, logs := observer.New(zap.WarnLevel)
		p, err := New(fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs), zap.New(core))
		require.NoError(t, err)

		_, err = p.WithRecorder(rec).Run()
		require.NoError(t, err)
		return logs
	}

	first := run()
	assert.Zero(t, first.FilterMessageSnippet("overwritten").Len())

	// same content under the same tag is a silent rebuild
	same := run()
	assert.Zero(t, same.FilterMessageSnippet("overwritten").Len())

	seed(t, fs, map[string]string{srcDir + "/solar/a.css": ".a{color:red}"})
	changed := run()
	warnings := changed.FilterMessageSnippet("overwritten").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "solar", warnings[0].ContextMap()["widget"])
	assert.Len(t, rec.records, 3)
}

func TestPipeline_MaterializesOnlyBundlerOutputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/solar/index.ts": "export default 1",
		srcDir + "/solar/a.css":    ".a{}",
		outDir + "/vendor.js":      "stray",
	})

	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs))

	_, err := p.Run()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"solar.html", "solar-c47f.html", "vendor.js"}, listOut(t, fs))
}

func TestPipeline_RecorderFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, map[string]string{
		srcDir + "/solar/index.ts": "export default 1",
		srcDir + "/solar/a.css":    ".a{}",
	})

	rec := &fakeRecorder{err: errors.New("database locked")}
	p := newTestPipeline(t, fs, options("1.2.3", "solar"), &fakeProber{}, newFakeBundler(fs)).WithRecorder(rec)

	_, err := p.Run()
	e := entryErr(t, err)
	assert.Equal(t, StageRecord, e.Stage)
	assert.Equal(t, codes.KindIO, e.Kind)
}

func TestNew_Validation(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := New(fs, options("", "solar"), &fakeProber{}, newFakeBundler(fs), nil)
	assert.Equal(t, codes.KindConfig, KindOf(err))

	opts := options("1.2.3", "solar")
	opts.CSSExclude = "["
	_, err = New(fs, opts, &fakeProber{}, newFakeBundler(fs), nil)
	assert.Equal(t, codes.KindConfig, KindOf(err))
}
