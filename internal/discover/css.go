package discover

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// StylesheetExtensions are the extensions collected next to an entry
var StylesheetExtensions = []string{".css", ".pcss", ".scss", ".sass"}

// CSSResolver computes the ordered stylesheet list for each entry
type CSSResolver struct {
	fs      afero.Fs
	globals []string
	exclude glob.Glob
}

// NewCSSResolver fixes the global stylesheet set, dropping paths that do not
// exist. exclude is matched against stylesheet base names.
func NewCSSResolver(fs afero.Fs, globals []string, exclude string) (*CSSResolver, error) {
	g, err := glob.Compile(exclude)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid exclusion pattern %q", exclude)
	}

	existing := make([]string, 0, len(globals))
	for _, p := range globals {
		if exists(fs, p) {
			existing = append(existing, p)
		}
	}

	return &CSSResolver{
		fs:      fs,
		globals: existing,
		exclude: g,
	}, nil
}

// Globals returns the global stylesheets that exist
func (r *CSSResolver) Globals() []string {
	return append([]string(nil), r.globals...)
}

// Resolve returns a copy of e with CSSSources set to the global stylesheets
// followed by those found under the entry's directory.
func (r *CSSResolver) Resolve(e Entry) (Entry, error) {
	local, err := r.local(e.Dir())
	if err != nil {
		return Entry{}, err
	}

	sources := make([]string, 0, len(r.globals)+len(local))
	for _, p := range append(r.Globals(), local...) {
		if exists(r.fs, p) {
			sources = append(sources, p)
		}
	}

	e.CSSSources = sources

	return e, nil
}

func (r *CSSResolver) local(dir string) ([]string, error) {
	var found []string

	err := afero.Walk(r.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && skipDir(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if r.IsStylesheet(info.Name()) {
			found = append(found, path)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan stylesheets in %s", dir)
	}

	return found, nil
}

// IsStylesheet reports whether a file name is a collectable stylesheet
func (r *CSSResolver) IsStylesheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))

	for _, want := range StylesheetExtensions {
		if ext == want {
			return !r.exclude.Match(name)
		}
	}

	return false
}

func exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
