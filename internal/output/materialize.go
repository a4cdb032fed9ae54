package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Materializer renames freshly compiled files to their versioned names
type Materializer struct {
	fs  afero.Fs
	dir string
	tag string
}

// NewMaterializer creates a materializer for one output directory and tag
func NewMaterializer(fs afero.Fs, dir, tag string) *Materializer {
	return &Materializer{fs: fs, dir: dir, tag: tag}
}

// Materialize renames each given .js/.css file to base-tag.ext in the output
// directory and returns the new paths. Empty paths and files that are absent
// are skipped; any other extension is an error.
func (m *Materializer) Materialize(paths ...string) ([]string, error) {
	var renamed []string

	for _, src := range paths {
		if src == "" {
			continue
		}

		name := filepath.Base(src)
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ExtJS && ext != ExtCSS {
			return renamed, errors.Errorf("cannot materialize %s: not a .js or .css file", name)
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		dst := filepath.Join(m.dir, Versioned(base, m.tag, ext))

		if err := m.fs.Rename(src, dst); err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return renamed, errors.Wrapf(err, "failed to rename %s", name)
		}

		renamed = append(renamed, dst)
	}

	return renamed, nil
}
