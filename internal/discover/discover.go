package discover

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// EntryPattern matches the file names treated as widget entry modules
const EntryPattern = "index.{tsx,jsx,ts,js}"

// ErrDuplicateEntry is returned when two allowed entries share a name
var ErrDuplicateEntry = errors.New("duplicate widget entry")

var entryGlob = glob.MustCompile(EntryPattern)

// Discoverer walks a source tree for widget entry modules
type Discoverer struct {
	fs     afero.Fs
	allow  map[string]struct{}
	logger *zap.Logger
}

// NewDiscoverer creates a discoverer restricted to the given widget names
func NewDiscoverer(fs afero.Fs, widgets []string, logger *zap.Logger) *Discoverer {
	allow := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		allow[w] = struct{}{}
	}

	return &Discoverer{
		fs:     fs,
		allow:  allow,
		logger: logger,
	}
}

// Discover returns the allowed entries under root in walk order. Entries whose
// name is not allowed are skipped without error.
func (d *Discoverer) Discover(root string) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]string)

	err := afero.Walk(d.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && skipDir(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !entryGlob.Match(info.Name()) {
			return nil
		}

		name := filepath.Base(filepath.Dir(path))
		if _, ok := d.allow[name]; !ok {
			d.logger.Debug("skipping entry outside allow-list",
				zap.String("widget", name), zap.String("path", path))
			return nil
		}

		if prev, ok := seen[name]; ok {
			return errors.Wrapf(ErrDuplicateEntry, "%q at %s and %s", name, prev, path)
		}

		seen[name] = path
		entries = append(entries, Entry{Name: name, EntryFile: path})

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}

	return entries, nil
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}
