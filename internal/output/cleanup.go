package output

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Cleanup removes a widget's versioned .js and .css files. Call it only after
// the widget's HTML document has been written.
func Cleanup(fs afero.Fs, dir, name, tag string) error {
	var err error

	for _, ext := range []string{ExtJS, ExtCSS} {
		path := filepath.Join(dir, Versioned(name, tag, ext))
		if rmErr := fs.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}

	return err
}
