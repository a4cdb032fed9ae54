// Package discover finds widget entry modules and resolves the stylesheets
// each one is built with.
package discover

import "path/filepath"

// Entry is one widget selected for building
type Entry struct {
	// Name is the widget's directory name and its output base name
	Name string

	// EntryFile is the absolute path to the widget's index module
	EntryFile string

	// CSSSources are absolute stylesheet paths, global ones first
	CSSSources []string
}

// Dir returns the directory holding the entry module
func (e Entry) Dir() string {
	return filepath.Dir(e.EntryFile)
}
