// Package output turns compiled widget files into the final HTML artifacts.
//
// Compiled name.js/name.css files are first renamed to carry the release
// tag, then fused into one HTML document written as name-<tag>.html and
// name.html, and finally removed.
package output

import (
	"path/filepath"
	"strings"
)

const (
	ExtJS   = ".js"
	ExtCSS  = ".css"
	ExtHTML = ".html"
)

// Versioned returns base-tag.ext
func Versioned(base, tag, ext string) string {
	return base + "-" + tag + ext
}

// Stable returns base.ext
func Stable(base, ext string) string {
	return base + ext
}

// IsTagged reports whether a file name already carries tag
func IsTagged(name, tag string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, "-"+tag)
}
