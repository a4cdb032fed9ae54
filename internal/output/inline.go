package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrMissingOutput is returned when a compiled file the inliner needs is absent
var ErrMissingOutput = errors.New("compiled output missing")

// Document is a written HTML artifact
type Document struct {
	Versioned string
	Stable    string
	Content   []byte
}

// Inliner fuses a widget's compiled JS and CSS into one HTML document
type Inliner struct {
	fs  afero.Fs
	dir string
	tag string
}

// NewInliner creates an inliner for one output directory and tag
func NewInliner(fs afero.Fs, dir, tag string) *Inliner {
	return &Inliner{fs: fs, dir: dir, tag: tag}
}

// Inline reads name-tag.js and name-tag.css and writes the document to
// name-tag.html and name.html. Both compiled files must exist.
func (i *Inliner) Inline(name string) (*Document, error) {
	js, err := i.read(name, ExtJS)
	if err != nil {
		return nil, err
	}

	css, err := i.read(name, ExtCSS)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Versioned: filepath.Join(i.dir, Versioned(name, i.tag, ExtHTML)),
		Stable:    filepath.Join(i.dir, Stable(name, ExtHTML)),
		Content:   RenderHTML(name, string(js), string(css)),
	}

	for _, path := range []string{doc.Versioned, doc.Stable} {
		if err := writeFileSync(i.fs, path, doc.Content); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
	}

	return doc, nil
}

func (i *Inliner) read(name, ext string) ([]byte, error) {
	path := filepath.Join(i.dir, Versioned(name, i.tag, ext))

	data, err := afero.ReadFile(i.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingOutput, "widget %q: %s", name, filepath.Base(path))
		}

		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	return data, nil
}

// RootID returns the id of the element a widget mounts into
func RootID(name string) string {
	return name + "-root"
}

// RenderHTML builds the self-contained document for a widget. JS and CSS are
// embedded verbatim apart from breaking up the sequences the HTML parser
// reacts to inside raw text: closing tags, and in scripts "<!--", which can
// start a double-escaped section that hides the real closing tag.
func RenderHTML(name, js, css string) []byte {
	var b strings.Builder

	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<style>")
	b.WriteString(breakSequence(css, "</style"))
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString("<div id=\"" + RootID(name) + "\"></div>\n")
	b.WriteString("<script type=\"module\">")
	b.WriteString(breakSequence(breakSequence(js, "</script"), "<!--"))
	b.WriteString("</script>\n</body>\n</html>\n")

	return []byte(b.String())
}

// breakSequence inserts a backslash after the '<' of every case-insensitive
// occurrence of seq, so "</script" becomes "<\/script" and "<!--" becomes
// "<\!--". Both spellings mean the same inside JS and CSS strings.
func breakSequence(s, seq string) string {
	lower := asciiLower(s)
	if !strings.Contains(lower, seq) {
		return s
	}

	var b strings.Builder
	for {
		idx := strings.Index(lower, seq)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}

		b.WriteString(s[:idx+1])
		b.WriteByte('\\')

		s = s[idx+1:]
		lower = lower[idx+1:]
	}
}

// writeFileSync writes data and flushes it to stable storage before returning
func writeFileSync(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// asciiLower lowercases A-Z only so byte offsets match the input
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}
