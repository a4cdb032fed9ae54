package bundler

import (
	"path/filepath"

	"github.com/Norgate-AV/widgetpack/internal/discover"
)

func entryFixture(root string) discover.Entry {
	return discover.Entry{
		Name:      "solar",
		EntryFile: filepath.Join(root, "src/solar/index.ts"),
		CSSSources: []string{
			filepath.Join(root, "src/index.css"),
			filepath.Join(root, "src/solar/solar.css"),
		},
	}
}
