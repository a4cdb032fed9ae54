package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record describes one widget's HTML artifact for one release tag
type Record struct {
	// Widget is the widget name
	Widget string `json:"widget"`

	// Tag is the release tag embedded in the versioned file name
	Tag string `json:"tag"`

	// Version is the declared build version the tag was derived from
	Version string `json:"version"`

	// VersionedFile is the absolute path of name-<tag>.html
	VersionedFile string `json:"versioned_file"`

	// StableFile is the absolute path of name.html
	StableFile string `json:"stable_file"`

	// SHA256 of the document content
	SHA256 string `json:"sha256"`

	// Bytes is the document size
	Bytes int `json:"bytes"`

	// BuiltAt is when the document was written
	BuiltAt time.Time `json:"built_at"`
}

// HashContent returns the hex SHA-256 of data
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
