// Package release derives the short release tag embedded in versioned
// artifact names.
package release

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Masterminds/semver/v3"
)

// TagLength is the number of hex characters in a tag
const TagLength = 4

// Tag returns the first TagLength hex characters of the SHA-256 of version.
// The tag depends only on the version string, never on build output.
func Tag(version string) string {
	sum := sha256.Sum256([]byte(version))
	return hex.EncodeToString(sum[:])[:TagLength]
}

// CheckVersion reports whether version parses as semantic version. Builds
// accept any string; callers only warn on failure.
func CheckVersion(version string) error {
	_, err := semver.StrictNewVersion(version)
	return err
}
