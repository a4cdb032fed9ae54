package config

import (
	"os"

	"github.com/antonholmquist/jason"
	"github.com/pkg/errors"
)

// ReadPackageVersion returns the "version" field of a package.json style file
func ReadPackageVersion(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to open package file")
	}
	defer f.Close()

	obj, err := jason.NewObjectFromReader(f)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse %s", path)
	}

	v, err := obj.GetString("version")
	if err != nil {
		return "", errors.Wrapf(err, "no version in %s", path)
	}

	return v, nil
}
