package util

import (
	"github.com/pkg/errors"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the home directory of the current user. Other paths are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrapf(err, "Unable to determine home directory to expand path %s", path)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
