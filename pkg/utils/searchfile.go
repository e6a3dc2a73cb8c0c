package utils

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrSearchFile = errors.New("could not search file")

// SearchFileUpward looks for a regular file named fileName in root and its ancestors.
//
// It returns the path found nearest to root, or ErrSearchFile.
func SearchFileUpward(root string, fileName string) (string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(root, fileName)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			return candidate, nil
		}

		parent := filepath.Dir(root)
		if parent == root {
			return "", ErrSearchFile
		}
		root = parent
	}
}
