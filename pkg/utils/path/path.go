// Package path resolves user-supplied file paths.
package path

import (
	"os"
	"path/filepath"
	"strings"
)

const tilde = "~" + string(filepath.Separator)

// Resolve returns absolute representation of path, expanding leading "~" to user's home directory.
func Resolve(pathstring string) (string, error) {
	if pathstring == "~" || strings.HasPrefix(pathstring, tilde) {
		homedir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		pathstring = filepath.Join(homedir, strings.TrimPrefix(pathstring, "~"))
	}
	return filepath.Abs(pathstring)
}
