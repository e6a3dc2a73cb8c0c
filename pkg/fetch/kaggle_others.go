//go:build !windows

package fetch

import "os"

// kaggleHome is the directory where ".kaggle" is placed: ~/.kaggle
func kaggleHome(getenv func(string) string) (string, error) {
	if home := getenv("HOME"); home != "" {
		return home, nil
	}
	return os.UserHomeDir()
}
