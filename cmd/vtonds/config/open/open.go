//go:build !windows

package open

import "os"

// NewSafeFile creates a new file which only the current user can read and write.
//
// When exclusive is true and the file exists, it fails with an error satisfying os.IsExist.
// Otherwise an existing file is truncated.
func NewSafeFile(filepath string, exclusive bool) (*os.File, error) {
	flag := os.O_CREATE | os.O_RDWR | os.O_TRUNC
	if exclusive {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(filepath, flag, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	// the mode above is ignored for existing files.
	if err := f.Chmod(os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
