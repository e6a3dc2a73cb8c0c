package walk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

var ErrLoopSymlink = errors.New("symlink loop detected")

// File is a regular file found under a root directory.
type File struct {
	// Path is the full path of the file.
	Path string

	// Rel is the path relative to the walk root, with OS separators.
	Rel string

	Info fs.FileInfo
}

type option struct {
	followSymlinks bool
}

type Option func(*option) *option

// FollowSymlinks lets Files descend into symlinked directories.
//
// Without this option, symlinks are reported as they are (not as regular files).
func FollowSymlinks() Option {
	return func(o *option) *option {
		o.followSymlinks = true
		return o
	}
}

// Files calls callback for each regular file under root, in lexical order.
//
// # Args
//
// - ctx: when it is done, walking stops with ctx.Err().
//
// - root: directory (or a single file) to be walked.
//
// - callback: called for each regular file. If it returns an error, walking stops
// and the error is returned.
func Files(ctx context.Context, root string, callback func(File) error, options ...Option) error {
	opt := &option{}
	for _, o := range options {
		opt = o(opt)
	}

	absroot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	return findFiles(absroot, opt.followSymlinks, func(fullpath string, info fs.FileInfo) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(absroot, fullpath)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = filepath.Base(fullpath)
		}
		return callback(File{Path: fullpath, Rel: rel, Info: info})
	})
}

// Collect returns all regular files under root.
func Collect(ctx context.Context, root string, options ...Option) ([]File, error) {
	files := []File{}
	err := Files(ctx, root, func(f File) error {
		files = append(files, f)
		return nil
	}, options...)
	if err != nil {
		return nil, err
	}
	return files, nil
}

func findFiles(from string, followLink bool, callback func(string, fs.FileInfo) error) error {
	stat, err := os.Lstat(from)
	if err != nil {
		return err
	}

	via := map[string]struct{}{}
	if stat.Mode()&os.ModeSymlink != 0 && followLink {
		s, err := os.Stat(from)
		if err != nil {
			return err
		}
		stat = s

		rpath, err := filepath.EvalSymlinks(from)
		if err != nil {
			return err
		}
		via[rpath] = struct{}{}
	}

	if !stat.IsDir() {
		return callback(from, stat)
	}

	return findFilesInDirectory(from, followLink, via, callback)
}

func findFilesInDirectory(from string, followLink bool, viaSymlink map[string]struct{}, callback func(string, fs.FileInfo) error) error {
	entries, err := os.ReadDir(from)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		err := func() error {
			fullpath := filepath.Join(from, entry.Name())
			stat, err := os.Lstat(fullpath)
			if err != nil {
				return err
			}

			if stat.Mode()&os.ModeSymlink != 0 && followLink {
				realpath, err := filepath.EvalSymlinks(fullpath)
				if err != nil {
					return err
				}
				if _, ok := viaSymlink[realpath]; ok {
					return ErrLoopSymlink
				}
				viaSymlink[realpath] = struct{}{}
				defer delete(viaSymlink, realpath)

				s, err := os.Stat(fullpath)
				if err != nil {
					return err
				}
				stat = s
			}

			if stat.IsDir() {
				return findFilesInDirectory(fullpath, followLink, viaSymlink, callback)
			}

			return callback(fullpath, stat)
		}()

		if err != nil {
			return err
		}
	}
	return nil
}
