package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrUnsafePath = errors.New("archive entry escapes destination")

type Progress interface {
	// EstimatedTotalSize returns the total (uncompressed) size of entries to be extracted.
	//
	// When it is unknown, it returns -1.
	EstimatedTotalSize() int64

	// ProgressedSize returns the size of extracted contents.
	//
	// This size is updated during extracting.
	ProgressedSize() int64

	// ProgressingFile returns the entry name which is currently being extracted.
	ProgressingFile() string

	// Files returns the number of regular files extracted.
	Files() int

	// Error returns error caused during extracting.
	Error() error

	// Done returns a channel which is closed when extracting is done.
	Done() <-chan struct{}
}

type progress struct {
	mux       sync.Mutex
	totalSize int64
	doneSize  int64
	files     int
	file      string
	err       error
	done      chan struct{}
}

func newProgress(total int64) *progress {
	return &progress{totalSize: total, done: make(chan struct{})}
}

func (m *progress) EstimatedTotalSize() int64 {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.totalSize
}

func (m *progress) ProgressedSize() int64 {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.doneSize
}

func (m *progress) ProgressingFile() string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.file
}

func (m *progress) Files() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.files
}

func (m *progress) Error() error {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.err
}

func (m *progress) Done() <-chan struct{} {
	return m.done
}

func (m *progress) setFile(name string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.file = name
}

func (m *progress) fileDone() {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.files += 1
}

func (m *progress) fail(err error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.err == nil {
		m.err = err
	}
}

func (m *progress) add(n int64) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.doneSize += n
}

// recoverInto converts a panic in an extracting goroutine into prog's error.
func recoverInto(prog *progress) {
	switch pan := recover().(type) {
	case nil:
	case error:
		prog.fail(pan)
	case string:
		prog.fail(fmt.Errorf("%s", pan))
	default:
		prog.fail(fmt.Errorf("%v", pan))
	}
}

// SafeJoin joins name onto dest, rejecting names which point outside of dest.
func SafeJoin(dest string, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	full := filepath.Join(dest, cleaned)
	rel, err := filepath.Rel(dest, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return full, nil
}

// within tells that path is dest itself or under dest, lexically.
func within(dest string, path string) bool {
	rel, err := filepath.Rel(dest, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// safeLinkTarget rejects symlink entries pointing outside of dest.
//
// Relative targets are resolved from the directory of the link.
func safeLinkTarget(dest string, fullpath string, linkname string) error {
	target := filepath.FromSlash(linkname)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(fullpath), target)
	}
	if !within(dest, filepath.Clean(target)) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, fullpath, linkname)
	}
	return nil
}

// noSymlinkInPath rejects fullpath when any of its existing components
// under dest (fullpath included) is a symlink.
func noSymlinkInPath(dest string, fullpath string) error {
	rel, err := filepath.Rel(dest, fullpath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsafePath, fullpath)
	}
	cur := dest
	for _, elem := range strings.Split(rel, string(filepath.Separator)) {
		if elem == "." || elem == "" {
			continue
		}
		cur = filepath.Join(cur, elem)
		s, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s goes through symlink %s", ErrUnsafePath, fullpath, cur)
		}
	}
	return nil
}

// GoUntar extracts a tar stream into dest in background goroutine.
//
// Only directories, regular files and symlinks are restored.
// Entries which would be placed outside of dest cause ErrUnsafePath.
// So do symlinks pointing outside of dest, and entries placed through symlinks.
//
// # Args
//
// - ctx: context to be used for extracting.
//
// - src: tar stream (not compressed). It is not closed.
//
// - dest: directory where entries are extracted to.
//
// # Returns
//
// - Progress: monitor of the extracting.
func GoUntar(ctx context.Context, src io.Reader, dest string) Progress {
	prog := newProgress(-1)

	go func() {
		defer close(prog.done)
		defer recoverInto(prog)

		tarr := tar.NewReader(src)
		carr := &ctxReader{ctx: ctx, r: tarr}
		for {
			select {
			case <-ctx.Done():
				prog.fail(ctx.Err())
				return
			default:
			}

			hdr, err := tarr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				prog.fail(err)
				return
			}

			if hdr.Name == "" {
				continue
			}

			fullpath, err := SafeJoin(dest, hdr.Name)
			if err != nil {
				prog.fail(err)
				return
			}
			checked := fullpath
			if hdr.Typeflag != tar.TypeReg {
				// the entry itself may be an existing link or directory.
				checked = filepath.Dir(fullpath)
			}
			if err := noSymlinkInPath(dest, checked); err != nil {
				prog.fail(err)
				return
			}
			prog.setFile(hdr.Name)

			switch hdr.Typeflag {
			case tar.TypeDir:
				if err := os.MkdirAll(fullpath, 0o755); err != nil {
					prog.fail(err)
					return
				}
				continue
			case tar.TypeSymlink:
				if err := safeLinkTarget(dest, fullpath, hdr.Linkname); err != nil {
					prog.fail(err)
					return
				}
				if err := os.MkdirAll(filepath.Dir(fullpath), 0o755); err != nil {
					prog.fail(err)
					return
				}
				if err := os.Symlink(hdr.Linkname, fullpath); err != nil && !os.IsExist(err) {
					prog.fail(err)
					return
				}
				continue
			case tar.TypeReg:
			default:
				continue
			}

			if err := writeEntry(fullpath, os.FileMode(hdr.Mode).Perm(), carr, prog); err != nil {
				prog.fail(err)
				return
			}
		}
	}()

	return prog
}

func writeEntry(fullpath string, mode os.FileMode, r io.Reader, prog *progress) error {
	if err := os.MkdirAll(filepath.Dir(fullpath), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	fp, err := os.OpenFile(fullpath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer fp.Close()

	repw := &reportingWriter{dest: fp, prog: prog}
	if _, err := io.Copy(repw, r); err != nil {
		return err
	}
	prog.fileDone()
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
	}
	return r.r.Read(p)
}

type reportingWriter struct {
	dest io.Writer
	prog *progress
}

func (w *reportingWriter) Write(p []byte) (int, error) {
	n, err := w.dest.Write(p)
	w.prog.add(int64(n))
	return n, err
}
