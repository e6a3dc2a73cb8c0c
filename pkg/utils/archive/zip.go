package archive

import (
	"context"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// GoUnzip extracts a zip archive file into dest in background goroutine.
//
// The total size is known from the central directory, so
// EstimatedTotalSize of the returned Progress is the sum of uncompressed sizes.
//
// Entries which would be placed outside of dest cause ErrUnsafePath.
func GoUnzip(ctx context.Context, src string, dest string) Progress {
	zr, err := zip.OpenReader(src)
	if err != nil {
		prog := newProgress(-1)
		prog.err = err
		close(prog.done)
		return prog
	}

	var total int64
	for _, f := range zr.File {
		total += int64(f.UncompressedSize64)
	}
	prog := newProgress(total)

	go func() {
		defer close(prog.done)
		defer zr.Close()
		defer recoverInto(prog)

		for _, f := range zr.File {
			select {
			case <-ctx.Done():
				prog.fail(ctx.Err())
				return
			default:
			}

			fullpath, err := SafeJoin(dest, f.Name)
			if err != nil {
				prog.fail(err)
				return
			}
			if err := noSymlinkInPath(dest, fullpath); err != nil {
				prog.fail(err)
				return
			}
			prog.setFile(f.Name)

			if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
				if err := os.MkdirAll(fullpath, 0o755); err != nil {
					prog.fail(err)
					return
				}
				continue
			}

			if err := func() error {
				rc, err := f.Open()
				if err != nil {
					return err
				}
				defer rc.Close()
				return writeEntry(fullpath, f.Mode().Perm(), &ctxReader{ctx: ctx, r: rc}, prog)
			}(); err != nil {
				prog.fail(err)
				return
			}
		}
	}()

	return prog
}
