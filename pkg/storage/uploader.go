package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/vtonlab/vtonds/pkg/progress"
	kio "github.com/vtonlab/vtonds/pkg/utils/io"
	"github.com/vtonlab/vtonds/pkg/utils/walk"
)

var ErrUnknownMode = errors.New("unknown upload mode")

// Mode decides what to do with objects which already exist.
type Mode string

const (
	// Skip objects which exist with the same size.
	Skip Mode = "skip"

	// Overwrite objects always.
	Overwrite Mode = "overwrite"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case Skip:
		return Skip, nil
	case Overwrite:
		return Overwrite, nil
	}
	return "", fmt.Errorf("%w: %q (expected %s or %s)", ErrUnknownMode, s, Skip, Overwrite)
}

// Report is a summary of an upload.
type Report struct {
	// Uploaded is the number of objects transferred.
	Uploaded int

	// Skipped is the number of files which were already in the bucket.
	Skipped int

	// Bytes is the size of transferred content.
	Bytes int64
}

func (r Report) String() string {
	return fmt.Sprintf("%d objects uploaded (%d bytes), %d skipped", r.Uploaded, r.Bytes, r.Skipped)
}

// Key returns the object key of a file, from a prefix and a relative path.
func Key(prefix string, rel string) string {
	rel = strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

type Uploader struct {
	Bucket Bucket

	// Progress is where the progress bar is drawn. nil means no progress bar.
	Progress io.Writer

	// Logger reports each skipped or failed file. nil means no logging.
	Logger *log.Logger

	// CompareChecksum makes skip mode compare MD5 with ETag, in addition to size.
	//
	// ETags of multipart objects are not MD5, so they are compared by size only.
	CompareChecksum bool
}

func (u *Uploader) logf(format string, v ...any) {
	if u.Logger != nil {
		u.Logger.Printf(format, v...)
	}
}

// Upload puts every regular file under root onto prefix/<relative path>.
//
// When root is a file, it is uploaded as prefix/<file name>.
// Upload stops at the first failure, and returns the report up to there with the error.
func (u *Uploader) Upload(ctx context.Context, root string, prefix string, mode Mode) (Report, error) {
	if mode != Skip && mode != Overwrite {
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	files, err := walk.Collect(ctx, root, walk.FollowSymlinks())
	if err != nil {
		return Report{}, err
	}

	var total int64
	for _, f := range files {
		total += f.Info.Size()
	}

	bar := progress.Bytes(
		u.Progress, total,
		fmt.Sprintf("uploading to %s:", progress.Ellipsis(u.Bucket.Name()+"/"+prefix, 40)),
	)
	defer bar.Finish()

	report := Report{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		key := Key(prefix, f.Rel)
		size := f.Info.Size()

		if mode == Skip {
			same, err := u.same(ctx, key, f)
			if err != nil {
				return report, fmt.Errorf("%s: %w", key, err)
			}
			if same {
				report.Skipped += 1
				bar.Add64(size)
				continue
			}
		}

		if err := u.put(ctx, key, f.Path, size, bar); err != nil {
			u.logf("failed to upload %s -> %s", f.Path, key)
			return report, fmt.Errorf("%s: %w", key, err)
		}
		report.Uploaded += 1
		report.Bytes += size
	}
	return report, nil
}

// same tells whether the object of key has the same content as f.
func (u *Uploader) same(ctx context.Context, key string, f walk.File) (bool, error) {
	info, ok, err := u.Bucket.Exists(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if info.Size != f.Info.Size() {
		return false, nil
	}
	if !u.CompareChecksum || info.ETag == "" || strings.Contains(info.ETag, "-") {
		return true, nil
	}

	sum, err := kio.FileMD5(f.Path)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(sum, info.ETag) {
		u.logf("checksum unmatch: %s (local %s, remote %s)", key, sum, info.ETag)
		return false, nil
	}
	return true, nil
}

func (u *Uploader) put(ctx context.Context, key string, fpath string, size int64, bar *pb.ProgressBar) error {
	fp, err := os.Open(fpath)
	if err != nil {
		return err
	}
	defer fp.Close()

	r := bar.NewProxyReader(fp) // do not close. it finishes the bar.
	return u.Bucket.Put(ctx, key, r, size)
}

// Cleanup removes the local staging tree.
func Cleanup(dir string) error {
	return os.RemoveAll(dir)
}
