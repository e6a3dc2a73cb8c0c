// Package extract unpacks downloaded dataset archives.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/vtonlab/vtonds/pkg/progress"
	"github.com/vtonlab/vtonds/pkg/utils/archive"
)

var ErrUnsupportedFormat = errors.New("unsupported archive format")

// MarkerSuffix is appended to the archive path to mark it as extracted.
const MarkerSuffix = ".extracted"

type Format int

const (
	Unknown Format = iota
	Zip
	Tar
	TarGz
)

// FormatOf detects archive format by the file name.
func FormatOf(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return Zip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return TarGz
	case strings.HasSuffix(lower, ".tar"):
		return Tar
	default:
		return Unknown
	}
}

type Options struct {
	// Force extracts even if the archive is marked as extracted.
	Force bool

	// Progress is where the progress bar is drawn. nil means no progress bar.
	Progress io.Writer
}

type Result struct {
	// Dir is where entries are extracted.
	Dir string

	// Files is the number of extracted regular files.
	Files int

	// Bytes is the total size of extracted files.
	Bytes int64

	// Skipped is true when extraction was not performed because it had been done.
	Skipped bool
}

// Done tells that the archive has been extracted into dest already.
func Done(archivePath string, dest string) bool {
	if _, err := os.Stat(archivePath + MarkerSuffix); err != nil {
		return false
	}
	s, err := os.Stat(dest)
	return err == nil && s.IsDir()
}

// Archive extracts archivePath into dest.
//
// Several archives can be extracted into the same dest.
// On success, a marker file is placed next to the archive, and later calls
// for the same archive and dest are skipped unless opts.Force.
func Archive(ctx context.Context, archivePath string, dest string, opts Options) (Result, error) {
	if !opts.Force && Done(archivePath, dest) {
		return Result{Dir: dest, Skipped: true}, nil
	}

	format := FormatOf(archivePath)
	if format == Unknown {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, archivePath)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{}, err
	}

	var prog archive.Progress
	switch format {
	case Zip:
		prog = archive.GoUnzip(ctx, archivePath, dest)
	case Tar, TarGz:
		f, err := os.Open(archivePath)
		if err != nil {
			return Result{}, err
		}
		defer f.Close()

		var r io.Reader = f
		if format == TarGz {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return Result{}, fmt.Errorf("%s: %w", archivePath, err)
			}
			defer gz.Close()
			r = gz
		}
		prog = archive.GoUntar(ctx, r, dest)
	}

	bar := progress.Bytes(
		opts.Progress, prog.EstimatedTotalSize(),
		fmt.Sprintf("extracting %s:", progress.Ellipsis(filepath.Base(archivePath), 40)),
	)
	progress.Watch(bar, prog, 500*time.Millisecond)

	if err := prog.Error(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", archivePath, err)
	}

	if err := os.WriteFile(archivePath+MarkerSuffix, []byte(dest+"\n"), 0o644); err != nil {
		return Result{}, err
	}

	return Result{
		Dir:   dest,
		Files: prog.Files(),
		Bytes: prog.ProgressedSize(),
	}, nil
}
