// Package pipeline runs a dataset from its remote sources up to the bucket:
// fetch, extract, verify, filter, describe, upload and clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/vtonlab/vtonds/pkg/extract"
	"github.com/vtonlab/vtonds/pkg/fetch"
	"github.com/vtonlab/vtonds/pkg/filter"
	"github.com/vtonlab/vtonds/pkg/storage"
	"github.com/vtonlab/vtonds/pkg/utils/walk"
)

var ErrNoBucket = errors.New("no bucket to upload to")

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageVerify  Stage = "verify"
	StageFilter  Stage = "filter"
	StageInfo    Stage = "info"
	StageUpload  Stage = "upload"
	StageCleanup Stage = "cleanup"
)

// StageError is a failure of a dataset at a stage.
type StageError struct {
	Dataset string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Dataset, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Options struct {
	// TempDir is where datasets are downloaded and staged, as <TempDir>/<dataset>.
	TempDir string

	// Prefix is the bucket path under which datasets are placed, as <Prefix>/<dataset>.
	Prefix string

	// Mode is how existing objects are treated.
	Mode storage.Mode

	// NoUpload stops the pipeline after the staging directory is prepared.
	NoUpload bool

	// Cleanup removes local files of a dataset after it is uploaded successfully.
	Cleanup bool

	// ForceExtract extracts archives again even if they have been extracted.
	ForceExtract bool

	// Progress is where progress bars are drawn. nil means no progress bar.
	Progress io.Writer

	// Fetch are options passed to downloaders.
	Fetch []fetch.Option
}

type Pipeline struct {
	Options

	// Bucket is where staged datasets are uploaded. It can be nil when NoUpload.
	Bucket storage.Bucket

	Logger *log.Logger

	// Now tells the download date recorded in dataset info. Default is time.Now.
	Now func() time.Time

	// NewFetcher is used to build downloaders. Default is fetch.For.
	NewFetcher func(dataset.Source, ...fetch.Option) (fetch.Fetcher, error)
}

// Result is what happened to a dataset.
type Result struct {
	Dataset string

	// Archives are local paths of downloaded archives.
	Archives []string

	Extracted []extract.Result
	Splits    []filter.SplitReport

	// Kept is set when the dataset is filtered by allow-list.
	Kept *filter.Kept

	// Sampled is set when the dataset is subset.
	Sampled *filter.Sampled

	// Staging is the directory which is (or would be) uploaded.
	Staging string

	// Info is the path of dataset info sidecar, if written.
	Info string

	// Prefix is the key prefix where the dataset is uploaded.
	Prefix string

	// Uploaded is set when the dataset is uploaded.
	Uploaded *storage.Report

	CleanedUp bool

	// Err is the cause of failure. It is nil on success.
	//
	// Download failures are *fetch.ManualDownloadError wrapped in *StageError.
	Err error
}

// Manual tells that the dataset needs to be downloaded by hand.
func (r Result) Manual() (*fetch.ManualDownloadError, bool) {
	merr := new(fetch.ManualDownloadError)
	if errors.As(r.Err, &merr) {
		return merr, true
	}
	return nil, false
}

func (p *Pipeline) logf(format string, v ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, v...)
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) fetcher(src dataset.Source) (fetch.Fetcher, error) {
	options := append([]fetch.Option{fetch.WithProgress(p.Progress)}, p.Fetch...)
	if p.NewFetcher == nil {
		return fetch.For(src, options...)
	}
	return p.NewFetcher(src, options...)
}

// Run processes a dataset through all stages.
//
// It stops at the first failed stage, and the failure is reported as Result.Err.
func (p *Pipeline) Run(ctx context.Context, d dataset.Descriptor) Result {
	result := Result{Dataset: d.Name}
	layout := dataset.NewLayout(p.TempDir, d.Name)
	fail := func(stage Stage, err error) Result {
		result.Err = &StageError{Dataset: d.Name, Stage: stage, Err: err}
		return result
	}

	p.logf("[%s] %s (%s)", d.Name, d.Title, d.Homepage)

	// fetch
	for _, src := range d.Sources {
		dest := layout.Archive(src)
		result.Archives = append(result.Archives, dest)
		if s, err := os.Stat(dest); err == nil && s.Mode().IsRegular() {
			p.logf("[%s] already downloaded: %s", d.Name, dest)
			continue
		}

		p.logf("[%s] downloading %s -> %s", d.Name, src, dest)
		f, err := p.fetcher(src)
		if err != nil {
			return fail(StageFetch, err)
		}
		if err := f.Fetch(ctx, dest); err != nil {
			if ctx.Err() != nil {
				return fail(StageFetch, err)
			}
			return fail(StageFetch, fetch.Manual(d, src, dest, err))
		}
	}

	// extract
	extractDir := layout.ExtractDir(d)
	for _, archive := range result.Archives {
		ex, err := extract.Archive(ctx, archive, extractDir, extract.Options{
			Force: p.ForceExtract, Progress: p.Progress,
		})
		if err != nil {
			return fail(StageExtract, err)
		}
		if ex.Skipped {
			p.logf("[%s] already extracted: %s", d.Name, filepath.Base(archive))
		} else {
			p.logf("[%s] extracted %d files (%d bytes) into %s", d.Name, ex.Files, ex.Bytes, ex.Dir)
		}
		result.Extracted = append(result.Extracted, ex)
	}

	// verify
	if d.Verify {
		reports, err := filter.Verify(extractDir, d.Splits)
		if err != nil {
			return fail(StageVerify, err)
		}
		for _, r := range reports {
			if !r.Found {
				p.logf("[%s] WARNING: split %s is not found", d.Name, r.Split)
				continue
			}
			for _, sub := range r.Subdirs {
				p.logf("[%s] %s/%s: %d entries", d.Name, r.Split, sub.Name, sub.Files)
			}
		}
		result.Splits = reports
	}

	// filter
	staging := layout.StagingDir(d)
	result.Staging = staging
	switch {
	case d.Filtered():
		kept, err := filter.AllowList(ctx, extractDir, staging, filter.RuleOf(d))
		if err != nil {
			return fail(StageFilter, err)
		}
		for _, m := range kept.Missing {
			p.logf("[%s] WARNING: %s is not found in the archive", d.Name, m)
		}
		p.logf("[%s] filtered: %d files copied, %d already there", d.Name, kept.Copied, kept.Existing)
		result.Kept = &kept
	case d.Subset.Enabled():
		sampled, err := filter.Subset(ctx, extractDir, staging, d.Subset)
		if err != nil {
			return fail(StageFilter, err)
		}
		p.logf(
			"[%s] subset: %d of %d images (%d%%), %d metadata files",
			d.Name, len(sampled.Selected), sampled.Images, d.Subset.Percentage(), sampled.Metadata,
		)
		result.Sampled = &sampled
	}

	// info
	if d.HasInfo() {
		files := 0
		err := walk.Files(ctx, staging, func(f walk.File) error {
			if f.Rel != dataset.InfoFile {
				files += 1
			}
			return nil
		})
		if err != nil {
			return fail(StageInfo, err)
		}
		info := d.Info(p.now(), files)
		if prev, err := dataset.ReadInfo(filepath.Join(staging, dataset.InfoFile)); err == nil && prev.DownloadDate != "" {
			// staging survives until cleanup, so its files date from the first run.
			info.DownloadDate = prev.DownloadDate
		}
		path, err := dataset.WriteInfo(staging, info)
		if err != nil {
			return fail(StageInfo, err)
		}
		result.Info = path
	}

	if p.NoUpload {
		p.logf("[%s] staged at %s (not uploaded)", d.Name, staging)
		if p.Cleanup {
			p.logf("[%s] local files are kept since they are not uploaded", d.Name)
		}
		return result
	}

	// upload
	if p.Bucket == nil {
		return fail(StageUpload, ErrNoBucket)
	}
	prefix := d.Prefix(p.Prefix)
	result.Prefix = prefix
	uploader := &storage.Uploader{
		Bucket:          p.Bucket,
		Progress:        p.Progress,
		Logger:          p.Logger,
		CompareChecksum: true,
	}
	report, err := uploader.Upload(ctx, staging, prefix, p.Mode)
	result.Uploaded = &report
	if err != nil {
		return fail(StageUpload, err)
	}
	p.logf("[%s] s3://%s/%s: %s", d.Name, p.Bucket.Name(), prefix, report)

	// cleanup
	if p.Cleanup {
		if err := storage.Cleanup(layout.Root); err != nil {
			return fail(StageCleanup, err)
		}
		result.CleanedUp = true
		p.logf("[%s] removed %s", d.Name, layout.Root)
	}

	return result
}

// Summary counts results of a batch.
type Summary struct {
	Succeeded int

	// Manual is the number of datasets which need to be downloaded by hand.
	Manual int

	Failed int
}

// Batch runs datasets one after another.
//
// A failure of a dataset does not stop others.
// When ctx is canceled, Batch stops and returns results so far.
func (p *Pipeline) Batch(ctx context.Context, ds []dataset.Descriptor) ([]Result, Summary) {
	results := make([]Result, 0, len(ds))
	summary := Summary{}
	for _, d := range ds {
		if ctx.Err() != nil {
			break
		}
		r := p.Run(ctx, d)
		results = append(results, r)

		switch _, manual := r.Manual(); {
		case r.Err == nil:
			summary.Succeeded += 1
		case manual:
			summary.Manual += 1
		default:
			summary.Failed += 1
		}
	}
	return results, summary
}
