package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	"github.com/vtonlab/vtonds/pkg/dataset"
	kfetch "github.com/vtonlab/vtonds/pkg/fetch"
	"github.com/vtonlab/vtonds/pkg/pipeline"
	"github.com/vtonlab/vtonds/pkg/storage"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Mode         string `flag:"mode" metavar:"skip|overwrite" help:"What to do with objects already in the bucket."`
	Cleanup      bool   `flag:"cleanup" help:"Remove local files of a dataset after it is uploaded successfully."`
	NoUpload     bool   `flag:"no-upload" help:"Prepare the staging directory, but do not upload it."`
	ForceExtract bool   `flag:"force-extract" help:"Extract archives again, even if they have been extracted."`
	TempDir      string `flag:"temp-dir" metavar:"DIR" help:"Local directory for downloads and staging. Default is tempDir in the config."`
}

const ARG_DATASET = "DATASET"

var ErrDatasetFailed = errors.New("dataset failed")

// BucketFactory connects to the bucket.
type BucketFactory func(context.Context, storage.S3Config) (storage.Bucket, error)

type Option struct {
	resolve   func([]string) ([]dataset.Descriptor, error)
	newBucket BucketFactory
	fetch     []kfetch.Option
}

func WithResolver(resolve func([]string) ([]dataset.Descriptor, error)) func(*Option) *Option {
	return func(o *Option) *Option {
		o.resolve = resolve
		return o
	}
}

func WithBucket(newBucket BucketFactory) func(*Option) *Option {
	return func(o *Option) *Option {
		o.newBucket = newBucket
		return o
	}
}

func WithFetchOptions(options ...kfetch.Option) func(*Option) *Option {
	return func(o *Option) *Option {
		o.fetch = append(o.fetch, options...)
		return o
	}
}

func S3Bucket(ctx context.Context, conf storage.S3Config) (storage.Bucket, error) {
	return storage.NewS3Bucket(ctx, conf)
}

// NewOption builds Option. By default, datasets are looked up in the registry
// and uploaded to S3.
func NewOption(options ...func(*Option) *Option) *Option {
	option := &Option{resolve: dataset.Resolve, newBucket: S3Bucket}
	for _, o := range options {
		option = o(option)
	}
	return option
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	return flarc.NewCommand(
		"Download datasets, filter them, and upload them to the bucket.",
		Flags{Mode: string(storage.Skip)},
		flarc.Args{
			{
				Name: ARG_DATASET, Required: true, Repeatable: true,
				Help: fmt.Sprintf(
					"dataset to be fetched: one of %s, or %q for all of them.",
					strings.Join(dataset.Names(), ", "), dataset.All,
				),
			},
		},
		common.NewTask(Task(NewOption(options...))),
		flarc.WithDescription(`
Download datasets, extract them, filter them and upload the result to
s3://<bucket>/<prefix>/<dataset>/.

Fetch all datasets:

	{{ .Command }} all

Fetch VITON-HD and DressCode, but keep them local:

	{{ .Command }} --no-upload vtonhd dresscode

Interrupted runs can be resumed by running the same command again.
Downloads, extraction and uploads continue from where they stopped.

When a download fails, instructions to download it by hand are shown,
and other datasets are processed. The command fails only when a dataset
fails after it is downloaded.
`),
	)
}

func Task(option *Option) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s settings.Settings,
		cl flarc.Commandline[Flags],
		_ []any,
	) error {
		flags := cl.Flags()

		mode, err := storage.ParseMode(flags.Mode)
		if err != nil {
			return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
		}

		ds, err := option.resolve(cl.Args()[ARG_DATASET])
		if err != nil {
			return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
		}

		tempDir := s.TempDir
		if flags.TempDir != "" {
			tempDir = flags.TempDir
		}

		p := &pipeline.Pipeline{
			Options: pipeline.Options{
				TempDir:      tempDir,
				Prefix:       s.Prefix,
				Mode:         mode,
				NoUpload:     flags.NoUpload,
				Cleanup:      flags.Cleanup,
				ForceExtract: flags.ForceExtract,
				Progress:     cl.Stderr(),
				Fetch: append(
					[]kfetch.Option{kfetch.WithGetenv(s.Getenv)},
					option.fetch...,
				),
			},
			Logger: logger,
		}

		if !flags.NoUpload {
			bucket, err := option.newBucket(ctx, s.S3())
			if err != nil {
				return fmt.Errorf("cannot connect to bucket %s: %w", s.Bucket, err)
			}
			p.Bucket = bucket
		}

		results, summary := p.Batch(ctx, ds)
		if err := ctx.Err(); err != nil {
			return err
		}

		out := cl.Stdout()
		for _, r := range results {
			report(out, cl.Stderr(), s, r)
		}
		fmt.Fprintf(
			out, "\n%d succeeded, %d need manual download, %d failed\n",
			summary.Succeeded, summary.Manual, summary.Failed,
		)

		if 0 < summary.Failed {
			return fmt.Errorf("%w: %d of %d", ErrDatasetFailed, summary.Failed, len(results))
		}
		return nil
	}
}

var (
	ok   = color.New(color.FgGreen)
	warn = color.New(color.FgYellow)
	ng   = color.New(color.FgRed)
)

func report(out io.Writer, errout io.Writer, s settings.Settings, r pipeline.Result) {
	if merr, manual := r.Manual(); manual {
		warn.Fprintf(errout, "%s: download failed: %s\n", r.Dataset, merr.Err)
		warn.Fprintln(errout, "Please download it manually:")
		for _, step := range merr.Instructions() {
			warn.Fprintf(errout, "  %s\n", step)
		}
		warn.Fprintln(errout, "Then run this command again.")
		return
	}
	if r.Err != nil {
		ng.Fprintf(errout, "%s: failed: %s\n", r.Dataset, r.Err)
		return
	}
	switch {
	case r.Uploaded != nil:
		ok.Fprintf(out, "%s: s3://%s/%s/ (%s)\n", r.Dataset, s.Bucket, r.Prefix, r.Uploaded)
	default:
		ok.Fprintf(out, "%s: staged at %s\n", r.Dataset, r.Staging)
	}
}
