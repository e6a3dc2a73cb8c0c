package tree

import (
	"context"
	"fmt"
	"log"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	"github.com/vtonlab/vtonds/pkg/storage"
	"github.com/youta-t/flarc"
)

const DefaultPrefix = "dataset/edit_prompts/"

type Flags struct {
	Prefix string `flag:"prefix" alias:"p" metavar:"PREFIX" help:"Key prefix to be shown as the root."`
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		newBucket: func(ctx context.Context, conf storage.S3Config) (storage.Bucket, error) {
			return storage.NewS3Bucket(ctx, conf)
		},
	}
	for _, o := range options {
		option = o(option)
	}
	return flarc.NewCommand(
		"Show objects under a prefix as a directory tree with object counts.",
		Flags{Prefix: DefaultPrefix},
		flarc.Args{},
		common.NewTask(Task(option.newBucket)),
		flarc.WithDescription(`
Show "directories" under a prefix of the bucket.

Each directory is shown with the number of objects in it recursively (Total),
and directly in it (Direct).

	{{ .Command }} --prefix baselines/
`),
	)
}

type Option struct {
	newBucket func(context.Context, storage.S3Config) (storage.Bucket, error)
}

func WithBucket(newBucket func(context.Context, storage.S3Config) (storage.Bucket, error)) func(*Option) *Option {
	return func(o *Option) *Option {
		o.newBucket = newBucket
		return o
	}
}

func Task(
	newBucket func(context.Context, storage.S3Config) (storage.Bucket, error),
) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s settings.Settings,
		cl flarc.Commandline[Flags],
		_ []any,
	) error {
		bucket, err := newBucket(ctx, s.S3())
		if err != nil {
			return fmt.Errorf("cannot connect to bucket %s: %w", s.Bucket, err)
		}

		prefix := cl.Flags().Prefix
		logger.Printf("listing s3://%s/%s ...", bucket.Name(), prefix)
		root, err := storage.Tree(ctx, bucket, prefix)
		if err != nil {
			return fmt.Errorf("cannot list s3://%s/%s: %w", bucket.Name(), prefix, err)
		}
		if root.Total == 0 && len(root.Children) == 0 {
			logger.Printf("no objects are found under %s", prefix)
		}
		return root.Render(cl.Stdout())
	}
}
