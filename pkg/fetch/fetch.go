// Package fetch downloads dataset archives from remote sources.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/vtonlab/vtonds/pkg/utils/retry"
)

// Fetcher downloads a remote file.
type Fetcher interface {
	// Fetch saves the remote file as dest.
	//
	// The file is written as dest+PartialSuffix during transfer, and renamed to dest
	// when completed. Partial files left by earlier attempts are resumed if possible.
	Fetch(ctx context.Context, dest string) error
}

// PartialSuffix is appended to the name of files being downloaded.
const PartialSuffix = ".incomplete"

type config struct {
	client   *http.Client
	progress io.Writer
	backoff  func() retry.Backoff
	getenv   func(string) string
}

type Option func(*config) *config

// WithClient sets http client to be used.
func WithClient(client *http.Client) Option {
	return func(c *config) *config {
		c.client = client
		return c
	}
}

// WithProgress sets where progress bars are drawn.
func WithProgress(w io.Writer) Option {
	return func(c *config) *config {
		c.progress = w
		return c
	}
}

// WithBackoff sets backoff policy for resuming interrupted transfers.
//
// newBackoff is called once for each Fetch.
func WithBackoff(newBackoff func() retry.Backoff) Option {
	return func(c *config) *config {
		c.backoff = newBackoff
		return c
	}
}

// WithGetenv replaces the lookup of environment variables (for Kaggle credentials).
func WithGetenv(getenv func(string) string) Option {
	return func(c *config) *config {
		c.getenv = getenv
		return c
	}
}

// DefaultBackoff retries 5 times, waiting 1s, 2s, 4s, ...
func DefaultBackoff() retry.Backoff {
	return retry.Limit(5, retry.ExponentialBackoff(1*time.Second, 2))
}

func newConfig(options []Option) *config {
	c := &config{
		client:  http.DefaultClient,
		backoff: DefaultBackoff,
	}
	for _, o := range options {
		c = o(c)
	}
	return c
}

// For returns a Fetcher for the source.
func For(src dataset.Source, options ...Option) (Fetcher, error) {
	c := newConfig(options)
	switch src.Kind {
	case dataset.HTTP:
		return &HTTP{
			URL:      src.Location,
			Client:   c.client,
			Progress: c.progress,
			Backoff:  c.backoff,
		}, nil
	case dataset.GoogleDrive:
		return &GoogleDrive{
			FileID:   src.Location,
			Client:   c.client,
			Progress: c.progress,
			Backoff:  c.backoff,
		}, nil
	case dataset.Kaggle:
		return &Kaggle{
			Slug:     src.Location,
			Client:   c.client,
			Progress: c.progress,
			Backoff:  c.backoff,
			Getenv:   c.getenv,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", src.Kind)
	}
}
