package fetch

import (
	"errors"
	"fmt"

	"github.com/vtonlab/vtonds/pkg/dataset"
)

var (
	// ErrUnexpectedStatus is returned when server responds with a status which is not retryable.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrNoCredentials is returned when Kaggle API credentials are not found.
	ErrNoCredentials = errors.New("kaggle credentials not found")

	// ErrManualDownloadRequired is returned when Google Drive refuses automated download.
	ErrManualDownloadRequired = errors.New("automated download is refused")
)

// ManualDownloadError tells that the operator should download the file by hand.
//
// Fetch failures are reported with this error, so that callers can show
// Instructions and move on to other datasets.
type ManualDownloadError struct {
	Dataset string
	Source  dataset.Source

	// Dest is where the manually downloaded file should be placed.
	Dest string

	Steps []string
	Err   error
}

func (e *ManualDownloadError) Error() string {
	return fmt.Sprintf("%s: download from %s failed: %s", e.Dataset, e.Source, e.Err)
}

func (e *ManualDownloadError) Unwrap() error {
	return e.Err
}

// Instructions returns numbered steps for the operator.
func (e *ManualDownloadError) Instructions() []string {
	steps := make([]string, 0, len(e.Steps)+1)
	for n, s := range e.Steps {
		steps = append(steps, fmt.Sprintf("%d. %s", n+1, s))
	}
	steps = append(steps, fmt.Sprintf("%d. Place the file at: %s", len(e.Steps)+1, e.Dest))
	return steps
}

// Manual wraps err as ManualDownloadError for the dataset.
//
// If err is nil, it returns nil.
func Manual(d dataset.Descriptor, src dataset.Source, dest string, err error) error {
	if err == nil {
		return nil
	}
	return &ManualDownloadError{
		Dataset: d.Name,
		Source:  src,
		Dest:    dest,
		Steps:   d.ManualSteps,
		Err:     err,
	}
}
