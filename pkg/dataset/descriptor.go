package dataset

import (
	"fmt"
	"math"
	"path"
	"path/filepath"
)

type SourceKind string

const (
	// plain HTTP(S) download, resumable with Range requests.
	HTTP SourceKind = "http"

	// Google Drive file, identified by its file ID.
	GoogleDrive SourceKind = "gdrive"

	// Kaggle dataset, identified by "owner/dataset" slug.
	Kaggle SourceKind = "kaggle"
)

// Source is a remote archive of a dataset.
type Source struct {
	Kind SourceKind

	// URL, Google Drive file ID or Kaggle slug, depending on Kind.
	Location string

	// Archive is the file name which the source is saved as.
	Archive string
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Location)
}

// Sampling is a parameter of random subsetting.
//
// Zero value means "no subsetting".
type Sampling struct {
	// Fraction of images to be kept, in (0, 1].
	Fraction float64

	Seed int64
}

func (s Sampling) Enabled() bool {
	return 0 < s.Fraction
}

// Percentage returns Fraction in percent, rounded to integer.
func (s Sampling) Percentage() int {
	return int(math.Round(s.Fraction * 100))
}

// Descriptor describes how a dataset is acquired and published.
type Descriptor struct {
	// Name is the identifier of the dataset.
	//
	// It is used as local directory name and as the last segment of bucket prefix.
	Name string

	Title    string
	Homepage string

	Sources []Source

	// Categories and Splits are directory levels of the dataset:
	// <category>/<split>/<keep>/...
	Categories []string
	Splits     []string

	// Keep is the allow-list of subdirectory names under each <category>/<split>.
	//
	// Empty means no filtering.
	Keep []string

	// IncludedData is human readable names of kept data, recorded in dataset info.
	IncludedData []string

	Subset Sampling

	// Verify makes the pipeline report presence of Splits after extraction.
	Verify bool

	// ManualSteps are instructions for the operator when automated download fails.
	ManualSteps []string

	Note string
}

// Prefix returns the object key prefix of the dataset under base.
func (d Descriptor) Prefix(base string) string {
	if base == "" {
		return d.Name
	}
	return path.Join(base, d.Name)
}

func (d Descriptor) Filtered() bool {
	return 0 < len(d.Keep)
}

// HasInfo tells whether the dataset is shipped with dataset info sidecar.
//
// Datasets which are uploaded as extracted do not have it.
func (d Descriptor) HasInfo() bool {
	return d.Filtered() || d.Subset.Enabled()
}

func (d Descriptor) fromKaggle() bool {
	for _, s := range d.Sources {
		if s.Kind == Kaggle {
			return true
		}
	}
	return false
}

// Layout is local directories for a dataset.
type Layout struct {
	// Root is the directory where archives are downloaded to.
	Root string
}

// NewLayout returns layout of the dataset under tempDir.
func NewLayout(tempDir string, name string) Layout {
	return Layout{Root: filepath.Join(tempDir, name)}
}

func (l Layout) Archive(s Source) string {
	return filepath.Join(l.Root, s.Archive)
}

func (l Layout) Extracted() string {
	return filepath.Join(l.Root, "extracted")
}

func (l Layout) Filtered() string {
	return filepath.Join(l.Root, "filtered")
}

func (l Layout) Full() string {
	return filepath.Join(l.Root, "full")
}

func (l Layout) Subset(s Sampling) string {
	return filepath.Join(l.Root, fmt.Sprintf("subset_%dpct", s.Percentage()))
}

// ExtractDir returns the directory where archives of d are extracted to.
func (l Layout) ExtractDir(d Descriptor) string {
	if d.fromKaggle() {
		return l.Full()
	}
	return l.Extracted()
}

// StagingDir returns the directory to be uploaded for d.
func (l Layout) StagingDir(d Descriptor) string {
	switch {
	case d.Filtered():
		return l.Filtered()
	case d.Subset.Enabled():
		return l.Subset(d.Subset)
	default:
		return l.ExtractDir(d)
	}
}
