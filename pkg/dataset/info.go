package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/vtonlab/vtonds/pkg/errors"
)

// InfoFile is the name of the metadata sidecar placed at the staging root.
const InfoFile = "dataset_info.json"

// Info is a summary of what has been downloaded and kept.
type Info struct {
	Dataset          string   `json:"dataset"`
	Source           string   `json:"source"`
	Categories       []string `json:"categories,omitempty"`
	Splits           []string `json:"splits,omitempty"`
	IncludedData     []string `json:"included_data,omitempty"`
	SubsetPercentage float64  `json:"subset_percentage,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	DownloadDate     string   `json:"download_date,omitempty"`
	Note             string   `json:"note,omitempty"`

	// Files is the number of files kept in the staging directory.
	Files int `json:"files"`
}

// Info builds dataset info of d.
func (d Descriptor) Info(downloadedAt time.Time, files int) Info {
	info := Info{
		Dataset:      d.Title,
		Source:       d.Homepage,
		Categories:   d.Categories,
		Splits:       d.Splits,
		IncludedData: d.IncludedData,
		Note:         d.Note,
		Files:        files,
	}
	if !downloadedAt.IsZero() {
		info.DownloadDate = downloadedAt.Format(time.RFC3339)
	}
	if d.Subset.Enabled() {
		seed := d.Subset.Seed
		info.Seed = &seed
		info.SubsetPercentage = d.Subset.Fraction * 100
	}
	return info
}

// WriteInfo writes info as InfoFile in dir, indented with 2 spaces.
//
// It returns the path of written file.
func WriteInfo(dir string, info Info) (string, error) {
	buf, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", errors.Wrap(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapWithNote(dir, err)
	}
	dest := filepath.Join(dir, InfoFile)
	if err := os.WriteFile(dest, append(buf, '\n'), 0o644); err != nil {
		return "", errors.WrapWithNote(dest, err)
	}
	return dest, nil
}

func ReadInfo(path string) (Info, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{}
	if err := json.Unmarshal(buf, &info); err != nil {
		return Info{}, errors.Wrap(err)
	}
	return info, nil
}
