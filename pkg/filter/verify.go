package filter

import (
	"os"
	"path/filepath"
	"sort"
)

type Subdir struct {
	Name  string
	Files int
}

type SplitReport struct {
	Split string
	Found bool

	// Subdirs are directories directly under the split, with the number of
	// entries in each of them.
	Subdirs []Subdir
}

// Verify reports which of splits exist in dir and what they contain.
//
// Missing splits are not an error; they are reported with Found = false.
func Verify(dir string, splits []string) ([]SplitReport, error) {
	reports := make([]SplitReport, 0, len(splits))
	for _, split := range splits {
		report := SplitReport{Split: split, Subdirs: []Subdir{}}

		entries, err := os.ReadDir(filepath.Join(dir, split))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			reports = append(reports, report)
			continue
		}
		report.Found = true

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			children, err := os.ReadDir(filepath.Join(dir, split, e.Name()))
			if err != nil {
				return nil, err
			}
			report.Subdirs = append(report.Subdirs, Subdir{Name: e.Name(), Files: len(children)})
		}
		sort.Slice(report.Subdirs, func(i, j int) bool { return report.Subdirs[i].Name < report.Subdirs[j].Name })
		reports = append(reports, report)
	}
	return reports, nil
}
