// Package filter narrows extracted datasets down to what is published.
package filter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/vtonlab/vtonds/pkg/utils/combination"
)

var ErrEmptyRule = errors.New("allow-list is empty")

// Rule is an allow-list of <category>/<split>/<keep> directories.
//
// Empty Categories or Splits drop the level from the path.
type Rule struct {
	Categories []string
	Splits     []string
	Keep       []string
}

func RuleOf(d dataset.Descriptor) Rule {
	return Rule{Categories: d.Categories, Splits: d.Splits, Keep: d.Keep}
}

// Dirs returns allowed directories, slash separated, in lexical order.
func (r Rule) Dirs() []string {
	basis := map[string][]string{"keep": r.Keep}
	if 0 < len(r.Categories) {
		basis["category"] = r.Categories
	}
	if 0 < len(r.Splits) {
		basis["split"] = r.Splits
	}

	dirs := []string{}
	for _, c := range combination.MapCartesian(basis) {
		d := c["keep"]
		if s, ok := c["split"]; ok {
			d = s + "/" + d
		}
		if cat, ok := c["category"]; ok {
			d = cat + "/" + d
		}
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

type Kept struct {
	// Copied is the number of files copied.
	Copied int

	// Existing is the number of allowed files which were already in the destination.
	Existing int

	// Missing is allowed directories not found in the source.
	Missing []string
}

// AllowList copies files directly under allowed directories of src into the
// same relative paths under dst.
//
// Files in nested directories are not copied. Existing files in dst are never overwritten.
func AllowList(ctx context.Context, src string, dst string, rule Rule) (Kept, error) {
	if len(rule.Keep) == 0 {
		return Kept{}, ErrEmptyRule
	}

	kept := Kept{Missing: []string{}}
	for _, dir := range rule.Dirs() {
		from := filepath.Join(src, filepath.FromSlash(dir))
		entries, err := os.ReadDir(from)
		if err != nil {
			if os.IsNotExist(err) {
				kept.Missing = append(kept.Missing, dir)
				continue
			}
			return kept, err
		}

		to := filepath.Join(dst, filepath.FromSlash(dir))
		if err := os.MkdirAll(to, 0o755); err != nil {
			return kept, err
		}

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return kept, err
			}
			if !e.Type().IsRegular() {
				continue
			}
			copied, err := copyFile(filepath.Join(from, e.Name()), filepath.Join(to, e.Name()))
			if err != nil {
				return kept, fmt.Errorf("%s/%s: %w", dir, e.Name(), err)
			}
			if copied {
				kept.Copied += 1
			} else {
				kept.Existing += 1
			}
		}
	}
	return kept, nil
}
