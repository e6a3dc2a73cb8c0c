package filter

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/vtonlab/vtonds/pkg/utils/walk"
)

var ErrBadSampling = errors.New("sampling fraction should be in (0, 1]")

var (
	ImageExtensions    = []string{".jpg", ".jpeg", ".png", ".bmp"}
	MetadataExtensions = []string{".csv", ".json", ".txt", ".xml"}
)

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

type Sampled struct {
	// Images is the number of images found in the source.
	Images int

	// Selected is the relative paths (slash separated) of sampled images.
	Selected []string

	// Copied is the number of images newly copied.
	Copied int

	// Metadata is the number of metadata files newly copied.
	Metadata int
}

// Sample picks int(n * fraction) items from candidates.
//
// candidates are sorted before shuffling, so the result depends only on the
// set of candidates and the seed.
func Sample(candidates []string, s dataset.Sampling) []string {
	sorted := append([]string{}, candidates...)
	sort.Strings(sorted)

	rng := rand.New(rand.NewSource(s.Seed))
	rng.Shuffle(len(sorted), func(i, j int) { sorted[i], sorted[j] = sorted[j], sorted[i] })

	size := int(float64(len(sorted)) * s.Fraction)
	return sorted[:size]
}

// Subset copies a random sample of images in src into dst, keeping relative paths.
//
// All metadata files (csv, json, txt, xml) are copied as well.
// Existing files in dst are not overwritten.
func Subset(ctx context.Context, src string, dst string, s dataset.Sampling) (Sampled, error) {
	if s.Fraction <= 0 || 1 < s.Fraction {
		return Sampled{}, fmt.Errorf("%w: %v", ErrBadSampling, s.Fraction)
	}

	files, err := walk.Collect(ctx, src)
	if err != nil {
		return Sampled{}, err
	}

	images := []string{}
	metadata := []string{}
	for _, f := range files {
		rel := filepath.ToSlash(f.Rel)
		switch {
		case hasExtension(rel, ImageExtensions):
			images = append(images, rel)
		case hasExtension(rel, MetadataExtensions):
			metadata = append(metadata, rel)
		}
	}

	result := Sampled{Images: len(images), Selected: Sample(images, s)}

	copyAll := func(rels []string, counter *int) error {
		for _, rel := range rels {
			if err := ctx.Err(); err != nil {
				return err
			}
			copied, err := copyFile(
				filepath.Join(src, filepath.FromSlash(rel)),
				filepath.Join(dst, filepath.FromSlash(rel)),
			)
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			if copied {
				*counter += 1
			}
		}
		return nil
	}

	if err := copyAll(result.Selected, &result.Copied); err != nil {
		return result, err
	}
	if err := copyAll(metadata, &result.Metadata); err != nil {
		return result, err
	}
	return result, nil
}
