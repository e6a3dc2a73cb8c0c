package filter_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vtonlab/vtonds/pkg/cmp"
	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/vtonlab/vtonds/pkg/filter"
	"github.com/vtonlab/vtonds/pkg/utils"
	"github.com/vtonlab/vtonds/pkg/utils/try"
	"github.com/vtonlab/vtonds/pkg/utils/walk"
)

func touch(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func relsUnder(t *testing.T, root string) []string {
	t.Helper()
	files := try.To(walk.Collect(context.Background(), root)).OrFatal(t)
	return utils.Map(files, func(f walk.File) string { return filepath.ToSlash(f.Rel) })
}

func TestRuleDirs(t *testing.T) {
	rule := filter.Rule{
		Categories: []string{"dresses", "upper_body"},
		Splits:     []string{"train"},
		Keep:       []string{"images", "cloth"},
	}
	expected := []string{
		"dresses/train/cloth",
		"dresses/train/images",
		"upper_body/train/cloth",
		"upper_body/train/images",
	}
	if actual := rule.Dirs(); !cmp.SliceEq(actual, expected) {
		t.Errorf("actual = %v, expected = %v", actual, expected)
	}

	noCategory := filter.Rule{Splits: []string{"test"}, Keep: []string{"image"}}
	if actual := noCategory.Dirs(); !cmp.SliceEq(actual, []string{"test/image"}) {
		t.Errorf("actual = %v", actual)
	}
}

func TestAllowList_DressCode(t *testing.T) {
	d := try.To(dataset.Lookup("dresscode")).OrFatal(t)
	src := t.TempDir()

	all := []string{"images", "cloth", "label_maps", "agnostic-mask", "keypoints", "skeletons", "dense"}
	for _, category := range d.Categories {
		for _, split := range d.Splits {
			for _, kind := range all {
				touch(t, src, fmt.Sprintf("%s/%s/%s/000001_0.jpg", category, split, kind), kind)
			}
		}
	}
	touch(t, src, "upper_body/train/images/nested/000002_0.jpg", "nested")
	touch(t, src, "upper_body/train_pairs.txt", "pairs")

	dst := t.TempDir()
	kept := try.To(filter.AllowList(context.Background(), src, dst, filter.RuleOf(d))).OrFatal(t)

	if expected := len(d.Categories) * len(d.Splits) * len(d.Keep); kept.Copied != expected {
		t.Errorf("copied: %d, expected %d", kept.Copied, expected)
	}
	if len(kept.Missing) != 0 {
		t.Errorf("missing: %v", kept.Missing)
	}

	allowed := map[string]bool{"images": true, "cloth": true, "label_maps": true, "agnostic-mask": true}
	rels := relsUnder(t, dst)
	if len(rels) != kept.Copied {
		t.Errorf("files in dst: %v", rels)
	}
	for _, rel := range rels {
		parts := strings.Split(rel, "/")
		if len(parts) != 4 || !allowed[parts[2]] {
			t.Errorf("unexpected file is kept: %s", rel)
		}
	}
}

func TestAllowList(t *testing.T) {
	t.Run("it never overwrites existing files", func(t *testing.T) {
		src := t.TempDir()
		touch(t, src, "dresses/train/images/1.jpg", "new")
		touch(t, src, "dresses/train/images/2.jpg", "new")

		dst := t.TempDir()
		touch(t, dst, "dresses/train/images/1.jpg", "old")

		rule := filter.Rule{Categories: []string{"dresses"}, Splits: []string{"train", "test"}, Keep: []string{"images"}}
		kept := try.To(filter.AllowList(context.Background(), src, dst, rule)).OrFatal(t)
		if kept.Copied != 1 || kept.Existing != 1 {
			t.Errorf("kept: %+v", kept)
		}
		if !cmp.SliceEq(kept.Missing, []string{"dresses/test/images"}) {
			t.Errorf("missing: %v", kept.Missing)
		}

		actual := try.To(os.ReadFile(filepath.Join(dst, "dresses", "train", "images", "1.jpg"))).OrFatal(t)
		if string(actual) != "old" {
			t.Errorf("overwritten: %s", actual)
		}
	})

	t.Run("when a copy was interrupted, it copies the file again in full", func(t *testing.T) {
		src := t.TempDir()
		touch(t, src, "dresses/train/images/1.jpg", "person image")

		dst := t.TempDir()
		touch(t, dst, "dresses/train/images/1.jpg.incomplete", "pers")

		rule := filter.Rule{Categories: []string{"dresses"}, Splits: []string{"train"}, Keep: []string{"images"}}
		kept := try.To(filter.AllowList(context.Background(), src, dst, rule)).OrFatal(t)
		if kept.Copied != 1 || kept.Existing != 0 {
			t.Errorf("kept: %+v", kept)
		}

		actual := try.To(os.ReadFile(filepath.Join(dst, "dresses", "train", "images", "1.jpg"))).OrFatal(t)
		if string(actual) != "person image" {
			t.Errorf("content: %s", actual)
		}
		if rels := relsUnder(t, dst); !cmp.SliceEq(rels, []string{"dresses/train/images/1.jpg"}) {
			t.Errorf("files in dst: %v", rels)
		}
	})

	t.Run("when rule has nothing to keep, it returns ErrEmptyRule", func(t *testing.T) {
		_, err := filter.AllowList(context.Background(), t.TempDir(), t.TempDir(), filter.Rule{})
		if !errors.Is(err, filter.ErrEmptyRule) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSample(t *testing.T) {
	candidates := []string{}
	for i := 0; i < 50; i++ {
		candidates = append(candidates, fmt.Sprintf("images/%05d.jpg", i))
	}
	reversed := utils.Sorted(candidates, func(a, b string) bool { return a > b })
	s := dataset.Sampling{Fraction: 0.2, Seed: 42}

	first := filter.Sample(candidates, s)
	if len(first) != 10 {
		t.Fatalf("sampled: %d", len(first))
	}
	if again := filter.Sample(reversed, s); !cmp.SliceEq(first, again) {
		t.Errorf("not deterministic:\n%v\n%v", first, again)
	}
	if candidates[0] != "images/00000.jpg" || reversed[0] != "images/00049.jpg" {
		t.Error("candidates are modified")
	}

	other := filter.Sample(candidates, dataset.Sampling{Fraction: 0.2, Seed: 7})
	if cmp.SliceEq(first, other) {
		t.Errorf("different seeds give the same sample: %v", first)
	}
}

func TestSubset(t *testing.T) {
	src := t.TempDir()
	for i := 0; i < 20; i++ {
		touch(t, src, fmt.Sprintf("images/%05d.jpg", i), "jpg")
		touch(t, src, fmt.Sprintf("images/%05d.PNG", i), "png")
	}
	touch(t, src, "styles.csv", "id,gender")
	touch(t, src, "meta/info.json", "{}")
	touch(t, src, "README.md", "ignored")

	dst := t.TempDir()
	s := dataset.Sampling{Fraction: 0.2, Seed: 42}
	result := try.To(filter.Subset(context.Background(), src, dst, s)).OrFatal(t)

	if result.Images != 40 || len(result.Selected) != 8 || result.Copied != 8 || result.Metadata != 2 {
		t.Errorf("result: %+v", result)
	}

	rels := relsUnder(t, dst)
	expected := utils.Sorted(
		append(append([]string{}, result.Selected...), "meta/info.json", "styles.csv"),
		func(a, b string) bool { return a < b },
	)
	if !cmp.SliceContentEq(rels, expected) {
		t.Errorf("files in dst:\nactual   = %v\nexpected = %v", rels, expected)
	}

	again := try.To(filter.Subset(context.Background(), src, t.TempDir(), s)).OrFatal(t)
	if !cmp.SliceEq(result.Selected, again.Selected) {
		t.Errorf("not deterministic:\n%v\n%v", result.Selected, again.Selected)
	}

	t.Run("when fraction is out of range, it returns ErrBadSampling", func(t *testing.T) {
		for _, f := range []float64{0, -0.1, 1.5} {
			_, err := filter.Subset(context.Background(), src, t.TempDir(), dataset.Sampling{Fraction: f})
			if !errors.Is(err, filter.ErrBadSampling) {
				t.Errorf("fraction %v: unexpected error: %v", f, err)
			}
		}
	})
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "train/image/1.jpg", "")
	touch(t, dir, "train/image/2.jpg", "")
	touch(t, dir, "train/cloth/1.jpg", "")
	touch(t, dir, "train_pairs.txt", "")

	reports := try.To(filter.Verify(dir, []string{"train", "test"})).OrFatal(t)
	if len(reports) != 2 {
		t.Fatalf("reports: %+v", reports)
	}

	train := reports[0]
	if !train.Found || !cmp.SliceEq(train.Subdirs, []filter.Subdir{{Name: "cloth", Files: 1}, {Name: "image", Files: 2}}) {
		t.Errorf("train: %+v", train)
	}
	if test := reports[1]; test.Found || test.Split != "test" {
		t.Errorf("test: %+v", test)
	}
}
