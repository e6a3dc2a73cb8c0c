package utils_test

import (
	"testing"

	"github.com/vtonlab/vtonds/pkg/cmp"
	"github.com/vtonlab/vtonds/pkg/utils"
)

type job struct {
	difficulty string
	partition  int
}

func TestMap(t *testing.T) {
	called := 0
	actual := utils.Map([]job{{"easy", 0}, {"hard", 3}}, func(j job) string {
		called += 1
		return j.difficulty
	})
	if called != 2 || !cmp.SliceEq(actual, []string{"easy", "hard"}) {
		t.Errorf("called %d times, result %v", called, actual)
	}
}

func TestFirst(t *testing.T) {
	jobs := []job{{"easy", 0}, {"medium", 1}, {"medium", 2}}

	t.Run("it returns the first matched one", func(t *testing.T) {
		j, ok := utils.First(jobs, func(j job) bool { return j.difficulty == "medium" })
		if !ok || j.partition != 1 {
			t.Errorf("found (%v, %v)", j, ok)
		}
	})

	t.Run("when nothing matches, it returns zero value and false", func(t *testing.T) {
		j, ok := utils.First(jobs, func(j job) bool { return j.difficulty == "hard" })
		if ok || j != (job{}) {
			t.Errorf("found (%v, %v)", j, ok)
		}
	})
}

func TestSorted(t *testing.T) {
	input := []job{{"hard", 2}, {"easy", 0}, {"medium", 1}}
	sorted := utils.Sorted(input, func(a, b job) bool { return a.partition < b.partition })

	actual := utils.Map(sorted, func(j job) string { return j.difficulty })
	if !cmp.SliceEq(actual, []string{"easy", "medium", "hard"}) {
		t.Errorf("not sorted: %v", actual)
	}
	if input[0].difficulty != "hard" {
		t.Errorf("input is modified: %v", input)
	}
}
