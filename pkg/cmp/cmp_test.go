package cmp_test

import (
	"testing"

	"github.com/vtonlab/vtonds/pkg/cmp"
)

func TestSliceEq(t *testing.T) {
	type when struct {
		a, b []string
	}
	theory := func(when when, then bool) func(*testing.T) {
		return func(t *testing.T) {
			if actual := cmp.SliceEq(when.a, when.b); actual != then {
				t.Errorf("SliceEq(%v, %v) = %v", when.a, when.b, actual)
			}
		}
	}

	t.Run("when slices are same, it returns true", theory(
		when{a: []string{"train", "test"}, b: []string{"train", "test"}}, true,
	))
	t.Run("when order differs, it returns false", theory(
		when{a: []string{"train", "test"}, b: []string{"test", "train"}}, false,
	))
	t.Run("when length differs, it returns false", theory(
		when{a: []string{"train"}, b: []string{"train", "test"}}, false,
	))
	t.Run("when both are empty, it returns true", theory(when{}, true))
}

func TestSliceContentEq(t *testing.T) {
	type when struct {
		a, b []string
	}
	theory := func(when when, then bool) func(*testing.T) {
		return func(t *testing.T) {
			if actual := cmp.SliceContentEq(when.a, when.b); actual != then {
				t.Errorf("SliceContentEq(%v, %v) = %v", when.a, when.b, actual)
			}
		}
	}

	t.Run("when order differs, it returns true", theory(
		when{a: []string{"upper", "lower", "dresses"}, b: []string{"dresses", "upper", "lower"}}, true,
	))
	t.Run("when multiplicity differs, it returns false", theory(
		when{a: []string{"upper", "upper", "lower"}, b: []string{"upper", "lower", "lower"}}, false,
	))
	t.Run("when an element is missing, it returns false", theory(
		when{a: []string{"upper", "lower"}, b: []string{"upper", "dresses"}}, false,
	))
}

func TestMapEq(t *testing.T) {
	a := map[string]int{"easy": 1, "hard": 3}
	if !cmp.MapEq(a, map[string]int{"hard": 3, "easy": 1}) {
		t.Error("same maps are not equal")
	}
	if cmp.MapEq(a, map[string]int{"easy": 1, "hard": 2}) {
		t.Error("different values are equal")
	}
	if cmp.MapEq(a, map[string]int{"easy": 1}) {
		t.Error("different keys are equal")
	}
}
