package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"testing"

	xe "github.com/vtonlab/vtonds/pkg/errors"
)

func writeInfo(message string) error {
	return xe.New(message)
}

func TestNew(t *testing.T) {
	t.Run("it knows location where it is created", func(t *testing.T) {
		testee := writeInfo("cannot write dataset_info.json")
		errMessage := testee.Error()

		_, thisFile, _, _ := runtime.Caller(0)

		if !strings.Contains(errMessage, "writeInfo") {
			t.Errorf("it does not know function name: %s", errMessage)
		}
		if !strings.Contains(errMessage, thisFile) {
			t.Errorf("it does not know file (%s): %s", thisFile, errMessage)
		}

		var withCaller *xe.ErrWithCaller
		if !errors.As(testee, &withCaller) || withCaller.File() != thisFile {
			t.Errorf("unexpected error: %#v", testee)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("it supports errors protocol", func(t *testing.T) {
		err := xe.Wrap(fmt.Errorf("staging: %w", fs.ErrPermission))
		if !errors.Is(err, fs.ErrPermission) {
			t.Error("it does not support unwrapping.")
		}
	})

	t.Run("when note is given, it is in the message", func(t *testing.T) {
		err := xe.WrapWithNote("datasets_temp/viton_hd/staging", fs.ErrNotExist)
		if !strings.Contains(err.Error(), "(datasets_temp/viton_hd/staging) <- ") {
			t.Errorf("note is missing: %s", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("it does not support unwrapping.")
		}
	})
}
