package generate_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/internal/commandline"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/logger"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/scripts/generate"
	"github.com/vtonlab/vtonds/pkg/scripts"
	"github.com/vtonlab/vtonds/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func defaults(out string) generate.Flags {
	return generate.Flags{
		Kind:           string(scripts.Batch),
		Out:            out,
		Model:          scripts.DefaultModel,
		PartitionCount: scripts.DefaultPartitionCount,
	}
}

func run(t *testing.T, flags generate.Flags) ([]string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	err := generate.Task(
		context.Background(), logger.Null(), common.CommonFlags{},
		&commandline.MockCommandline[generate.Flags]{Stdout_: stdout, Flags_: flags},
		nil,
	)
	lines := strings.Fields(stdout.String())
	return lines, err
}

func TestGenerate(t *testing.T) {
	t.Run("batch: one file for each difficulty, gender and partition", func(t *testing.T) {
		out := t.TempDir()
		written := try.To(run(t, defaults(out))).OrFatal(t)
		if len(written) != 24 {
			t.Fatalf("written: %d", len(written))
		}
		content := try.To(os.ReadFile(filepath.Join(out, "batch_scripts", "hard", "run_hard_male_partition_3.bat"))).OrFatal(t)
		expected := "python edit_main.py --model 9b --difficulty hard --gender male --partition partition_3\r\n"
		if string(content) != expected {
			t.Errorf("content: %q", content)
		}
	})

	t.Run("batch with --no-gender: gender is not passed", func(t *testing.T) {
		out := t.TempDir()
		flags := defaults(out)
		flags.NoGender = true
		written := try.To(run(t, flags)).OrFatal(t)
		if len(written) != 12 {
			t.Fatalf("written: %d", len(written))
		}
		content := try.To(os.ReadFile(filepath.Join(out, "batch_scripts", "easy", "run_easy_partition_0.bat"))).OrFatal(t)
		if strings.Contains(string(content), "--gender") {
			t.Errorf("content: %q", content)
		}
	})

	t.Run("shell: one wrapper for each difficulty and gender", func(t *testing.T) {
		out := t.TempDir()
		flags := defaults(out)
		flags.Kind = string(scripts.Shell)
		flags.Difficulty = []string{"easy"}
		written := try.To(run(t, flags)).OrFatal(t)
		if len(written) != 2 {
			t.Fatalf("written: %v", written)
		}
		if filepath.Base(written[0]) != "run_easy_female.sh" || filepath.Base(written[1]) != "run_easy_male.sh" {
			t.Errorf("written: %v", written)
		}
	})

	t.Run("vton: partitions are numbered up to --partition-count", func(t *testing.T) {
		out := t.TempDir()
		flags := defaults(out)
		flags.Kind = string(scripts.VTON)
		flags.PartitionCount = 2
		flags.Model = "27b"
		written := try.To(run(t, flags)).OrFatal(t)
		if len(written) != 12 {
			t.Fatalf("written: %d", len(written))
		}
		content := try.To(os.ReadFile(filepath.Join(out, "bash_scripts_vton", "medium", "run_vton_medium_female_p1.sh"))).OrFatal(t)
		if !strings.Contains(string(content), "python vton_main.py --model 27b --difficulty medium --gender female --partition partition_1") {
			t.Errorf("content: %q", content)
		}
	})

	t.Run("when kind is unknown, it is usage error", func(t *testing.T) {
		flags := defaults(t.TempDir())
		flags.Kind = "powershell"
		if _, err := run(t, flags); !errors.Is(err, flarc.ErrUsage) || !errors.Is(err, scripts.ErrBadOptions) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("when the output directory cannot be written, it fails", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		written, err := run(t, defaults(blocker))
		if err == nil || errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
		if len(written) != 0 {
			t.Errorf("written: %v", written)
		}
	})
}
