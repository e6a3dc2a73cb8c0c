package init_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	config_init "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/config/init"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/internal/commandline"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/logger"
	"github.com/vtonlab/vtonds/pkg/utils/try"
)

func run(flags config_init.Flags) error {
	return config_init.Task(
		context.Background(), logger.Null(), common.CommonFlags{},
		&commandline.MockCommandline[config_init.Flags]{Stderr_: new(bytes.Buffer), Flags_: flags},
		nil,
	)
}

func TestInit(t *testing.T) {
	t.Run("it writes a template loadable as settings", func(t *testing.T) {
		t.Setenv(settings.EnvBucket, "")
		dest := filepath.Join(t.TempDir(), "conf", "vtonds.yaml")
		if err := run(config_init.Flags{Out: dest}); err != nil {
			t.Fatal(err)
		}

		content := string(try.To(os.ReadFile(dest)).OrFatal(t))
		if !strings.Contains(content, "# S3 bucket where datasets are uploaded.") {
			t.Errorf("template is not commented:\n%s", content)
		}
		s := try.To(settings.Load(dest, "")).OrFatal(t)
		if s.Bucket != settings.DefaultBucket {
			t.Errorf("bucket: %s", s.Bucket)
		}
	})

	t.Run("it keeps the existing file unless --force", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "vtonds.yaml")
		if err := os.WriteFile(dest, []byte("bucket: mine\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := run(config_init.Flags{Out: dest}); err == nil {
			t.Error("existing file is overwritten")
		}
		if content := try.To(os.ReadFile(dest)).OrFatal(t); string(content) != "bucket: mine\n" {
			t.Errorf("content: %q", content)
		}

		if err := run(config_init.Flags{Out: dest, Force: true}); err != nil {
			t.Fatal(err)
		}
		if content := try.To(os.ReadFile(dest)).OrFatal(t); string(content) == "bucket: mine\n" {
			t.Error("not overwritten")
		}
	})
}
