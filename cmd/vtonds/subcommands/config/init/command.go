package init

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	kpath "github.com/vtonlab/vtonds/pkg/utils/path"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Out   string `flag:"out" alias:"o" metavar:"path/to/vtonds.yaml" help:"Where the config file is written."`
	Force bool   `flag:"force" help:"Overwrite the existing file."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Write a config file template.",
		Flags{Out: common.ConfigFileName},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Write a commented config file with default values.

The file is readable only by you, since it may hold credentials.
Values can be overridden by the dotenv file (--env-file) or environment variables.
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	_ common.CommonFlags,
	cl flarc.Commandline[Flags],
	_ []any,
) error {
	flags := cl.Flags()
	dest, err := kpath.Resolve(flags.Out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return err
	}

	if err := settings.WriteTemplate(dest, flags.Force); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists. Use --force to overwrite it", dest)
		}
		return fmt.Errorf("cannot write config file: %w", err)
	}
	logger.Printf("config file is written: %s", dest)
	return nil
}
