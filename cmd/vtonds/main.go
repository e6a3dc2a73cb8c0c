package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	subbucket "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/bucket"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	subconfig "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/config"
	subdataset "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/dataset"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/logger"
	subscripts "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/scripts"
	subver "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/version"
	"github.com/vtonlab/vtonds/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	dataset := try.To(subdataset.New()).OrFatal(logger)
	scripts := try.To(subscripts.New()).OrFatal(logger)
	bucket := try.To(subbucket.New()).OrFatal(logger)
	config := try.To(subconfig.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	vtonds := try.To(
		flarc.NewCommandGroup(
			"Download, filter and upload VTON datasets, and generate job scripts.",
			cf,
			flarc.WithSubcommand("dataset", dataset),
			flarc.WithSubcommand("scripts", scripts),
			flarc.WithSubcommand("bucket", bucket),
			flarc.WithSubcommand("config", config),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, vtonds, flarc.WithHelp(true)))
}
