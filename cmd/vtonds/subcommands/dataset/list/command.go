package list

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	"github.com/vtonlab/vtonds/pkg/dataset"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List datasets which can be fetched.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task(dataset.Descriptors)),
	)
}

func Task(descriptors func() []dataset.Descriptor) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		s settings.Settings,
		cl flarc.Commandline[struct{}],
		_ []any,
	) error {
		w := cl.Stdout()
		for _, d := range descriptors() {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Title)
			if d.Homepage != "" {
				fmt.Fprintf(w, "\thomepage: %s\n", d.Homepage)
			}
			for _, src := range d.Sources {
				fmt.Fprintf(w, "\tsource:   %s (saved as %s)\n", src, src.Archive)
			}
			if d.Filtered() {
				fmt.Fprintf(w, "\tkeeps:    %s\n", strings.Join(d.Keep, ", "))
			}
			if d.Subset.Enabled() {
				fmt.Fprintf(w, "\tsubset:   %d%% (seed %d)\n", d.Subset.Percentage(), d.Subset.Seed)
			}
			fmt.Fprintf(w, "\tupload:   s3://%s/%s/\n", s.Bucket, d.Prefix(s.Prefix))
		}
		return nil
	}
}
