package dataset

import (
	dataset_fetch "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/dataset/fetch"
	dataset_list "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/dataset/list"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := dataset_list.New()
	if err != nil {
		return nil, err
	}
	fetch, err := dataset_fetch.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Download VTON datasets and upload them to the bucket.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("fetch", fetch),
	)
}
