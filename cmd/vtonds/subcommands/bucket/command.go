package bucket

import (
	bucket_tree "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/bucket/tree"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	tree, err := bucket_tree.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Inspect the bucket.",
		struct{}{},
		flarc.WithSubcommand("tree", tree),
	)
}
