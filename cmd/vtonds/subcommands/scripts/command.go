package scripts

import (
	scripts_generate "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/scripts/generate"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	generate, err := scripts_generate.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Generate wrapper scripts of editing and VTON jobs.",
		struct{}{},
		flarc.WithSubcommand("generate", generate),
	)
}
