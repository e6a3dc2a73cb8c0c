package config

import (
	config_init "github.com/vtonlab/vtonds/cmd/vtonds/subcommands/config/init"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	init, err := config_init.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Manage the config file.",
		struct{}{},
		flarc.WithSubcommand("init", init),
	)
}
