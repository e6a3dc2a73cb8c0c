package common

import (
	"path/filepath"

	"github.com/vtonlab/vtonds/pkg/utils"
)

const (
	ConfigFileName = "vtonds.yaml"
	EnvFileName    = ".env"
)

type CommonFlags struct {
	Config  string `flag:"config" metavar:"path/to/vtonds.yaml" help:"path to the config file"`
	EnvFile string `flag:"env-file" metavar:"path/to/.env" help:"path to the dotenv file"`
}

// Flags returns default common flags.
//
// The config file and the dotenv file are searched from the directory "from"
// up to the root. When not found, they point files in "from".
func Flags(from string) (CommonFlags, error) {
	from, err := filepath.Abs(from)
	if err != nil {
		return CommonFlags{}, err
	}

	find := func(name string) string {
		if found, err := utils.SearchFileUpward(from, name); err == nil {
			return found
		}
		return filepath.Join(from, name)
	}

	return CommonFlags{
		Config:  find(ConfigFileName),
		EnvFile: find(EnvFileName),
	}, nil
}
