package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/vtonlab/vtonds/cmd/vtonds/subcommands/common"
	"github.com/vtonlab/vtonds/pkg/scripts"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Kind           string   `flag:"kind" alias:"k" metavar:"batch|shell|vton" help:"Kind of scripts to be generated."`
	Out            string   `flag:"out" alias:"o" metavar:"DIR" help:"Directory where scripts are written."`
	NoGender       bool     `flag:"no-gender" help:"Do not pass --gender to the program."`
	Model          string   `flag:"model" metavar:"MODEL" help:"Value of --model."`
	Program        string   `flag:"program" metavar:"SCRIPT" help:"Python script to be run. Default depends on --kind."`
	Difficulty     []string `flag:"difficulty" metavar:"LEVEL" help:"Difficulty to be enumerated. Repeatable. Default: easy, medium and hard."`
	Partition      []string `flag:"partition" metavar:"NAME" help:"Partition to be enumerated (batch only). Repeatable. Default: partition_0 .. partition_3."`
	PartitionCount int      `flag:"partition-count" metavar:"N" help:"Number of partitions (vton only)."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Generate wrapper scripts for every combination of difficulty, gender and partition.",
		Flags{
			Kind:           string(scripts.Batch),
			Out:            ".",
			Model:          scripts.DefaultModel,
			PartitionCount: scripts.DefaultPartitionCount,
		},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Generate scripts which run the editing (or VTON) program.

Windows batch files, one for each difficulty, gender and partition:

	{{ .Command }} --kind batch --out .

Shell wrappers taking a partition as the first argument:

	{{ .Command }} --kind shell
	./bash_scripts/easy/run_easy_female.sh partition_0

Shell scripts of VTON jobs for 7 partitions:

	{{ .Command }} --kind vton --partition-count 7

Existing scripts are overwritten.
`),
	)
}

// Options converts flags to options of script generation.
func Options(flags Flags) (scripts.Options, error) {
	kind, err := scripts.ParseKind(flags.Kind)
	if err != nil {
		return scripts.Options{}, err
	}

	opts := scripts.DefaultOptions(kind)
	if flags.Model != "" {
		opts.Model = flags.Model
	}
	if flags.Program != "" {
		opts.Program = flags.Program
	}
	if 0 < len(flags.Difficulty) {
		opts.Difficulties = flags.Difficulty
	}
	if 0 < len(flags.Partition) {
		opts.Partitions = flags.Partition
	}
	if kind == scripts.VTON && flags.PartitionCount != 0 {
		opts.PartitionCount = flags.PartitionCount
	}
	if flags.NoGender {
		opts.Genders = nil
	}
	return opts, nil
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	_ common.CommonFlags,
	cl flarc.Commandline[Flags],
	_ []any,
) error {
	flags := cl.Flags()
	opts, err := Options(flags)
	if err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	plan, err := scripts.Plan(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	written, err := scripts.Write(ctx, flags.Out, plan)
	for _, w := range written {
		fmt.Fprintln(cl.Stdout(), w)
	}
	if err != nil {
		return fmt.Errorf("failed to write scripts (%d of %d written): %w", len(written), len(plan), err)
	}

	genders := "without gender"
	if 0 < len(opts.Genders) {
		genders = strings.Join(opts.Genders, ", ")
	}
	logger.Printf(
		"%d %s scripts are generated (difficulty: %s; gender: %s)",
		len(written), opts.Kind, strings.Join(opts.Difficulties, ", "), genders,
	)
	return nil
}
