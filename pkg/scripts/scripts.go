// Package scripts generates wrapper scripts which run an external editing
// program over every combination of difficulty, gender and partition.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/vtonlab/vtonds/pkg/utils/combination"
)

var ErrBadOptions = errors.New("bad options")

type Kind string

const (
	// Windows batch files, one per (difficulty, gender, partition).
	Batch Kind = "batch"

	// POSIX shell wrappers, one per (difficulty, gender), taking a partition as argument.
	Shell Kind = "shell"

	// POSIX shell scripts for vton jobs, one per (difficulty, gender, partition index).
	VTON Kind = "vton"
)

func Kinds() []Kind {
	return []Kind{Batch, Shell, VTON}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrBadOptions, s)
}

var (
	Difficulties = []string{"easy", "medium", "hard"}
	Genders      = []string{"female", "male"}
	Partitions   = []string{"partition_0", "partition_1", "partition_2", "partition_3"}
)

const (
	DefaultModel          = "9b"
	EditProgram           = "edit_main.py"
	VTONProgram           = "vton_main.py"
	DefaultPartitionCount = 7
)

type Options struct {
	Kind Kind

	// Model is passed as --model.
	Model string

	// Program is the python script to be invoked.
	Program string

	Difficulties []string

	// Genders to be enumerated. When empty, --gender is not passed at all.
	Genders []string

	// Partitions for Batch.
	Partitions []string

	// PartitionCount for VTON. Partitions are named partition_0 .. partition_<n-1>.
	PartitionCount int
}

// DefaultOptions returns options generating the standard set of scripts of the kind.
func DefaultOptions(kind Kind) Options {
	opts := Options{
		Kind:         kind,
		Model:        DefaultModel,
		Program:      EditProgram,
		Difficulties: Difficulties,
		Genders:      Genders,
		Partitions:   Partitions,
	}
	if kind == VTON {
		opts.Program = VTONProgram
		opts.PartitionCount = DefaultPartitionCount
	}
	return opts
}

// Combination is a set of flag values of a single job.
type Combination struct {
	Difficulty string

	// Gender can be empty.
	Gender string

	// Partition can be empty for scripts taking partition as argument.
	Partition string
}

// Command returns the command line of the job as a string.
//
// When c.Partition is empty, partition is given by partitionArg (verbatim).
func (c Combination) Command(program string, model string, partitionArg string) string {
	args := []string{"python", program, "--model", model, "--difficulty", c.Difficulty}
	if c.Gender != "" {
		args = append(args, "--gender", c.Gender)
	}
	partition := c.Partition
	if partition == "" {
		partition = partitionArg
	}
	args = append(args, "--partition", partition)
	return strings.Join(args, " ")
}

// Script is a file to be generated.
type Script struct {
	// Path is slash-separated, relative to the output root.
	Path string

	Content string
	Mode    fs.FileMode

	Combination Combination
}

const (
	keyDifficulty = "difficulty"
	keyGender     = "gender"
	keyPartition  = "partition"
)

func combinations(difficulties, genders, partitions []string) []Combination {
	basis := map[string][]string{keyDifficulty: difficulties}
	if 0 < len(genders) {
		basis[keyGender] = genders
	}
	if 0 < len(partitions) {
		basis[keyPartition] = partitions
	}

	ret := []Combination{}
	for _, c := range combination.MapCartesian(basis) {
		ret = append(ret, Combination{
			Difficulty: c[keyDifficulty],
			Gender:     c[keyGender],
			Partition:  c[keyPartition],
		})
	}
	return ret
}

// Plan computes scripts to be generated. It does not touch the filesystem.
//
// Scripts are sorted by their Path.
func Plan(opts Options) ([]Script, error) {
	if len(opts.Difficulties) == 0 {
		return nil, fmt.Errorf("%w: no difficulties", ErrBadOptions)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: model is empty", ErrBadOptions)
	}
	if opts.Program == "" {
		return nil, fmt.Errorf("%w: program is empty", ErrBadOptions)
	}

	var scripts []Script
	var err error
	switch opts.Kind {
	case Batch:
		if len(opts.Partitions) == 0 {
			return nil, fmt.Errorf("%w: no partitions", ErrBadOptions)
		}
		scripts, err = planBatch(opts)
	case Shell:
		scripts, err = planShell(opts)
	case VTON:
		if opts.PartitionCount <= 0 {
			return nil, fmt.Errorf("%w: partition count should be positive", ErrBadOptions)
		}
		scripts, err = planVTON(opts)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrBadOptions, opts.Kind)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Path < scripts[j].Path })
	return scripts, nil
}

func nameOf(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "_")
}

func planBatch(opts Options) ([]Script, error) {
	ret := []Script{}
	for _, c := range combinations(opts.Difficulties, opts.Genders, opts.Partitions) {
		name := "run_" + nameOf(c.Difficulty, c.Gender, c.Partition) + ".bat"
		ret = append(ret, Script{
			Path:        path.Join("batch_scripts", c.Difficulty, name),
			Content:     c.Command(opts.Program, opts.Model, "") + "\r\n",
			Mode:        0o644,
			Combination: c,
		})
	}
	return ret, nil
}

var shellTemplate = template.Must(template.New("shell").Parse(`#!/bin/bash
# Script to run {{ .Title }} for a specific partition
# Usage: ./{{ .Name }} <partition_name>
# Example: ./{{ .Name }} partition_0

if [ -z "$1" ]; then
  echo "Error: No partition supplied."
  echo "Usage: ./{{ .Name }} <partition_name>"
  exit 1
fi

PARTITION=$1

echo "Starting job for {{ .Title }} - $PARTITION"

{{ .Command }}
`))

func planShell(opts Options) ([]Script, error) {
	ret := []Script{}
	for _, c := range combinations(opts.Difficulties, opts.Genders, nil) {
		name := "run_" + nameOf(c.Difficulty, c.Gender) + ".sh"
		sb := new(strings.Builder)
		if err := shellTemplate.Execute(sb, map[string]string{
			"Title":   strings.TrimSpace(c.Difficulty + " " + c.Gender),
			"Name":    name,
			"Command": c.Command(opts.Program, opts.Model, `"$PARTITION"`),
		}); err != nil {
			return nil, err
		}
		ret = append(ret, Script{
			Path:        path.Join("bash_scripts", c.Difficulty, name),
			Content:     sb.String(),
			Mode:        0o755,
			Combination: c,
		})
	}
	return ret, nil
}

var vtonTemplate = template.Must(template.New("vton").Parse(`#!/bin/bash
# VTON Script for {{ .Title }} partition {{ .Index }}

{{ .Command }}
`))

func planVTON(opts Options) ([]Script, error) {
	partitions := make([]string, 0, opts.PartitionCount)
	for i := 0; i < opts.PartitionCount; i++ {
		partitions = append(partitions, fmt.Sprintf("partition_%d", i))
	}

	ret := []Script{}
	for _, c := range combinations(opts.Difficulties, opts.Genders, partitions) {
		index := strings.TrimPrefix(c.Partition, "partition_")
		name := "run_vton_" + nameOf(c.Difficulty, c.Gender, "p"+index) + ".sh"
		sb := new(strings.Builder)
		if err := vtonTemplate.Execute(sb, map[string]string{
			"Title":   strings.TrimSpace(c.Difficulty + " " + c.Gender),
			"Index":   index,
			"Command": c.Command(opts.Program, opts.Model, ""),
		}); err != nil {
			return nil, err
		}
		ret = append(ret, Script{
			Path:        path.Join("bash_scripts_vton", c.Difficulty, name),
			Content:     sb.String(),
			Mode:        0o755,
			Combination: c,
		})
	}
	return ret, nil
}

// Write writes scripts under root, overwriting existing files.
//
// It stops at the first filesystem error.
//
// # Returns
//
// - []string: paths of written files, in the order of scripts.
//
// - error
func Write(ctx context.Context, root string, scripts []Script) ([]string, error) {
	written := make([]string, 0, len(scripts))
	for _, s := range scripts {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		dest := filepath.Join(root, filepath.FromSlash(s.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(dest, []byte(s.Content), s.Mode); err != nil {
			return written, err
		}
		// WriteFile does not change permission of existing files.
		if err := os.Chmod(dest, s.Mode); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}
