package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(ctx, logger, commonFlag, cl, newpos)
	}
}

// Task is a command task which needs settings.
type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	s settings.Settings,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		s, err := settings.Load(commonFlag.Config, commonFlag.EnvFile)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := s.Verify(); err != nil {
			return fmt.Errorf(
				"%w\n\nCheck %s, %s, or environment variables. `vtonds config init` writes a template",
				err, commonFlag.Config, commonFlag.EnvFile,
			)
		}
		return task(ctx, logger, s, cl, params)
	})
}
