// Package pipeline supervises the long running tasks of the relay.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner is a long running task. It returns ctx.Err() on shutdown.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type task struct {
	name   string
	runner Runner
}

// Pipeline is the join point of the relay tasks: the first failure that is
// not a shutdown cancels every other task and is returned from Run.
type Pipeline struct {
	logger *zap.Logger
	tasks  []task
}

// New creates an empty Pipeline.
func New(logger *zap.Logger) *Pipeline {
	return &Pipeline{logger: logger.Named("pipeline")}
}

// Add registers a task. It must be called before Run.
func (p *Pipeline) Add(name string, runner Runner) {
	p.tasks = append(p.tasks, task{name: name, runner: runner})
}

// Run starts every task and waits for all of them to stop. A shutdown
// through ctx yields nil.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.tasks) == 0 {
		return errors.New("pipeline has no tasks")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range p.tasks {
		g.Go(func() error {
			p.logger.Info("task started", zap.String("task", t.name))
			err := t.runner.Run(gctx)
			switch {
			case err == nil, isShutdown(err):
				p.logger.Info("task stopped", zap.String("task", t.name))
				return err
			default:
				p.logger.Error("task failed", zap.String("task", t.name), zap.Error(err))
				return fmt.Errorf("%s: %w", t.name, err)
			}
		})
	}

	err := g.Wait()
	if isShutdown(err) && ctx.Err() != nil {
		return nil
	}
	return err
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
