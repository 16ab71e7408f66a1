package sandbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LocalExecutor runs code with the host interpreter in its own process group.
//
// The only isolation is the operating system's process boundary and the
// deadline; there is no filesystem or network confinement.
type LocalExecutor struct {
	logger      *zap.Logger
	interpreter string
	env         []string
	timeout     time.Duration
	cmdRunner   CommandRunner
	fs          FileSystem
}

// LocalExecutorOption defines a functional option for LocalExecutor
type LocalExecutorOption func(*LocalExecutor)

// WithLocalCommandRunner sets the CommandRunner for LocalExecutor
func WithLocalCommandRunner(cmdRunner CommandRunner) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.cmdRunner = cmdRunner
	}
}

// WithLocalFileSystem sets the FileSystem for LocalExecutor
func WithLocalFileSystem(fs FileSystem) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.fs = fs
	}
}

// WithLocalEnvironment appends KEY=VALUE entries to the child environment
func WithLocalEnvironment(env []string) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.env = BaseEnvironment(env)
	}
}

// NewLocalExecutor creates a new LocalExecutor with default implementations
func NewLocalExecutor(logger *zap.Logger, opts ...LocalExecutorOption) *LocalExecutor {
	executor := &LocalExecutor{
		logger:      logger,
		interpreter: Interpreter,
		env:         BaseEnvironment(nil),
		timeout:     Timeout,
		cmdRunner:   &RealCommandRunner{},
		fs:          &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the code as `python3 -c <code>` in a scratch directory
func (l *LocalExecutor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	workdir, err := l.fs.MkdirTemp("", "coderun-exec-*")
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := l.fs.RemoveAll(workdir); rmErr != nil {
			l.logger.Error("failed to remove temp directory", zap.String("path", workdir), zap.Error(rmErr))
		}
	}()

	res, err := l.cmdRunner.RunCommand(ctx, Command{
		Args:    InterpreterArgs(l.interpreter, req.Code),
		Stdin:   req.Input,
		Env:     l.env,
		Dir:     workdir,
		Timeout: l.timeout,
	})
	if err != nil {
		return ExecuteResult{}, err
	}

	if res.TimedOut {
		l.logger.Debug("local execution killed at deadline", zap.Duration("timeout", l.timeout))
	}

	return res, nil
}
