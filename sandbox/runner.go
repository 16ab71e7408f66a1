package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/coderun/config"
)

// Runner is the entry point the serving layers call: guard, execute, collect.
// It is safe for concurrent use; every call spawns its own child.
type Runner struct {
	logger   *zap.Logger
	executor SandboxExecutor
	slots    chan struct{} // nil means unbounded
}

// NewRunner creates a Runner. maxConcurrent <= 0 leaves admission unbounded.
func NewRunner(logger *zap.Logger, executor SandboxExecutor, maxConcurrent int) *Runner {
	r := &Runner{
		logger:   logger,
		executor: executor,
	}
	if maxConcurrent > 0 {
		r.slots = make(chan struct{}, maxConcurrent)
	}
	return r
}

// NewRunnerFromConfig creates a Runner sized by sandbox.max_concurrent
func NewRunnerFromConfig(logger *zap.Logger, executor SandboxExecutor, cfg *config.Config) *Runner {
	logger.Info("sandbox runner configured",
		zap.String("sandbox.backend", cfg.Sandbox.Backend),
		zap.Duration("timeout", Timeout),
		zap.Int("sandbox.max_concurrent", cfg.Sandbox.MaxConcurrent),
	)
	return NewRunner(logger, executor, cfg.Sandbox.MaxConcurrent)
}

// Run executes code with input and always returns a well-formed Outcome.
func (r *Runner) Run(ctx context.Context, code, input string) Outcome {
	if outcome, ok := Validate(code); !ok {
		r.logger.Debug("rejected empty code")
		return outcome
	}

	log := r.logger.With(zap.String("run_id", uuid.NewString()))

	release, err := r.acquire(ctx)
	if err != nil {
		log.Warn("gave up waiting for an execution slot", zap.Error(err))
		return Finalize(ExecuteResult{}, err, 0)
	}
	defer release()

	log.Debug("executing code",
		zap.String("code", code),
		zap.Int("input_len", len(input)))

	start := time.Now()
	res, err := r.execute(ctx, ExecuteRequest{Code: code, Input: input})
	outcome := Finalize(res, err, time.Since(start))

	switch outcome.Status {
	case StatusFailed:
		log.Error("code execution failed",
			zap.Error(err),
			zap.Float64("execution_time", outcome.ExecutionTime))
	default:
		log.Info("code execution finished",
			zap.String("status", string(outcome.Status)),
			zap.Int("exit_code", res.ExitCode),
			zap.Float64("execution_time", outcome.ExecutionTime),
			zap.Int("stdout_len", len(res.Stdout)),
			zap.Int("stderr_len", len(res.Stderr)))
	}

	return outcome
}

// execute calls the backend, turning a panic into a fault.
func (r *Runner) execute(ctx context.Context, req ExecuteRequest) (res ExecuteResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = ExecuteResult{}, fmt.Errorf("executor panic: %v", p)
		}
	}()
	return r.executor.Execute(ctx, req)
}

func (r *Runner) acquire(ctx context.Context) (func(), error) {
	if r.slots == nil {
		return func() {}, nil
	}
	select {
	case r.slots <- struct{}{}:
		return func() { <-r.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
