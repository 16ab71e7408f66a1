// Package sandbox runs untrusted code under a fixed wall-clock deadline.
//
// A Runner validates the submitted code, hands it to a SandboxExecutor and
// shapes whatever happened into an Outcome. Executors spawn one child
// process per request with its input piped in and both output streams
// captured; a child still running after Timeout is killed together with its
// process group. Two backends exist: LocalExecutor, which uses the host
// interpreter, and ContainerExecutor, which drives docker or podman.
//
// Every path returns an Outcome. Infrastructure faults become StatusFailed,
// deadline kills become StatusTimedOut, and a program that exits with an
// error of its own is still StatusCompleted.
//
// Usage:
//
//	executor, err := sandbox.NewExecutor(logger, cfg)
//	runner := sandbox.NewRunner(logger, executor, 0)
//	outcome := runner.Run(ctx, "print('hi')", "")
package sandbox
