package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Timeout is the wall-clock limit for a single execution.
const Timeout = 5 * time.Second

// Interpreter is the command used to run submitted code as `<Interpreter> -c <code>`.
const Interpreter = "python3"

// waitDelay bounds how long Wait keeps draining pipes after the process is gone.
const waitDelay = time.Second

// ErrEmptyCommand is returned by a CommandRunner given no arguments.
var ErrEmptyCommand = errors.New("no command provided")

// ExecuteRequest represents the parameters for code execution
type ExecuteRequest struct {
	Code  string
	Input string
}

// ExecuteResult is what a backend observed from one child process.
// ExitCode is kept for logging only; callers never see it.
type ExecuteResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// SandboxExecutor defines the interface for sandbox execution.
//
// A non-nil error means the execution infrastructure itself failed
// (interpreter missing, runtime unreachable). A program that exits non-zero
// is not an error.
type SandboxExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// Command describes one child process invocation.
//
// A nil Env inherits the caller's environment, as with os/exec.
type Command struct {
	Args    []string
	Stdin   string
	Env     []string
	Dir     string
	Timeout time.Duration

	// OnTimeout runs after the process group has been killed, for teardown
	// that lives outside the group (a detached container, for example).
	OnTimeout func()
}

// CommandRunner spawns a process, feeds it stdin, waits for it with a
// deadline and kills it on timeout.
type CommandRunner interface {
	RunCommand(ctx context.Context, c Command) (ExecuteResult, error)
}

// RealCommandRunner implements CommandRunner using actual exec commands
type RealCommandRunner struct{}

// RunCommand executes the command and captures both output streams. Once the
// direct child is gone its process group is killed, so background descendants
// never outlive the call.
//
// The deadline is independent of ctx cancellation: once started, a child
// runs until it exits or its timeout elapses.
func (RealCommandRunner) RunCommand(ctx context.Context, c Command) (ExecuteResult, error) {
	if len(c.Args) < 1 {
		return ExecuteResult{}, ErrEmptyCommand
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Args[0], c.Args[1:]...) //nolint:gosec // Running submitted code is the point
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdin = strings.NewReader(c.Stdin)
	cmd.SysProcAttr = processGroupAttr()
	cmd.Cancel = func() error { return killProcessGroup(cmd.Process) }
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	// Nothing started by the program may outlive the run.
	if cmd.Process != nil {
		_ = killProcessGroup(cmd.Process)
	}

	// The direct child exited cleanly but a background descendant kept a
	// pipe open past waitDelay. Whatever was captured until then stands.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		err = nil
	}

	// A child that exited cleanly right at the deadline still counts as finished.
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		if c.OnTimeout != nil {
			c.OnTimeout()
		}
		return ExecuteResult{TimedOut: true, ExitCode: -1}, nil
	}

	exitCode := 0
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return ExecuteResult{}, err
		}
		exitCode = exitError.ExitCode()
	}

	return ExecuteResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
	}, nil
}

// FileSystem defines the file system operations an executor needs for its
// scratch directory
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// BaseEnvironment returns the environment every child starts from, followed
// by the extra KEY=VALUE entries.
func BaseEnvironment(extra []string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"LANG=C.UTF-8",
		"PYTHONIOENCODING=utf-8",
	}
	return append(env, extra...)
}

// InterpreterArgs returns the argv that runs code as a complete program.
func InterpreterArgs(interpreter, code string) []string {
	return []string{interpreter, "-c", code}
}
