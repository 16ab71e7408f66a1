package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container runtime binaries
const (
	RuntimeDocker = "docker"
	RuntimePodman = "podman"
)

// killTimeout bounds the `<runtime> kill` issued after a deadline.
const killTimeout = 10 * time.Second

// ContainerConfig holds configuration for container-backed executors
type ContainerConfig struct {
	Image          string
	MemoryMB       int
	NetworkEnabled bool
	Environment    []string
}

// ContainerExecutor implements SandboxExecutor by running the interpreter
// inside a throwaway docker or podman container, driven through the CLI.
type ContainerExecutor struct {
	logger    *zap.Logger
	runtime   string
	config    *ContainerConfig
	timeout   time.Duration
	cmdRunner CommandRunner
	killer    func(ctx context.Context, runtime, name string) error
}

// ContainerExecutorOption defines a functional option for ContainerExecutor
type ContainerExecutorOption func(*ContainerExecutor)

// WithContainerCommandRunner sets the CommandRunner for ContainerExecutor
func WithContainerCommandRunner(cmdRunner CommandRunner) ContainerExecutorOption {
	return func(c *ContainerExecutor) {
		c.cmdRunner = cmdRunner
	}
}

// NewContainerExecutor creates a ContainerExecutor for the given runtime binary
func NewContainerExecutor(logger *zap.Logger, runtime string, config *ContainerConfig, opts ...ContainerExecutorOption) *ContainerExecutor {
	executor := &ContainerExecutor{
		logger:    logger,
		runtime:   runtime,
		config:    config,
		timeout:   Timeout,
		cmdRunner: &RealCommandRunner{},
		killer:    killContainer,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// NewDockerExecutor creates a ContainerExecutor backed by docker
func NewDockerExecutor(logger *zap.Logger, config *ContainerConfig, opts ...ContainerExecutorOption) *ContainerExecutor {
	return NewContainerExecutor(logger, RuntimeDocker, config, opts...)
}

// NewPodmanExecutor creates a ContainerExecutor backed by podman
func NewPodmanExecutor(logger *zap.Logger, config *ContainerConfig, opts ...ContainerExecutorOption) *ContainerExecutor {
	return NewContainerExecutor(logger, RuntimePodman, config, opts...)
}

// Execute runs the code in a fresh container with stdin attached
func (c *ContainerExecutor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	containerName := "coderun-" + uuid.NewString()
	cmdArgs := c.runArgs(containerName, req.Code)

	res, err := c.cmdRunner.RunCommand(ctx, Command{
		Args:    cmdArgs,
		Stdin:   req.Input,
		Env:     BaseEnvironment(nil),
		Timeout: c.timeout,
		OnTimeout: func() {
			// The container is not part of the CLI's process group.
			killCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), killTimeout)
			defer cancel()
			if killErr := c.killer(killCtx, c.runtime, containerName); killErr != nil {
				c.logger.Warn("failed to kill container after timeout",
					zap.String("container", containerName), zap.Error(killErr))
			}
		},
	})
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to execute container: %w", err)
	}

	return res, nil
}

// runArgs builds the `<runtime> run` command line with the security restrictions
func (c *ContainerExecutor) runArgs(containerName, code string) []string {
	network := "none"
	if c.config.NetworkEnabled {
		network = "bridge"
	}

	cmdArgs := []string{
		c.runtime, "run",
		"--name", containerName,
		"--rm",
		"-i",
		"--network", network,
		"--memory", fmt.Sprintf("%dm", c.config.MemoryMB),
		"--pids-limit", "64",
		"--ulimit", "fsize=100000000",
		"--security-opt", "no-new-privileges:true",
		"--user", "nobody",
		"--cap-drop", "ALL",
		"-e", "PYTHONIOENCODING=utf-8",
	}

	for _, kv := range c.config.Environment {
		cmdArgs = append(cmdArgs, "-e", kv)
	}

	cmdArgs = append(cmdArgs, c.config.Image)
	return append(cmdArgs, InterpreterArgs("python", code)...)
}

func killContainer(ctx context.Context, runtime, name string) error {
	return exec.CommandContext(ctx, runtime, "kill", name).Run() //nolint:gosec // runtime is one of two constants
}
