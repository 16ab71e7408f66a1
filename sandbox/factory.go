package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/coderun/config"
)

// NewExecutor creates the sandbox executor selected by sandbox.backend
func NewExecutor(logger *zap.Logger, cfg *config.Config) (SandboxExecutor, error) {
	containerConfig := &ContainerConfig{
		Image:          cfg.Sandbox.Image,
		MemoryMB:       cfg.Sandbox.MemoryMB,
		NetworkEnabled: cfg.Sandbox.NetworkEnabled,
		Environment:    cfg.Sandbox.Environment,
	}

	switch cfg.Sandbox.Backend {
	case config.BackendDocker:
		return NewDockerExecutor(logger, containerConfig), nil
	case config.BackendPodman:
		return NewPodmanExecutor(logger, containerConfig), nil
	case config.BackendLocal:
		return NewLocalExecutor(logger, WithLocalEnvironment(cfg.Sandbox.Environment)), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
