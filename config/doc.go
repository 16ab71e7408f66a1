// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and CODERUN_-prefixed environment variables.
// It covers server transports, the sandbox backend, and logging.
//
// The execution timeout and the interpreter command are deliberately absent:
// they are constants of the sandbox package.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sandbox backend: %s\n", cfg.Sandbox.Backend)
package config
