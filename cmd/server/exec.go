package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/isdmx/coderun/config"
	"github.com/isdmx/coderun/logger"
	"github.com/isdmx/coderun/sandbox"
)

var (
	codeFlag   string
	fileFlag   string
	inputFlag  string
	formatFlag string
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run one program and print its outcome",
	Long: `Run a single program through the configured sandbox backend and print
the outcome as JSON or YAML.

Examples:
  coderun exec --code 'print(input().upper())' --input hello
  coderun exec --file script.py --format yaml
  cat script.py | coderun exec --file -`,
	Args: cobra.NoArgs,
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&codeFlag, "code", "", "Program source")
	execCmd.Flags().StringVar(&fileFlag, "file", "", "Read the program from a file, or - for stdin")
	execCmd.Flags().StringVar(&inputFlag, "input", "", "Text fed to the program's standard input")
	execCmd.Flags().StringVar(&formatFlag, "format", "json", "Output format (json, yaml)")
	execCmd.MarkFlagsMutuallyExclusive("code", "file")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, _ []string) error {
	if formatFlag != "json" && formatFlag != "yaml" {
		return fmt.Errorf("unsupported format: %s", formatFlag)
	}

	code, err := readCode(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	executor, err := sandbox.NewExecutor(log, cfg)
	if err != nil {
		return err
	}

	runner := sandbox.NewRunner(log, executor, 1)
	outcome := runner.Run(cmd.Context(), code, inputFlag)
	log.Debug("exec finished", zap.String("status", string(outcome.Status)))

	if err := writeOutcome(cmd.OutOrStdout(), formatFlag, outcome); err != nil {
		return err
	}

	switch outcome.Status {
	case sandbox.StatusFailed, sandbox.StatusTimedOut, sandbox.StatusEmpty:
		return fmt.Errorf("execution %s", outcome.Status)
	default:
		return nil
	}
}

func readCode(stdin io.Reader) (string, error) {
	switch fileFlag {
	case "":
		return codeFlag, nil
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading program from stdin: %w", err)
		}
		return string(b), nil
	default:
		b, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", fmt.Errorf("reading program: %w", err)
		}
		return string(b), nil
	}
}

func writeOutcome(w io.Writer, format string, outcome sandbox.Outcome) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(outcome); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New("unsupported format: " + format)
	}
}
