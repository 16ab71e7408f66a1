package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "coderun",
	Short: "coderun - run Python snippets under a deadline",
	Long: `coderun executes submitted Python programs with optional standard input
and returns their output, error text and execution time.

Without a subcommand it starts the server selected by server.transport.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a config file (default ./config.yaml)")
	cobra.OnInitialize(func() {
		if configFlag != "" {
			viper.SetConfigFile(configFlag)
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
