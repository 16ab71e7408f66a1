// Package main is the coderun command.
//
// coderun runs submitted Python programs with optional standard input under a
// five second deadline. The default command starts one server chosen by
// server.transport: a gin HTTP server with a browser page and POST /run, or an
// MCP server exposing the run_code tool over stdio or streamable HTTP. The
// exec subcommand runs a single program and prints the outcome.
//
// The server uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
