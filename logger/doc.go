// Package logger provides structured logging capabilities.
//
// The logger package builds the application's zap logger from the logging
// section of the configuration. Output always goes to stderr so that the
// stdio MCP transport keeps stdout to itself.
//
// Usage:
//
//	log, err := logger.New("production", "info")
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("Application started")
package logger
