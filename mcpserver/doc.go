// Package mcpserver exposes the sandbox as a Model Context Protocol tool.
//
// It registers a single tool, run_code, using the mark3labs/mcp-go library.
// The tool result is the same JSON document the HTTP API returns, and is
// flagged as an error when the run failed or timed out.
//
// Usage:
//
//	server, err := mcpserver.New(cfg, logger, runner)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
