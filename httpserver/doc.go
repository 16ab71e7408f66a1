// Package httpserver exposes the sandbox over HTTP.
//
// Routes:
//
//	GET  /         embedded editor page
//	GET  /healthz  liveness probe
//	POST /run      {"code": "...", "input": "..."} -> {"output", "error", "execution_time"}
//
// /run answers 200 for every well-formed request, whatever the outcome of
// the run; only an unparsable body gets a 400. CORS is handled by
// gin-contrib/cors using server.cors_origins.
package httpserver
