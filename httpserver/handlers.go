package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isdmx/coderun/sandbox"
)

type runRequest struct {
	Code  string `json:"code"`
	Input string `json:"input"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, sandbox.Outcome{Error: "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.runner.Run(c.Request.Context(), req.Code, req.Input))
}

func (*Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (*Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
