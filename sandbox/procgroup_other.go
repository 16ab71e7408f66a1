//go:build !unix

package sandbox

import (
	"os"
	"syscall"
)

func processGroupAttr() *syscall.SysProcAttr {
	return nil
}

// killProcessGroup only reaches the direct child on platforms without
// process groups.
func killProcessGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
