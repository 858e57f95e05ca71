// Package spooler controls the OS print-spooler service.
package spooler

import (
	"context"
	"runtime"
	"strings"
)

// Controller is the capability the health check depends on. It can be faked
// in tests; the real implementation shells out to the OS service manager.
type Controller interface {
	IsRunning(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
}

type execController struct {
	runner Runner
	goos   string
}

// NewController returns a Controller backed by the platform service manager:
// sc/net on Windows, systemctl elsewhere. A nil runner uses exec.Command.
func NewController(runner Runner) Controller {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &execController{runner: runner, goos: runtime.GOOS}
}

func (c *execController) IsRunning(ctx context.Context) (bool, error) {
	if c.goos == "windows" {
		stdout, _, err := c.runner.Run(ctx, "sc", "query", "spooler")
		if err != nil {
			return false, err
		}
		return strings.Contains(string(stdout), "RUNNING"), nil
	}
	stdout, _, err := c.runner.Run(ctx, "systemctl", "is-active", "cups")
	if err != nil {
		// systemctl exits non-zero for inactive units
		return false, nil
	}
	return strings.TrimSpace(string(stdout)) == "active", nil
}

func (c *execController) Start(ctx context.Context) error {
	if c.goos == "windows" {
		_, _, err := c.runner.Run(ctx, "net", "start", "spooler")
		return err
	}
	_, _, err := c.runner.Run(ctx, "systemctl", "start", "cups")
	return err
}
