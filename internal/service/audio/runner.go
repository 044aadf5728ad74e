package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// Command is a subprocess invocation.
type Command struct {
	Binary string
	Args   []string
	// GracePeriod between SIGTERM and SIGKILL on cancellation. Defaults to 5s.
	GracePeriod time.Duration
}

// Result holds the captured output of a finished subprocess.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes subprocesses.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands in their own process group so cancellation
// terminates the whole tree (yt-dlp spawns ffmpeg itself).
type ExecRunner struct{}

// Run executes cmd and waits for it. Output is returned even on failure.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("runner: binary is required")
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // binaries come from configuration
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	if err != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf("%s: killed by context: %w", cmd.Binary, ctx.Err())
		}
		return res, fmt.Errorf("%s: exit code %d: %w", cmd.Binary, res.ExitCode, err)
	}
	return res, nil
}
