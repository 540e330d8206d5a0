// Package sandbox runs submitted snippets in a separate interpreter process
// with a timeout. It is a demo runner, not a security boundary.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"devcollab/internal/config"
	"devcollab/internal/logger"
)

// TimeoutExitCode is reported when the snippet runs out of time.
const TimeoutExitCode = 124

const scriptName = "snippet.py"

// Result mirrors what the /api/run/code route returns.
type Result struct {
	ReturnCode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

// Limits caps the child process. Zero fields are not applied.
type Limits struct {
	CPUSeconds  uint64
	MemoryBytes uint64
}

// Runner executes code with Interpreter, passing Args and then the script path.
type Runner struct {
	Interpreter string
	Args        []string
	Timeout     time.Duration
	Limits      Limits
	logger      *logger.Logger
}

// NewRunner creates a runner from the code settings in config.
func NewRunner(config *config.Config, logger *logger.Logger) *Runner {
	return &Runner{
		Interpreter: config.CodeInterpreter,
		Args:        config.CodeArgs,
		Timeout:     config.CodeTimeout(),
		Limits: Limits{
			CPUSeconds:  uint64(config.CodeCPUSeconds),
			MemoryBytes: uint64(config.CodeMemoryMB) << 20,
		},
		logger: logger,
	}
}

// Run writes code to a fresh temp directory and executes it there. A
// non-zero exit is reported in the Result, not as an error; errors mean the
// interpreter could not be started or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, code string) (*Result, error) {
	dir, err := os.MkdirTemp("", "snippet-")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, scriptName)
	if err := os.WriteFile(script, []byte(code), 0600); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	args := append(append([]string{}, r.Args...), script)
	cmd := exec.CommandContext(runCtx, r.Interpreter, args...)
	cmd.Dir = dir
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.Interpreter, err)
	}
	// Limity nakładamy zaraz po starcie, zanim interpreter dojdzie do skryptu
	if err := applyLimits(cmd.Process.Pid, r.Limits); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("limit %s: %w", r.Interpreter, err)
	}
	err = cmd.Wait()
	elapsed := time.Since(start)

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded), cpuExceeded(cmd.ProcessState):
		result.ReturnCode = TimeoutExitCode
		result.Stderr += "\nTimeout"
		r.logger.Warning("⏱️  Snippet timed out after %v (wall) or %ds (cpu)", r.Timeout, r.Limits.CPUSeconds)
		return result, nil
	case err == nil:
		result.ReturnCode = 0
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("start %s: %w", r.Interpreter, err)
		}
		result.ReturnCode = exitErr.ExitCode()
	}

	r.logger.Info("Snippet finished with code %d in %v", result.ReturnCode, elapsed.Round(time.Millisecond))
	return result, nil
}
