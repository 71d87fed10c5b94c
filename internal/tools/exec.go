package tools

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout is returned when a command outlives its Timeout.
var ErrTimeout = stderrors.New("command timed out")

// waitDelay bounds how long Run waits for output pipes after the process is
// killed.
const waitDelay = 2 * time.Second

type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner runs external programs. A non-zero exit status is reported through
// Result.ExitCode; only launch failures and timeouts are errors.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

type Exec struct{}

func (Exec) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	killGroup(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if ctx.Err() == context.DeadlineExceeded {
		return res, errors.Wrapf(ErrTimeout, "%s after %v", c.Name, c.Timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, errors.Wrapf(err, "running %s", c.Name)
	}
	return res, nil
}
