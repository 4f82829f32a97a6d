package executor

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// ProgressFunc receives each percentage parsed from the tool's output.
// It is called on the reader goroutine and must not block.
type ProgressFunc func(percent int)

// defaultTailLines is how much output is kept for error reports
const defaultTailLines = 20

// Runner launches the separation tool and follows its output
type Runner struct {
	TailLines int
	Logger    log.Interface

	mu   sync.Mutex
	tail []string
}

// NewRunner creates a runner logging to the default apex logger
func NewRunner() *Runner {
	return &Runner{
		TailLines: defaultTailLines,
		Logger:    log.Log,
	}
}

// Run starts argv, reads its combined stdout/stderr line by line, reports
// parsed percentages to onProgress and waits for the process to exit.
// A non-zero exit returns the exit code and an error marked ErrToolFailed.
func (r *Runner) Run(ctx context.Context, argv []string, onProgress ProgressFunc) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	logger := r.logger().WithFields(log.Fields{
		"tool": argv[0],
		"args": strings.Join(argv[1:], " "),
	})

	r.mu.Lock()
	r.tail = nil
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = 5 * time.Second
	hideConsole(cmd)

	// stdout and stderr share one pipe so lines arrive in the order written
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	logger.Info("Starting separation tool")
	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, errors.WithHint(
			errors.Wrapf(err, "starting %s", argv[0]),
			"Make sure the separation tool is installed and on your PATH.",
		)
	}

	var (
		g       errgroup.Group
		waitErr error
	)

	g.Go(func() error {
		waitErr = cmd.Wait()
		pw.Close()
		return nil
	})

	g.Go(func() error {
		// Keep draining if scanning stops early so the tool never blocks on a full pipe
		defer io.Copy(io.Discard, pr)

		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(ScanProgressLines)
		for scanner.Scan() {
			line := scanner.Text()
			r.record(line)
			logger.Debug(line)

			if pct, ok := ParseProgress(line); ok && onProgress != nil {
				onProgress(pct)
			}
		}
		return scanner.Err()
	})

	scanErr := g.Wait()
	if scanErr != nil {
		logger.WithError(scanErr).Warn("Stopped reading tool output")
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	logger = logger.WithField("exit_code", exitCode)

	if ctx.Err() != nil {
		logger.Warn("Separation tool interrupted")
		return exitCode, errors.Wrap(ctx.Err(), "separation interrupted")
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		logger.WithError(waitErr).Error("Waiting for separation tool failed")
		return exitCode, errors.Wrapf(waitErr, "waiting for %s", argv[0])
	}

	if exitCode != 0 {
		logger.Error("Separation tool failed")
		err := errors.Mark(errors.Newf("%s exited with code %d", argv[0], exitCode), domain.ErrToolFailed)
		if tail := r.Tail(); len(tail) > 0 {
			err = errors.WithDetail(err, strings.Join(tail, "\n"))
		}
		return exitCode, err
	}

	logger.Info("Separation tool finished")
	return 0, nil
}

// Tail returns the last lines of output from the most recent run
func (r *Runner) Tail() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tail))
	copy(out, r.tail)
	return out
}

func (r *Runner) record(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	limit := r.TailLines
	if limit <= 0 {
		limit = defaultTailLines
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tail = append(r.tail, line)
	if len(r.tail) > limit {
		r.tail = r.tail[len(r.tail)-limit:]
	}
}

func (r *Runner) logger() log.Interface {
	if r.Logger == nil {
		return log.Log
	}
	return r.Logger
}
