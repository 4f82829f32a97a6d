// Package splitter runs one separation at a time: it guards the Idle/Running
// state, drives the tool on a worker goroutine and relocates the results.
// The worker never touches UI state; it posts events on a channel.
package splitter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
	"github.com/hochfrequenz/stem-splitter/internal/executor"
	"github.com/hochfrequenz/stem-splitter/internal/normalize"
	"github.com/hochfrequenz/stem-splitter/internal/notify"
)

// ProcessRunner launches the separation tool and reports progress
type ProcessRunner interface {
	Run(ctx context.Context, argv []string, onProgress executor.ProgressFunc) (int, error)
}

// OutputNormalizer flattens the tool's output directory
type OutputNormalizer interface {
	Normalize(outDir string, stem domain.Stem) normalize.Report
}

// Event is posted by the worker while a run is active
type Event interface {
	isEvent()
}

// ProgressEvent carries the latest percentage parsed from the tool output
type ProgressEvent struct {
	Percent int
}

// DoneEvent is the last event of a run. The orchestrator is Idle again when it arrives.
type DoneEvent struct {
	Result domain.RunResult
	Err    error
}

func (ProgressEvent) isEvent() {}
func (DoneEvent) isEvent()     {}

// Options configures an Orchestrator. Nil collaborators get working defaults.
type Options struct {
	Tool       executor.Tool
	Runner     ProcessRunner
	Normalizer OutputNormalizer
	Notifier   notify.Notifier
	Logger     log.Interface
}

// Orchestrator owns the Idle/Running state machine
type Orchestrator struct {
	tool       executor.Tool
	runner     ProcessRunner
	normalizer OutputNormalizer
	notifier   notify.Notifier
	logger     log.Interface
	now        func() time.Time

	mu     sync.Mutex
	status domain.RunStatus

	notifying sync.WaitGroup
}

// New creates an idle orchestrator
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		tool:       opts.Tool,
		runner:     opts.Runner,
		normalizer: opts.Normalizer,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		now:        time.Now,
		status:     domain.RunIdle,
	}
	if o.runner == nil {
		o.runner = executor.NewRunner()
	}
	if o.normalizer == nil {
		o.normalizer = normalize.New(normalize.DefaultModelDir)
	}
	if o.notifier == nil {
		o.notifier = notify.NoopNotifier{}
	}
	if o.logger == nil {
		o.logger = log.Log
	}
	return o
}

// Status returns whether a run is active
func (o *Orchestrator) Status() domain.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Start validates req and, if no run is active, launches it on a worker
// goroutine. Validation errors and ErrBusy are returned without launching
// anything. The returned channel yields ProgressEvents followed by exactly
// one DoneEvent, then closes. Callers must drain it.
func (o *Orchestrator) Start(ctx context.Context, req domain.RunRequest) (<-chan Event, error) {
	if err := req.Validate(); err != nil {
		o.logger.WithError(err).Warn("Rejected separation request")
		return nil, err
	}

	o.mu.Lock()
	if o.status == domain.RunRunning {
		o.mu.Unlock()
		return nil, errors.WithStack(domain.ErrBusy)
	}
	o.status = domain.RunRunning
	o.notifying.Add(1)
	o.mu.Unlock()

	events := make(chan Event, 1)
	go o.work(ctx, req, events)
	return events, nil
}

// Run is the blocking form of Start for callers without an event loop
func (o *Orchestrator) Run(ctx context.Context, req domain.RunRequest, onProgress func(int)) (domain.RunResult, error) {
	events, err := o.Start(ctx, req)
	if err != nil {
		return domain.RunResult{Request: req, ExitCode: -1}, err
	}

	var done DoneEvent
	for ev := range events {
		switch ev := ev.(type) {
		case ProgressEvent:
			if onProgress != nil {
				onProgress(ev.Percent)
			}
		case DoneEvent:
			done = ev
		}
	}
	return done.Result, done.Err
}

// Wait blocks until every started run has finished and sent its
// notification. Headless callers use it before exiting.
func (o *Orchestrator) Wait() {
	o.notifying.Wait()
}

func (o *Orchestrator) work(ctx context.Context, req domain.RunRequest, events chan Event) {
	result := domain.RunResult{
		ID:        uuid.NewString(),
		Request:   req,
		ExitCode:  -1,
		StartedAt: o.now(),
	}
	logger := o.logger.WithFields(log.Fields{
		"run_id": result.ID,
		"input":  req.InputPath,
		"output": req.OutputDir,
		"stem":   req.Stem,
	})

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("separation crashed: %v", r)
		}
		result.FinishedAt = o.now()

		o.mu.Lock()
		o.status = domain.RunIdle
		o.mu.Unlock()

		if err != nil {
			logger.WithError(err).Error("Separation failed")
		} else {
			logger.WithField("duration", result.Duration().String()).Info("Separation complete")
		}
		defer o.notifying.Done()

		events <- DoneEvent{Result: result, Err: err}
		close(events)

		// After DoneEvent: a notifier stuck on a missing daemon must not hold the UI
		o.sendNotification(logger, result, err)
	}()

	logger.Info("Separation started")
	argv := executor.BuildCommand(o.tool, req)
	result.ExitCode, err = o.runner.Run(ctx, argv, func(pct int) {
		sendProgress(events, pct)
	})
	if err != nil {
		return
	}

	report := o.normalizer.Normalize(req.OutputDir, req.Stem)
	result.Moves = report.Moves
	result.Files = existingOutputs(req)
}

// sendProgress never blocks the reader: a value the UI has not picked up yet
// is replaced by the newer one
func sendProgress(events chan Event, pct int) {
	ev := ProgressEvent{Percent: pct}
	select {
	case events <- ev:
		return
	default:
	}
	select {
	case <-events:
	default:
	}
	select {
	case events <- ev:
	default:
	}
}

func (o *Orchestrator) sendNotification(logger log.Interface, result domain.RunResult, err error) {
	n := notify.Notification{
		Title:   "Stem splitter",
		Message: SuccessMessage(result),
		Type:    notify.NotifySuccess,
		RunID:   result.ID,
	}
	if err != nil {
		n.Message = FailureMessage(err)
		n.Type = notify.NotifyError
	}
	if nerr := o.notifier.Send(n); nerr != nil {
		logger.WithError(nerr).Debug("Desktop notification failed")
	}
}

func existingOutputs(req domain.RunRequest) []string {
	var files []string
	for _, name := range req.Stem.OutputFiles() {
		path := filepath.Join(req.OutputDir, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	return files
}
