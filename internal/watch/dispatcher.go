package watch

import (
	"context"
	"sync"

	"github.com/apex/log"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// Splitter runs one separation to completion
type Splitter interface {
	Run(ctx context.Context, req domain.RunRequest, onProgress func(int)) (domain.RunResult, error)
}

// ResultCallback is told about every finished file
type ResultCallback func(input string, res domain.RunResult, err error)

// Dispatcher feeds arrived files to the splitter one at a time
type Dispatcher struct {
	splitter Splitter
	stem     domain.Stem
	outRoot  string
	queue    chan string
	logger   log.Interface

	stopped  chan struct{}
	stopOnce sync.Once

	OnResult ResultCallback
}

// NewDispatcher creates a dispatcher splitting out stem for every file.
// Results go to a per-track folder under outRoot, or next to the input if empty.
func NewDispatcher(splitter Splitter, stem domain.Stem, outRoot string) *Dispatcher {
	return &Dispatcher{
		splitter: splitter,
		stem:     stem,
		outRoot:  outRoot,
		queue:    make(chan string, 64),
		logger:   log.Log,
		stopped:  make(chan struct{}),
	}
}

// Enqueue adds files to the queue. It blocks while the queue is full, until
// Run has returned; files arriving after that are dropped.
func (d *Dispatcher) Enqueue(files []string) {
	for i, f := range files {
		select {
		case d.queue <- f:
		case <-d.stopped:
			d.logger.WithField("dropped", len(files)-i).Warn("Dispatcher stopped, ignoring new files")
			return
		}
	}
}

// Run processes queued files until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stopOnce.Do(func() { close(d.stopped) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case input := <-d.queue:
			d.process(ctx, input)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, input string) {
	req := domain.RunRequest{
		InputPath: input,
		OutputDir: OutputDirFor(input, d.outRoot),
		Stem:      d.stem,
	}
	logger := d.logger.WithFields(log.Fields{"input": input, "output": req.OutputDir})
	logger.Info("Splitting new file")

	res, err := d.splitter.Run(ctx, req, nil)
	if err != nil {
		logger.WithError(err).Error("Splitting failed")
	}
	if d.OnResult != nil {
		d.OnResult(input, res, err)
	}
}
