package splitter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
	"github.com/hochfrequenz/stem-splitter/internal/executor"
	"github.com/hochfrequenz/stem-splitter/internal/normalize"
	"github.com/hochfrequenz/stem-splitter/internal/notify"
)

// fakeDemucs mimics the tool: it reports progress and writes its results
// under <out>/htdemucs/<track>/
type fakeDemucs struct {
	mu       sync.Mutex
	calls    [][]string
	progress []int
	exitCode int
	err      error
	release  chan struct{} // if set, Run blocks until closed
}

func (f *fakeDemucs) Run(ctx context.Context, argv []string, onProgress executor.ProgressFunc) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	for _, p := range f.progress {
		onProgress(p)
	}
	if f.err != nil {
		return f.exitCode, f.err
	}

	// argv: demucs --two-stems=<stem> --out <out> <in>
	stem := strings.TrimPrefix(argv[1], "--two-stems=")
	out := argv[3]
	track := strings.TrimSuffix(filepath.Base(argv[4]), filepath.Ext(argv[4]))
	dir := filepath.Join(out, "htdemucs", track)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 1, err
	}
	for _, name := range []string{stem + ".wav", "no_" + stem + ".wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("RIFF"), 0644); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func (f *fakeDemucs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Send(n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func newTestOrchestrator(runner ProcessRunner, notifier notify.Notifier) *Orchestrator {
	return New(Options{
		Runner:     runner,
		Normalizer: normalize.New(""),
		Notifier:   notifier,
	})
}

func TestOrchestrator_VocalsScenario(t *testing.T) {
	out := t.TempDir()
	req, err := domain.NewRunRequest("/music/song.mp3", out, "Vocals")
	require.NoError(t, err)

	tool := &fakeDemucs{progress: []int{0, 50, 100}}
	notifier := &recordingNotifier{}
	o := newTestOrchestrator(tool, notifier)

	var seen []int
	res, err := o.Run(context.Background(), req, func(p int) { seen = append(seen, p) })
	require.NoError(t, err)

	require.Equal(t, 1, tool.callCount())
	assert.Equal(t, []string{"demucs", "--two-stems=vocals", "--out", out, "/music/song.mp3"}, tool.calls[0])

	assert.FileExists(t, filepath.Join(out, "vocals.wav"))
	assert.FileExists(t, filepath.Join(out, "no_vocals.wav"))
	assert.NoDirExists(t, filepath.Join(out, "htdemucs"))

	assert.Equal(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.ID)
	assert.Len(t, res.Files, 2)
	assert.Equal(t, domain.RunIdle, o.Status())

	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1], "the last progress value must reach the caller")

	o.Wait()
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.NotifySuccess, notifier.sent[0].Type)
	assert.Contains(t, notifier.sent[0].Message, `"vocals.wav" and "no_vocals.wav"`)
}

func TestOrchestrator_ValidationNeverLaunches(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.RunRequest
		wantErr error
	}{
		{"empty input", domain.RunRequest{OutputDir: "/out", Stem: domain.StemBass}, domain.ErrMissingInput},
		{"empty output", domain.RunRequest{InputPath: "/in.wav", Stem: domain.StemBass}, domain.ErrMissingOutput},
		{"unknown stem", domain.RunRequest{InputPath: "/in.wav", OutputDir: "/out", Stem: "piano"}, domain.ErrUnknownStem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &fakeDemucs{}
			o := newTestOrchestrator(tool, nil)

			events, err := o.Start(context.Background(), tt.req)
			assert.Nil(t, events)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
			assert.Equal(t, 0, tool.callCount())
			assert.Equal(t, domain.RunIdle, o.Status())
		})
	}
}

func TestOrchestrator_ToolFailure(t *testing.T) {
	out := t.TempDir()
	failure := errors.Mark(errors.New("demucs exited with code 1"), domain.ErrToolFailed)
	tool := &fakeDemucs{exitCode: 1, err: failure, progress: []int{12}}
	notifier := &recordingNotifier{}
	o := newTestOrchestrator(tool, notifier)

	req := domain.RunRequest{InputPath: "/in.wav", OutputDir: out, Stem: domain.StemDrums}
	res, err := o.Run(context.Background(), req, nil)

	assert.True(t, errors.Is(err, domain.ErrToolFailed))
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, res.Files)
	assert.Equal(t, domain.RunIdle, o.Status())

	o.Wait()
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.NotifyError, notifier.sent[0].Type)
	assert.Contains(t, notifier.sent[0].Message, "Stem extraction failed.")
}

func TestOrchestrator_SingleRunAtATime(t *testing.T) {
	out := t.TempDir()
	tool := &fakeDemucs{release: make(chan struct{})}
	o := newTestOrchestrator(tool, nil)
	req := domain.RunRequest{InputPath: "/in.wav", OutputDir: out, Stem: domain.StemBass}

	events, err := o.Start(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, o.Status())

	_, err = o.Start(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrBusy), "second start: %v", err)

	close(tool.release)
	var done *DoneEvent
	for ev := range events {
		if d, ok := ev.(DoneEvent); ok {
			done = &d
		}
	}
	require.NotNil(t, done)
	require.NoError(t, done.Err)
	assert.Equal(t, domain.RunIdle, o.Status())

	// Idle again, so a new run is accepted
	_, err = o.Run(context.Background(), req, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, tool.callCount())
}

// blockingNotifier hangs like notify-send without a notification daemon
type blockingNotifier struct {
	release chan struct{}
	sent    chan notify.Notification
}

func (b *blockingNotifier) Send(n notify.Notification) error {
	<-b.release
	b.sent <- n
	return nil
}

func TestOrchestrator_SlowNotifierDoesNotDelayDone(t *testing.T) {
	notifier := &blockingNotifier{release: make(chan struct{}), sent: make(chan notify.Notification, 1)}
	o := newTestOrchestrator(&fakeDemucs{}, notifier)
	req := domain.RunRequest{InputPath: "/in.wav", OutputDir: t.TempDir(), Stem: domain.StemVocals}

	events, err := o.Start(context.Background(), req)
	require.NoError(t, err)

	timeout := time.After(2 * time.Second)
	var done *DoneEvent
	for done == nil {
		select {
		case ev := <-events:
			if d, ok := ev.(DoneEvent); ok {
				done = &d
			}
		case <-timeout:
			t.Fatal("DoneEvent waited for the notifier")
		}
	}
	require.NoError(t, done.Err)
	assert.Equal(t, domain.RunIdle, o.Status())

	close(notifier.release)
	o.Wait()
	select {
	case n := <-notifier.sent:
		assert.Equal(t, notify.NotifySuccess, n.Type)
	default:
		t.Error("Wait returned before the notification was sent")
	}
}

type panickingRunner struct{}

func (panickingRunner) Run(ctx context.Context, argv []string, onProgress executor.ProgressFunc) (int, error) {
	panic("boom")
}

func TestOrchestrator_PanicReturnsToIdle(t *testing.T) {
	o := newTestOrchestrator(panickingRunner{}, nil)
	req := domain.RunRequest{InputPath: "/in.wav", OutputDir: t.TempDir(), Stem: domain.StemVocals}

	_, err := o.Run(context.Background(), req, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, domain.RunIdle, o.Status())
}

func TestOrchestrator_DoneIsLastEvent(t *testing.T) {
	progress := make([]int, 200)
	for i := range progress {
		progress[i] = i % 101
	}
	tool := &fakeDemucs{progress: progress}
	o := newTestOrchestrator(tool, nil)
	req := domain.RunRequest{InputPath: "/in.wav", OutputDir: t.TempDir(), Stem: domain.StemOther}

	events, err := o.Start(context.Background(), req)
	require.NoError(t, err)

	var last Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_, isDone := last.(DoneEvent)
				assert.True(t, isDone, "channel must close right after DoneEvent")
				return
			}
			_, lastWasDone := last.(DoneEvent)
			assert.False(t, lastWasDone, "no event may follow DoneEvent")
			last = ev
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func TestSendProgress_KeepsNewestValue(t *testing.T) {
	events := make(chan Event, 1)
	sendProgress(events, 10)
	sendProgress(events, 20)
	sendProgress(events, 30)

	ev := <-events
	assert.Equal(t, ProgressEvent{Percent: 30}, ev)
}
