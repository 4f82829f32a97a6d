package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/apex/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hochfrequenz/stem-splitter/internal/config"
	"github.com/hochfrequenz/stem-splitter/internal/domain"
	"github.com/hochfrequenz/stem-splitter/internal/executor"
	"github.com/hochfrequenz/stem-splitter/internal/logging"
	"github.com/hochfrequenz/stem-splitter/internal/normalize"
	"github.com/hochfrequenz/stem-splitter/internal/notify"
	"github.com/hochfrequenz/stem-splitter/internal/splitter"
	"github.com/hochfrequenz/stem-splitter/internal/watch"
	"github.com/hochfrequenz/stem-splitter/tui"
)

var (
	splitStem    string
	splitOut     string
	splitFormat  string
	splitVerbose bool
	splitNotify  bool
	watchStem    string
	watchOut     string
)

func init() {
	// split command
	splitCmd := &cobra.Command{
		Use:   "split FILE",
		Short: "Split one file without the interactive form",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplit,
	}
	splitCmd.Flags().StringVar(&splitStem, "stem", "", "instrument to isolate (label or id, default from config)")
	splitCmd.Flags().StringVar(&splitOut, "out", "", "output folder (default: the file's folder)")
	splitCmd.Flags().StringVar(&splitFormat, "format", "text", "result format: text or yaml")
	splitCmd.Flags().BoolVarP(&splitVerbose, "verbose", "v", false, "log tool output")
	splitCmd.Flags().BoolVar(&splitNotify, "notify", false, "send a desktop notification when done")
	rootCmd.AddCommand(splitCmd)

	// watch command
	watchCmd := &cobra.Command{
		Use:   "watch INBOX",
		Short: "Split every audio file dropped into a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchStem, "stem", "", "instrument to isolate (label or id, default from config)")
	watchCmd.Flags().StringVar(&watchOut, "out", "", "root folder for results (default: next to each file)")
	rootCmd.AddCommand(watchCmd)

	// stems command
	stemsCmd := &cobra.Command{
		Use:   "stems",
		Short: "List the instruments that can be isolated",
		RunE:  runStems,
	}
	rootCmd.AddCommand(stemsCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func newOrchestrator(cfg *config.Config, notifier notify.Notifier) *splitter.Orchestrator {
	return splitter.New(splitter.Options{
		Tool:       executor.Tool{Binary: cfg.Tool.Binary, Args: cfg.Tool.Args},
		Runner:     executor.NewRunner(),
		Normalizer: normalize.New(cfg.Tool.ModelDir),
		Notifier:   notifier,
	})
}

func resolveStem(flag string, cfg *config.Config) (domain.Stem, error) {
	if flag == "" {
		flag = cfg.DefaultStemLabel()
	}
	return domain.ParseStem(flag)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := logging.SetupFile(cfg.Log.File, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orch := newOrchestrator(cfg, notify.NewDesktopNotifier(cfg.Notifications.Desktop))
	model := tui.NewModel(tui.ModelConfig{
		Context:   ctx,
		Starter:   orch,
		OutputDir: cfg.Defaults.OutputDir,
		StemLabel: cfg.DefaultStemLabel(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	// Quitting mid-run stops the tool
	cancel()
	orch.Wait()
	if err != nil {
		return err
	}

	// Save defaults if the user asked for it in the TUI
	if m, ok := finalModel.(tui.Model); ok && m.ConfigChanged() {
		if stem, err := domain.ParseStemLabel(m.SelectedStem()); err == nil {
			cfg.Defaults.Stem = string(stem)
		}
		cfg.Defaults.OutputDir = m.OutputDir()
		cfgPath := configPath
		if cfgPath == "" {
			cfgPath = config.DefaultConfigPath()
		}
		if err := cfg.Save(cfgPath); err != nil {
			return errors.Wrap(err, "failed to save config")
		}
		fmt.Printf("Saved defaults (stem = %s) to %s\n", m.SelectedStem(), cfgPath)
	}

	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := "warn"
	if splitVerbose {
		level = "debug"
	}
	if err := logging.SetupConsole(os.Stderr, logging.Options{Level: level}); err != nil {
		return err
	}

	stem, err := resolveStem(splitStem, cfg)
	if err != nil {
		return err
	}
	if splitFormat != "text" && splitFormat != "yaml" {
		return errors.Newf("unknown format %q (want text or yaml)", splitFormat)
	}

	out := splitOut
	if out == "" {
		out = cfg.Defaults.OutputDir
	}
	if out == "" {
		out = domain.DefaultOutputDir(args[0])
	}

	req := domain.RunRequest{InputPath: args[0], OutputDir: out, Stem: stem}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var notifier notify.Notifier = notify.NoopNotifier{}
	if splitNotify {
		notifier = notify.NewDesktopNotifier(true)
	}
	orch := newOrchestrator(cfg, notifier)

	printer := newProgressPrinter(os.Stderr)
	res, err := orch.Run(ctx, req, printer.Update)
	printer.Finish()
	orch.Wait()
	if err != nil {
		return errors.Newf("%s", splitter.FailureMessage(err))
	}

	return writeResult(os.Stdout, splitFormat, res)
}

// splitReport is the machine-readable form of a finished run
type splitReport struct {
	ID        string   `yaml:"id"`
	Input     string   `yaml:"input"`
	OutputDir string   `yaml:"output_dir"`
	Stem      string   `yaml:"stem"`
	ExitCode  int      `yaml:"exit_code"`
	Files     []string `yaml:"files"`
	Warnings  []string `yaml:"warnings,omitempty"`
	Duration  string   `yaml:"duration"`
}

func writeResult(w io.Writer, format string, res domain.RunResult) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(splitReport{
			ID:        res.ID,
			Input:     res.Request.InputPath,
			OutputDir: res.Request.OutputDir,
			Stem:      string(res.Request.Stem),
			ExitCode:  res.ExitCode,
			Files:     res.Files,
			Warnings:  splitter.MoveWarnings(res),
			Duration:  res.Duration().Round(time.Millisecond).String(),
		})
	}

	fmt.Fprintln(w, splitter.SuccessMessage(res))
	for _, f := range splitter.DescribeFiles(res.Files) {
		fmt.Fprintf(w, "  %s\n", f)
	}
	for _, warning := range splitter.MoveWarnings(res) {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

// progressPrinter redraws one line on a terminal and prints one line per
// change otherwise
type progressPrinter struct {
	w    io.Writer
	tty  bool
	last int
}

func newProgressPrinter(f *os.File) *progressPrinter {
	return &progressPrinter{
		w:    f,
		tty:  isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
		last: -1,
	}
}

func (p *progressPrinter) Update(pct int) {
	if pct == p.last {
		return
	}
	p.last = pct
	if p.tty {
		bar := strings.Repeat("█", pct/5) + strings.Repeat("░", 20-pct/5)
		fmt.Fprintf(p.w, "\r%s %3d%%", bar, pct)
		return
	}
	fmt.Fprintf(p.w, "progress %d%%\n", pct)
}

func (p *progressPrinter) Finish() {
	if p.tty && p.last >= 0 {
		fmt.Fprintln(p.w)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.SetupConsole(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}

	stem, err := resolveStem(watchStem, cfg)
	if err != nil {
		return err
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orch := newOrchestrator(cfg, notify.NewDesktopNotifier(cfg.Notifications.Desktop))
	dispatcher := watch.NewDispatcher(orch, stem, config.ExpandPath(watchOut))
	dispatcher.OnResult = func(input string, res domain.RunResult, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", input, splitter.FailureMessage(err))
			return
		}
		fmt.Printf("%s -> %s\n", input, strings.Join(res.Files, ", "))
	}

	watcher, err := watch.NewInboxWatcher(args[0], dispatcher.Enqueue)
	if err != nil {
		return err
	}
	watcher.SetDebounce(debounce)
	watcher.Start(ctx)

	log.WithFields(log.Fields{"inbox": args[0], "stem": stem}).Info("Watching for audio files")
	err = dispatcher.Run(ctx)

	watcher.Stop()
	<-watcher.Done()
	orch.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runStems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tID\tFILES")
	for _, label := range domain.StemLabels() {
		stem, _ := domain.ParseStemLabel(label)
		fmt.Fprintf(w, "%s\t%s\t%s\n", label, stem, strings.Join(stem.OutputFiles(), ", "))
	}
	return w.Flush()
}
