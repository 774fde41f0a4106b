package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/constants"
	"github.com/jsphweid/voicelead/midi"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/pattern"
	"github.com/jsphweid/voicelead/rhythm"
	"github.com/jsphweid/voicelead/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	settingsPath string
	outPath      string
	rhythmPath   string
	record       bool
	watchFile    bool
)

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&settingsPath, "config", "c", "", "pattern settings (YAML)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "output MIDI file (default <output dir>/<run id>.mid)")
	generateCmd.Flags().StringVar(&rhythmPath, "rhythm", "", "MIDI file whose tracks replace the voices' rhythm templates")
	generateCmd.Flags().BoolVar(&record, "record", false, "store the run report in DynamoDB")
	generateCmd.Flags().BoolVar(&watchFile, "watch", false, "generate again whenever the settings file changes")
	generateCmd.MarkFlagRequired("config")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates a pattern and writes it as MIDI",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !watchFile {
			return generate(settingsPath, out)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		logger, err := newLogger("info", "console")
		if err != nil {
			return err
		}
		defer logger.Sync()

		// debounced calls run on timer goroutines
		run := serialize(func() {
			if err := generate(settingsPath, out); err != nil {
				logger.Error("generate failed", zap.Error(err))
			}
		})
		run()
		return watch(ctx, settingsPath, run, logger)
	},
}

func generate(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var overrides map[int]*rhythm.Rhythm
	if rhythmPath != "" {
		if overrides, err = midi.ReadRhythms(rhythmPath, cfg.TicksPerBeat); err != nil {
			return err
		}
	}

	s, report, genErr := pattern.Generate(cfg, overrides, logger)
	if report != nil {
		printReport(out, report)
		if record {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.SaveReport(report); err != nil {
				return err
			}
			logger.Info("report recorded", zap.String("id", report.ID))
		}
	}
	if genErr != nil {
		return genErr
	}

	dest := outPath
	if dest == "" {
		util.EnsureDir(constants.GetOutputDir())
		dest = filepath.Join(constants.GetOutputDir(), report.ID+".mid")
	}
	if err := midi.WriteFile(dest, s, cfg.Tet, cfg.TicksPerBeat); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d notes to %s\n", s.Len(), dest)
	return nil
}

func printReport(out io.Writer, r *model.RunReport) {
	status := "failed"
	if r.Succeeded {
		status = "succeeded"
	}
	fmt.Fprintf(out, "run %s %s after %d attempt(s), seed %d\n", r.ID, status, r.Attempts, r.Seed)
	for _, reason := range util.GetKeys(r.Failures) {
		fmt.Fprintf(out, "  %-18s %d\n", reason, r.Failures[reason])
	}
	for _, t := range util.GetKeys(r.Transitions) {
		fmt.Fprintf(out, "  harmonies %-9s %d\n", t, r.Transitions[t])
	}
}

// serialize wraps fn so that calls never overlap.
func serialize(fn func()) func() {
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}

// watch calls run after changes to path settle, until ctx is done.
func watch(ctx context.Context, path string, run func(), logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start watcher: %w", err)
	}
	defer watcher.Close()

	// editors often replace the file on save, so watch its directory
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("could not watch %s: %w", path, err)
	}
	debounced := debounce.New(300 * time.Millisecond)
	logger.Info("watching settings", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("settings changed", zap.Stringer("op", ev.Op))
			debounced(run)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
