package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/yildizm/wordbias/internal/config"
	"github.com/yildizm/wordbias/internal/corpus"
	"github.com/yildizm/wordbias/internal/report"
	"github.com/yildizm/wordbias/internal/subspace"
)

// watchDebounce coalesces the burst of events an editor save produces
const watchDebounce = 300 * time.Millisecond

func newTrainCommand() *cobra.Command {
	var (
		savePath  string
		watch     bool
		epochs    int
		dimension int
		seed      int64
		cbow      bool
	)
	opts := &subspaceOptions{}

	cmd := &cobra.Command{
		Use:   "train [corpus]",
		Short: "Train a toy Word2Vec model and measure its bias",
		Long: `Train a small Word2Vec model (skip-gram or CBOW with negative
sampling) on a text corpus, then fit the gender subspace on it and
project its vocabulary, or --words.

The corpus is a text or markdown file, or a directory of them. Without
a corpus argument the built-in corpus of stereotyped sentences is used.
--watch retrains whenever the corpus file changes.`,
		Example: `  wordbias train
  wordbias train corpus.txt --epochs 200 --save toy.txt
  wordbias train corpus.txt --watch --words nurse,engineer`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()

			corpusPath := cfg.Training.Corpus
			if len(args) == 1 {
				corpusPath = args[0]
			}
			if watch && corpusPath == "" {
				return errors.New("--watch needs a corpus file")
			}

			flags := cmd.Flags()
			if flags.Changed("epochs") {
				cfg.Training.Epochs = epochs
			}
			if flags.Changed("dimension") {
				cfg.Training.Dimension = dimension
			}
			if flags.Changed("seed") {
				cfg.Training.Seed = seed
			}
			if flags.Changed("cbow") {
				cfg.Training.CBOW = cbow
			}
			if err := opts.withDefaults(cfg); err != nil {
				return err
			}

			// each run is bounded by analysis.timeout under the command context
			run := func(context.Context) error {
				ctx, cancel := analysisContext(cmd)
				defer cancel()
				return runTraining(ctx, cmd, cfg, corpusPath, savePath, opts)
			}

			if !watch {
				return run(commandContext(cmd))
			}
			if err := run(commandContext(cmd)); err != nil {
				GetLogger("train").Warn("training failed: %v", err)
			}
			return watchCorpus(commandContext(cmd), corpusPath, run)
		},
	}

	cmd.Flags().StringVar(&savePath, "save", "", "save the trained vectors (.json store snapshot, .bin word2vec binary, otherwise word2vec text)")
	cmd.Flags().BoolVar(&watch, "watch", false, "retrain when the corpus file changes")
	cmd.Flags().IntVar(&epochs, "epochs", 0, "training epochs (default: training.epochs)")
	cmd.Flags().IntVar(&dimension, "dimension", 0, "vector dimension (default: training.dimension)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: training.seed)")
	cmd.Flags().BoolVar(&cbow, "cbow", false, "train CBOW instead of skip-gram")
	opts.addFlags(cmd)

	return cmd
}

// runTraining trains once and reports the training summary and subspace
func runTraining(ctx context.Context, cmd *cobra.Command, cfg *config.Config, corpusPath, savePath string, opts *subspaceOptions) error {
	log := GetLogger("train")

	m, err := trainModel(ctx, cfg, corpusPath)
	if err != nil {
		return err
	}

	if savePath != "" {
		if err := m.SaveFile(savePath); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		log.Info("saved %d vectors to %s", m.Len(), savePath)
	}

	rep := report.New(m.Name())
	stats := m.Stats
	rep.Training = &stats

	var words []string
	if opts.words != "" {
		if words, err = resolveWords(ctx, cfg, opts.words); err != nil {
			return err
		}
	} else {
		pairs, err := resolvePairs(cfg, opts.pairs)
		if err != nil {
			return err
		}
		words = vocabularyWords(m, pairs)
	}

	if err := runSubspace(ctx, cfg, m, words, opts, rep); err != nil {
		if !errors.Is(err, subspace.ErrTooFewPairs) {
			return err
		}
		log.Warn("corpus too small for a gender subspace: %v", err)
	}

	return writeReport(cmd, rep)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// watchCorpus calls run after each change to path until ctx ends.
// The directory is watched so editors that replace the file are seen.
func watchCorpus(ctx context.Context, path string, run func(context.Context) error) error {
	log := GetLogger("watch")

	target, err := filepath.Abs(config.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("resolve corpus path: %w", err)
	}
	if err := validateWatchFilePath(target); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	watcher, err := createWatcher(filepath.Dir(target))
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	scanner := corpus.NewScanner(log)
	lastHash := corpusHash(scanner, target)
	log.Warn("watching %s, press Ctrl+C to stop", target)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			hash := corpusHash(scanner, target)
			if hash == "" || hash == lastHash {
				continue
			}
			lastHash = hash
			log.Info("corpus changed, retraining")
			if err := run(ctx); err != nil {
				log.Warn("training failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			log.Warn("watcher error: %v", err)
		}
	}
}

// corpusHash is empty when the corpus cannot be read, e.g. mid-save
func corpusHash(scanner *corpus.Scanner, path string) string {
	c, err := scanner.Load(path)
	if err != nil {
		return ""
	}
	return c.Hash()
}

func createWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return watcher, nil
}

func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// validateWatchFilePath validates that a file path is safe to watch
func validateWatchFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch directory, must be a file")
	}

	return nil
}
