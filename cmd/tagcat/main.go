// Command tagcat evaluates and queries text-classification runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	tagcat "github.com/tagcat/go-tagcat"
	"github.com/tagcat/go-tagcat/internal/config"
	"github.com/tagcat/go-tagcat/internal/harness"
	"github.com/tagcat/go-tagcat/internal/runstore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:     "tagcat",
		Short:   "Classify ML projects by topic tag and evaluate trained checkpoints",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}
	root.AddCommand(
		newEvaluateCmd(cfg, logger),
		newPredictCmd(cfg, logger),
		newRunsCmd(cfg, logger),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.AppEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func openStore(cfg config.Config) (*runstore.Store, error) {
	return runstore.Open(cfg.DBPath)
}

func newEvaluateCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var (
		runID      string
		datasetLoc string
		resultsFP  string
		slicesFP   string
		poolSize   int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a run's best checkpoint on a labeled holdout set",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			h := harness.New(store, nil, logger)
			report, err := h.Evaluate(cmd.Context(), harness.Params{
				RunID:       runID,
				DatasetPath: datasetLoc,
				ResultsPath: resultsFP,
				SlicesPath:  slicesFP,
				PoolSize:    poolSize,
				MaxSeqLen:   cfg.MaxSeqLen,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "id of the run to evaluate")
	cmd.Flags().StringVar(&datasetLoc, "dataset-loc", "", "labeled CSV dataset to evaluate on")
	cmd.Flags().StringVar(&resultsFP, "results-fp", "", "optional path to save the JSON report")
	cmd.Flags().StringVar(&slicesFP, "slices-fp", "", "optional YAML file with extra slice definitions")
	cmd.Flags().IntVar(&poolSize, "pool-size", cfg.PoolSize, "ONNX session pool size (0 = NumCPU)")
	_ = cmd.MarkFlagRequired("run-id")
	_ = cmd.MarkFlagRequired("dataset-loc")
	return cmd
}

func newPredictCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "predict [text...]",
		Short: "Classify a single text with a run's best checkpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			run, err := store.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			cp, err := store.BestCheckpoint(ctx, runID, runstore.ModeMin)
			if err != nil {
				return err
			}

			clf, err := tagcat.New(cp.ModelPath, cp.VocabPath, run.Classes,
				tagcat.WithPoolSize(1), tagcat.WithMaxSeqLen(cfg.MaxSeqLen))
			if err != nil {
				return err
			}
			defer func() { _ = clf.Close() }()

			pred, err := clf.Predict(ctx, text)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Text: %q\n", text)
			fmt.Fprintf(cmd.OutOrStdout(), "Tag: %s\n", pred.Label)
			fmt.Fprintf(cmd.OutOrStdout(), "Confidence: %.4f\n", pred.Confidence)
			for i, class := range run.Classes {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-40s %.4f\n", class, pred.Probs[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "id of the run to load")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}

func newRunsCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage the run registry",
	}
	cmd.AddCommand(newRunsRegisterCmd(cfg, logger), newRunsListCmd(cfg), newRunsAddCheckpointCmd(cfg, logger))
	return cmd
}

func newRunsRegisterCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var (
		name    string
		classes []string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new run with its class list",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.CreateRun(cmd.Context(), name, classes)
			if err != nil {
				return err
			}
			logger.Info().Str("run_id", run.ID).Str("name", run.Name).Msg("registered run")
			fmt.Fprintln(cmd.OutOrStdout(), run.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human-readable run name")
	cmd.Flags().StringSliceVar(&classes, "classes", nil, "ordered class list the model was trained with")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("classes")
	return cmd
}

func newRunsListCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %s  [%s]\n",
					run.ID, run.Name, run.CreatedAt.Format(time.RFC3339), strings.Join(run.Classes, ","))
			}
			return nil
		},
	}
}

func newRunsAddCheckpointCmd(cfg config.Config, logger zerolog.Logger) *cobra.Command {
	var (
		runID     string
		modelPath string
		vocabPath string
		epoch     int
		valLoss   float64
	)

	cmd := &cobra.Command{
		Use:   "add-checkpoint",
		Short: "Record a checkpoint for a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := store.AddCheckpoint(cmd.Context(), runstore.Checkpoint{
				RunID:     runID,
				ModelPath: modelPath,
				VocabPath: vocabPath,
				Epoch:     epoch,
				ValLoss:   valLoss,
			})
			if err != nil {
				return err
			}
			logger.Info().Int64("checkpoint_id", id).Str("run_id", runID).Msg("added checkpoint")
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run the checkpoint belongs to")
	cmd.Flags().StringVar(&modelPath, "model", "", "path to the ONNX checkpoint")
	cmd.Flags().StringVar(&vocabPath, "vocab", "", "path to the JSON vocabulary")
	cmd.Flags().IntVar(&epoch, "epoch", 0, "training epoch of the checkpoint")
	cmd.Flags().Float64Var(&valLoss, "val-loss", 0, "validation loss of the checkpoint")
	_ = cmd.MarkFlagRequired("run-id")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("vocab")
	return cmd
}
