package cli

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"heatsink/store"
	"heatsink/training"
)

var (
	trainSamples    int
	trainIterations int
	trainLR         float64
	trainSeed       int64
	trainOut        string
	trainNoRecord   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the residual correction model on synthetic data and write a checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := training.Options{
			Samples:      cfg.Training.Samples,
			Iterations:   cfg.Training.Iterations,
			LearningRate: cfg.Training.LearningRate,
			Seed:         cfg.Training.Seed,
			LogEvery:     cfg.Training.LogEvery,
			Checkpoint:   cfg.Model.Checkpoint,
		}
		flags := cmd.Flags()
		if flags.Changed("samples") {
			opts.Samples = trainSamples
		}
		if flags.Changed("iterations") {
			opts.Iterations = trainIterations
		}
		if flags.Changed("lr") {
			opts.LearningRate = trainLR
		}
		if flags.Changed("seed") {
			opts.Seed = trainSeed
		}
		if flags.Changed("out") {
			opts.Checkpoint = trainOut
		}

		report, err := training.Train(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}

		run := &store.Run{
			StartedAt:    report.Started,
			Duration:     report.Duration,
			Seed:         opts.Seed,
			Samples:      opts.Samples,
			Iterations:   opts.Iterations,
			LearningRate: opts.LearningRate,
			InitialLoss:  report.InitialLoss,
			FinalLoss:    report.FinalLoss,
			Checkpoint:   opts.Checkpoint,
			Losses:       report.Losses,
		}
		if !trainNoRecord {
			s, err := store.New(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.SaveRun(cmd.Context(), run); err != nil {
				return err
			}
			log.WithField("run", run.ID).Info("训练记录已保存")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "checkpoint %s\nloss %.6f -> %.6f in %s\n",
			opts.Checkpoint, report.InitialLoss, report.FinalLoss, report.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	f := trainCmd.Flags()
	f.IntVar(&trainSamples, "samples", 2000, "synthetic samples to generate")
	f.IntVar(&trainIterations, "iterations", 2000, "full-batch optimizer steps")
	f.Float64Var(&trainLR, "lr", 1e-3, "Adam learning rate")
	f.Int64Var(&trainSeed, "seed", 42, "random seed")
	f.StringVarP(&trainOut, "out", "o", "", "checkpoint path (overrides [model] checkpoint)")
	f.BoolVar(&trainNoRecord, "no-record", false, "do not store the run in the history database")
}
