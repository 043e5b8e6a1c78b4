package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studentrisk/config"
	"studentrisk/logging"
	"studentrisk/training"
)

func main() {
	if err := newTrainCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newTrainCmd() *cobra.Command {
	var (
		configPath  string
		datasetPath string
		modelDir    string
	)

	cmd := &cobra.Command{
		Use:   "train_model",
		Short: "Train the student risk model",
		Long: `train_model fits the risk classifier and its label encoder on the labeled
student dataset and writes both artifacts to the model directory, replacing
any earlier versions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, !cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if datasetPath != "" {
				cfg.DatasetPath = datasetPath
			}
			if modelDir != "" {
				cfg.ModelDir = modelDir
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			summary, err := training.Train(training.TrainingConfig{
				DatasetPath: cfg.DatasetPath,
				ModelType:   cfg.ML.ModelType,
				Forest:      cfg.ForestConfig(),
				Artifacts:   cfg.Artifacts(),
			}, logger)
			if err != nil {
				logger.Error("training failed", zap.Error(err))
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Model trained and saved (%d rows, classes %v) to %s\n",
				summary.Rows, summary.Classes, cfg.ModelDir)
			return nil
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "labeled CSV dataset (overrides config)")
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "artifact output directory (overrides config)")
	return cmd
}
