package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studentrisk/config"
	"studentrisk/dataset"
	"studentrisk/logging"
	"studentrisk/predictor"
)

func main() {
	cmd := newPredictCmd()
	cmd.SetArgs(guardNegativeNumbers(cmd, os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newPredictCmd() *cobra.Command {
	var (
		configPath string
		modelDir   string
		batchPath  string
	)

	cmd := &cobra.Command{
		Use:   "predict [flags] <attendance> <internalMarks> <cgpa>",
		Short: "Predict a student's academic risk level",
		Long: `predict loads the trained model and label encoder, classifies one student
and prints a single JSON line with riskLevel, weakAreas and suggestion.

With --batch it reads a CSV with attendance, internalMarks and cgpa columns
(plus optional name and rollNo) and prints one JSON line per valid row.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if batchPath != "" {
				return cobra.NoArgs(cmd, args)
			}
			if len(args) != 3 {
				return fmt.Errorf("%w: expected attendance, internalMarks and cgpa, got %d values",
					predictor.ErrInvalidArgs, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, !cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if modelDir != "" {
				cfg.ModelDir = modelDir
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			loader := predictor.FileLoader{ModelType: cfg.ML.ModelType, Paths: cfg.Artifacts()}
			opts := predictor.Options{
				Rules:     cfg.Rules,
				CacheSize: cfg.Predictor.CacheSize,
				Logger:    logger,
			}

			if batchPath != "" {
				return runBatch(cmd, batchPath, loader, opts, logger)
			}

			result, err := predictor.PredictArgs(args, loader, opts)
			if err != nil {
				if !errors.Is(err, predictor.ErrInvalidArgs) {
					logger.Error("prediction failed", zap.Error(err))
				}
				return err
			}
			return predictor.WriteJSONLine(cmd.OutOrStdout(), result)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "artifact directory (overrides config)")
	cmd.Flags().StringVar(&batchPath, "batch", "", "CSV file of students to predict")
	return cmd
}

func runBatch(cmd *cobra.Command, path string, loader predictor.Loader, opts predictor.Options, logger *zap.Logger) error {
	rows, skipped, err := dataset.ReadStudentRows(path)
	if err != nil {
		return err
	}
	service, err := predictor.NewService(loader, opts)
	if err != nil {
		return err
	}
	results, err := service.PredictBatch(rows, skipped)
	if err != nil {
		return err
	}
	for _, result := range results {
		if err := predictor.WriteJSONLine(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	logger.Info("batch complete",
		zap.Int("predicted", len(results)),
		zap.Int("skipped", len(skipped)),
		zap.Any("risk_levels", predictor.CountByRiskLevel(results)),
	)
	return nil
}

// guardNegativeNumbers moves flags ahead of the positional values and
// separates them with "--" when a value such as -5 would otherwise parse as a
// flag. Flags may appear before, between or after the numbers.
func guardNegativeNumbers(cmd *cobra.Command, args []string) []string {
	var flags, positionals []string
	negative := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positionals = append(positionals, args[i+1:]...)
			i = len(args)
		case isNumber(arg):
			positionals = append(positionals, arg)
			negative = negative || strings.HasPrefix(arg, "-")
		case strings.HasPrefix(arg, "--"):
			flags = append(flags, arg)
			if takesValue(cmd, arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		case len(arg) > 1 && arg[0] == '-':
			flags = append(flags, arg)
		default:
			positionals = append(positionals, arg)
		}
	}
	if !negative {
		return args
	}
	guarded := make([]string, 0, len(flags)+len(positionals)+1)
	guarded = append(guarded, flags...)
	guarded = append(guarded, "--")
	return append(guarded, positionals...)
}

func isNumber(arg string) bool {
	_, err := strconv.ParseFloat(arg, 64)
	return err == nil
}

// takesValue reports whether a long flag without "=" consumes the next argument.
func takesValue(cmd *cobra.Command, arg string) bool {
	name := strings.TrimPrefix(arg, "--")
	if strings.Contains(name, "=") {
		return false
	}
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.NoOptDefVal == ""
}
