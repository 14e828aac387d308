package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"goqvalue/adapters/excel"
	"goqvalue/adapters/lfdr"
	"goqvalue/adapters/pi0"
	"goqvalue/app"
	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/config"
	"goqvalue/internal/empirical"
	"goqvalue/internal/qvalue"
	"goqvalue/internal/summary"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file when present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "goqvalue",
		Short:         "Estimate q-values, pi0 and local FDR for a list of p-values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newComputeCmd(),
		newSummaryCmd(),
		newEmpiricalCmd(),
	)
	return rootCmd
}

// computeFlags are shared by every command that runs the engine
type computeFlags struct {
	column    string
	fdrLevel  float64
	pfdr      bool
	pi0       float64
	pi0Method string
	lambda    string
	smoothDF  float64
	smoothLog bool
	transform string
	adjust    float64
	noLFDR    bool
	out       string
}

func (f *computeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.column, "column", "", "Column holding p-values (auto-detected when empty)")
	cmd.Flags().Float64Var(&f.fdrLevel, "fdr-level", 0, "Report significance at this FDR level, in (0, 1]")
	cmd.Flags().BoolVar(&f.pfdr, "pfdr", false, "Use the positive FDR denominator")
	cmd.Flags().Float64Var(&f.pi0, "pi0", 0, "Use this pi0 instead of estimating it, in (0, 1]")
	cmd.Flags().StringVar(&f.pi0Method, "pi0-method", "", "pi0 estimator: smoother|bootstrap")
	cmd.Flags().StringVar(&f.lambda, "lambda", "", "Comma-separated lambda grid, or a single value")
	cmd.Flags().Float64Var(&f.smoothDF, "smooth-df", 0, "Degrees of freedom of the pi0 smoothing spline")
	cmd.Flags().BoolVar(&f.smoothLog, "smooth-log", false, "Smooth log(pi0) rather than pi0")
	cmd.Flags().StringVar(&f.transform, "transform", "", "Local FDR transform: probit|logit")
	cmd.Flags().Float64Var(&f.adjust, "adjust", 0, "Local FDR bandwidth multiplier")
	cmd.Flags().BoolVar(&f.noLFDR, "no-lfdr", false, "Skip local FDR estimation")
	cmd.Flags().StringVar(&f.out, "out", "", "Write per-test results to this .xlsx, .csv or .json file")
}

// options merges flags over the environment defaults
func (f *computeFlags) options(cmd *cobra.Command, cfg *config.Config) (qvalue.Options, error) {
	est := cfg.EstimatorConfig()
	opts := qvalue.Options{PFDR: f.pfdr, SkipLFDR: f.noLFDR}

	if cmd.Flags().Changed("fdr-level") {
		level := f.fdrLevel
		opts.FDRLevel = &level
	}
	if cmd.Flags().Changed("pi0") {
		p := f.pi0
		opts.Pi0 = &p
	}
	if f.pi0Method != "" {
		m, err := fdr.ParsePi0Method(f.pi0Method)
		if err != nil {
			return opts, err
		}
		est.Pi0Method = m
	}
	if f.transform != "" {
		t, err := fdr.ParseTransform(f.transform)
		if err != nil {
			return opts, err
		}
		est.Transform = t
	}
	if f.lambda != "" {
		grid, err := parseFloatList(f.lambda)
		if err != nil {
			return opts, fmt.Errorf("invalid --lambda: %w", err)
		}
		est.Lambda = grid
	}
	if cmd.Flags().Changed("smooth-df") {
		est.SmoothDF = f.smoothDF
	}
	if f.smoothLog {
		est.SmoothLogPi0 = fdr.Bool(true)
	}
	if cmd.Flags().Changed("adjust") {
		est.Adjust = f.adjust
	}

	opts.Estimator = est
	return opts, nil
}

func parseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func newService(cfg *config.Config, logger *internal.Logger) *app.QValueService {
	engine := qvalue.NewEngine(pi0.NewEstimator(logger), lfdr.NewEstimator(logger), logger)
	return app.NewQValueService(engine, nil, cfg.EstimatorConfig(), cfg.Batch.Concurrency, logger)
}

func loadConfig() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level, _ := internal.ParseLogLevel(cfg.LogLevel)
	return cfg, internal.NewLogger(level), nil
}

func newComputeCmd() *cobra.Command {
	var flags computeFlags

	cmd := &cobra.Command{
		Use:   "compute [file]",
		Short: "Compute q-values for a column of p-values",
		Long: `Compute q-values, pi0 and local FDR for the p-values in an .xlsx (Sheet1) or .csv file.

Example: goqvalue compute pvalues.csv --column pvalue --fdr-level 0.05 --out results.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := excel.ReadColumn(args[0], flags.column, logger)
			if err != nil {
				return err
			}
			return runCompute(cmd, cfg, logger, &flags, args[0], p)
		},
	}

	flags.register(cmd)
	return cmd
}

func runCompute(cmd *cobra.Command, cfg *config.Config, logger *internal.Logger, flags *computeFlags, name string, p []float64) error {
	opts, err := flags.options(cmd, cfg)
	if err != nil {
		return err
	}

	run, err := newService(cfg, logger).Analyze(cmd.Context(), app.AnalyzeRequest{Name: name, PValues: p, Options: opts})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range run.Result.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Code, w.Message)
	}
	if err := summary.New(run.Result).Render(out); err != nil {
		return err
	}

	if flags.out != "" {
		if err := excel.WriteResult(flags.out, run.Result); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults written to %s\n", flags.out)
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	var column string

	cmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "Print the cutoff table for a saved .json result or a p-value file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if strings.EqualFold(filepath.Ext(path), ".json") {
				result, err := loadResult(path)
				if err != nil {
					return err
				}
				return summary.New(result).Render(cmd.OutOrStdout())
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := excel.ReadColumn(path, column, logger)
			if err != nil {
				return err
			}
			flags := computeFlags{}
			return runCompute(cmd, cfg, logger, &flags, path, p)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column holding p-values (auto-detected when empty)")
	return cmd
}

func loadResult(path string) (*fdr.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result fdr.Result
	if err := result.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}

func newEmpiricalCmd() *cobra.Command {
	var flags computeFlags
	var unpooled bool

	cmd := &cobra.Command{
		Use:   "empirical [stat-file] [null-file]",
		Short: "Turn observed and null statistics into p-values, then q-values",
		Long: `Compute empirical p-values from observed statistics and null draws, then run the q-value engine.

By default every cell of the null file is pooled. With --unpooled the null file
holds one row of draws per test, in the same order as the observed statistics.

Example: goqvalue empirical observed.csv permutations.csv --column stat --out results.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			stat, err := excel.ReadColumn(args[0], flags.column, logger)
			if err != nil {
				return err
			}
			table, err := excel.NewDataReader(args[1], logger).ReadTable()
			if err != nil {
				return err
			}
			null, err := table.Matrix()
			if err != nil {
				return err
			}

			var p []float64
			if unpooled {
				p, err = empirical.Unpooled(stat, null)
			} else {
				var pooled []float64
				for _, row := range null {
					pooled = append(pooled, row...)
				}
				p, err = empirical.Pooled(stat, pooled)
			}
			if err != nil {
				return err
			}

			return runCompute(cmd, cfg, logger, &flags, args[0], p)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&unpooled, "unpooled", false, "Use one null row per test instead of pooling")
	return cmd
}
