// Command antideriv reconstructs a function from its first or second
// derivative.
//
// Usage:
//
//	antideriv reconstruct --derivative "6*x" --order 2 --condition "f(0)=0" --condition "f'(0)=1"
//	antideriv plot --derivative "x^2 - 1" --condition "f(0)=0" --out graph.png
//	antideriv serve --config antideriv.yaml
//	antideriv schema
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/plot/vg"

	"github.com/njchilds90/antideriv"
	"github.com/njchilds90/antideriv/internal/config"
	"github.com/njchilds90/antideriv/internal/plotting"
	"github.com/njchilds90/antideriv/internal/server"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Reconstruction flags
	derivative string
	order      int
	conditions []string
	zeros      string
	asJSON     bool
	asLaTeX    bool

	// Sampling and plot flags
	xMin    float64
	xMax    float64
	points  int
	outPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "antideriv",
	Short: "Reconstruct f from f' or f'' with conditions",
	Long: `antideriv integrates a first or second derivative, solves the integration
constants from conditions such as f(0)=1 and f'(2)=0 and from zeros of f',
and reports f, f', f'' with their critical and inflection points.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct",
	Short: "Print f, f', f'' and their critical and inflection points",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runReconstruct(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case asJSON:
			view := res.View()
			if cmd.Flags().Changed("points") || cmd.Flags().Changed("x-min") || cmd.Flags().Changed("x-max") {
				curves, warnings, err := res.Sample(xMin, xMax, points)
				if err != nil {
					return err
				}
				view.Curves = &curves
				view.Warnings = append(view.Warnings, warnings...)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		case asLaTeX:
			fmt.Fprintf(out, "f(x) = %s\n", res.Triple.F.LaTeX())
			fmt.Fprintf(out, "f'(x) = %s\n", res.Triple.FPrime.LaTeX())
			fmt.Fprintf(out, "f''(x) = %s\n", res.Triple.FDoublePrime.LaTeX())
			return nil
		}
		printText(out, res)
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render f, f', f'' as a three-panel PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runReconstruct(cmd.Context())
		if err != nil {
			return err
		}
		fig, warnings, err := plotting.NewFigure(res, xMin, xMax, points)
		if err != nil {
			return err
		}
		for _, w := range append(res.Warnings, warnings...) {
			logger.Warn("plot warning", zap.String("warning", w))
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		opt := plotting.Options{
			Width:  vg.Length(cfg.Plot.WidthIn) * vg.Inch,
			Height: vg.Length(cfg.Plot.HeightIn) * vg.Inch,
		}
		if err := plotting.Render(f, fig, opt); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, logger).ListenAndServe(ctx)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tool schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), antideriv.ToolSpec())
		return err
	},
}

func runReconstruct(ctx context.Context) (*antideriv.Result, error) {
	o, err := antideriv.ParseOrder(order)
	if err != nil {
		return nil, err
	}
	engine := antideriv.New(
		antideriv.WithLogger(logger),
		antideriv.WithIntegrateTimeout(cfg.GetIntegrateTimeout()),
		antideriv.WithSolveTimeout(cfg.GetSolveTimeout()),
		antideriv.WithRootTimeout(cfg.GetRootTimeout()),
	)
	return engine.Reconstruct(ctx, antideriv.Request{
		Derivative: derivative,
		Order:      o,
		Conditions: strings.Join(conditions, "\n"),
		Zeros:      zeros,
	})
}

func printText(w io.Writer, res *antideriv.Result) {
	fmt.Fprintf(w, "f(x)   = %s\n", res.Triple.F)
	fmt.Fprintf(w, "f'(x)  = %s\n", res.Triple.FPrime)
	fmt.Fprintf(w, "f''(x) = %s\n", res.Triple.FDoublePrime)
	fmt.Fprintf(w, "solve: %s\n", res.Solve.Outcome)
	if free := res.FreeConstants(); len(free) > 0 {
		fmt.Fprintf(w, "free constants: %s\n", strings.Join(free, ", "))
	}
	fmt.Fprintf(w, "critical points: %s\n", formatRoots(res.Critical))
	fmt.Fprintf(w, "inflection points: %s\n", formatRoots(res.Inflection))
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func formatRoots(roots []antideriv.Root) string {
	if len(roots) == 0 {
		return "none"
	}
	parts := make([]string, len(roots))
	for i, r := range roots {
		exact := r.Expr.String()
		approx := fmt.Sprintf("%.6g", r.Value)
		if exact == approx {
			parts[i] = exact
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", exact, approx)
		}
	}
	return strings.Join(parts, ", ")
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "antideriv.yaml", "Config file (missing file means defaults)")

	for _, cmd := range []*cobra.Command{reconstructCmd, plotCmd} {
		cmd.Flags().StringVarP(&derivative, "derivative", "d", "", "Derivative expression in x (required)")
		cmd.Flags().IntVarP(&order, "order", "o", 1, "Derivative order: 1 for f', 2 for f''")
		cmd.Flags().StringArrayVar(&conditions, "condition", nil, "Condition f(a)=b or f'(a)=b (repeatable)")
		cmd.Flags().StringVar(&zeros, "zeros", "", "Comma-separated zeros of f'")
		cmd.Flags().Float64Var(&xMin, "x-min", -5, "Left end of the sampled interval")
		cmd.Flags().Float64Var(&xMax, "x-max", 5, "Right end of the sampled interval")
		cmd.Flags().IntVar(&points, "points", antideriv.DefaultSamples, "Number of sample points")
		_ = cmd.MarkFlagRequired("derivative")
	}
	reconstructCmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	reconstructCmd.Flags().BoolVar(&asLaTeX, "latex", false, "Print LaTeX")
	plotCmd.Flags().StringVar(&outPath, "out", "graph.png", "Output PNG path")

	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
