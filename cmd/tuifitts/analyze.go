package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/analysis"
	"github.com/verte-zerg/tuifitts/internal/config"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/plot"
	"github.com/verte-zerg/tuifitts/internal/stats"
	"github.com/verte-zerg/tuifitts/internal/store"
)

const (
	defaultQuantile      = 1.0
	defaultXMin          = 0.5
	defaultXMax          = 6.5
	defaultYMin          = 0.0
	defaultYMax          = 2.5
	defaultComparisonOut = "fitts_law_results.png"
)

var (
	analyzeDevices   []string
	analyzeQuantiles map[string]string
	analyzeDefaultQ  float64
	analyzeOut       string
	analyzeNoPlot    bool
	analyzeXMin      float64
	analyzeXMax      float64
	analyzeYMin      float64
	analyzeYMax      float64
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [name=log[,log...]]...",
		Short: "Fit and compare datasets of recorded trials",
		Long: `Fit time against index of difficulty for one or more datasets.

Datasets come from log files (name=path[,path...]) or from the history
database (--device). An argument is split at its first '=' unless it names an
existing file, which is then read as a single log named after the file.
Trials slower than the dataset's quantile threshold are dropped before fitting.`,
		Example: `  tuifitts analyze mouse=total_mouse.txt touchpad=total_touchpad.txt air-mouse=total_air_mouse.txt
  tuifitts analyze --device mouse --device touchpad --quantile touchpad=0.7`,
		RunE: runAnalyzeCmd,
	}
	cmd.Flags().StringSliceVar(&analyzeDevices, "device", nil, "analyze stored trials for a device (repeatable)")
	cmd.Flags().StringToStringVar(&analyzeQuantiles, "quantile", nil, "per-dataset trimming threshold, e.g. mouse=0.95")
	cmd.Flags().Float64Var(&analyzeDefaultQ, "default-quantile", defaultQuantile, "threshold for datasets without --quantile")
	cmd.Flags().StringVar(&analyzeOut, "out", defaultComparisonOut, "comparison plot path")
	cmd.Flags().BoolVar(&analyzeNoPlot, "no-plot", false, "skip the comparison plot")
	cmd.Flags().Float64Var(&analyzeXMin, "x-min", defaultXMin, "plot ID axis minimum")
	cmd.Flags().Float64Var(&analyzeXMax, "x-max", defaultXMax, "plot ID axis maximum")
	cmd.Flags().Float64Var(&analyzeYMin, "y-min", defaultYMin, "plot time axis minimum")
	cmd.Flags().Float64Var(&analyzeYMax, "y-max", defaultYMax, "plot time axis maximum")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(fileCfg.Log, cmd.ErrOrStderr())
	defer syncLogger(logger)

	applyFloatConfig(cmd, "default-quantile", &analyzeDefaultQ, fileCfg.Analyze.DefaultQuantile)
	applyStringConfig(cmd, "out", &analyzeOut, fileCfg.Analyze.Out)
	applyFloatConfig(cmd, "x-min", &analyzeXMin, fileCfg.Analyze.XMin)
	applyFloatConfig(cmd, "x-max", &analyzeXMax, fileCfg.Analyze.XMax)
	applyFloatConfig(cmd, "y-min", &analyzeYMin, fileCfg.Analyze.YMin)
	applyFloatConfig(cmd, "y-max", &analyzeYMax, fileCfg.Analyze.YMax)

	flagQuantiles, err := parseQuantiles(analyzeQuantiles)
	if err != nil {
		return err
	}
	cfg := model.AnalyzeConfig{
		DefaultQuantile: analyzeDefaultQ,
		Quantiles:       mergeQuantiles(fileCfg.Analyze.Quantiles, flagQuantiles),
		XMin:            analyzeXMin,
		XMax:            analyzeXMax,
		YMin:            analyzeYMin,
		YMax:            analyzeYMax,
		Out:             analyzeOut,
	}
	if err := validateAnalyzeConfig(cfg); err != nil {
		return err
	}

	var datasets []analysis.Dataset
	switch {
	case len(args) > 0 && len(analyzeDevices) > 0:
		return fmt.Errorf("use either log arguments or --device, not both")
	case len(args) > 0:
		datasets, err = loadLogDatasets(args)
	case len(analyzeDevices) > 0:
		datasets, err = loadStoredDatasets(cmd, analyzeDevices)
	default:
		return fmt.Errorf("nothing to analyze: pass name=log arguments or --device")
	}
	if err != nil {
		return err
	}
	for _, ds := range datasets {
		logger.Info("dataset loaded",
			zap.String("dataset", ds.Name),
			zap.Int("rows", len(ds.Rows)),
			zap.Float64("quantile", cfg.QuantileFor(ds.Name)),
		)
	}

	results, err := analysis.AnalyzeAll(datasets, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderResults(out, results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.PlotScatter(out, "Time vs ID", scatterSeries(results), 0, 0); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if analyzeNoPlot {
		return nil
	}
	opts := plot.Options{
		Title: "Fitts' Law Results Comparison",
		X:     plot.Range{Min: cfg.XMin, Max: cfg.XMax},
		Y:     plot.Range{Min: cfg.YMin, Max: cfg.YMax},
	}
	if err := plot.WriteFile(cfg.Out, func(w io.Writer) error {
		return plot.Comparison(w, results, opts)
	}); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	logger.Info("comparison plot written", zap.String("path", cfg.Out))
	return nil
}

func scatterSeries(results []analysis.Result) []stats.ScatterSeries {
	series := make([]stats.ScatterSeries, 0, len(results))
	for i := range results {
		series = append(series, stats.ScatterSeries{
			Name:   results[i].Name,
			Points: results[i].Points,
			Fit:    &results[i].Fit,
		})
	}
	return series
}

func loadLogDatasets(args []string) ([]analysis.Dataset, error) {
	datasets := make([]analysis.Dataset, 0, len(args))
	seen := map[string]struct{}{}
	for _, arg := range args {
		name, paths, err := parseDatasetArg(arg)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("dataset %q given twice", name)
		}
		seen[name] = struct{}{}
		ds, err := analysis.LoadDataset(name, paths)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

func loadStoredDatasets(cmd *cobra.Command, devices []string) ([]analysis.Dataset, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	ctx := commandContext(cmd)
	datasets := make([]analysis.Dataset, 0, len(devices))
	for _, device := range devices {
		device = strings.TrimSpace(device)
		records, err := st.ListTrialsForDevice(ctx, device)
		if err != nil {
			return nil, fmt.Errorf("failed to load trials for %s: %w", device, err)
		}
		if len(records) == 0 {
			known, lerr := st.ListDevices(ctx)
			if lerr != nil {
				return nil, fmt.Errorf("failed to list devices: %w", lerr)
			}
			return nil, fmt.Errorf("no stored trials for device %q (known: %s)", device, strings.Join(known, ", "))
		}
		datasets = append(datasets, analysis.Dataset{Name: device, Rows: analysis.RowsFromRecords(records)})
	}
	return datasets, nil
}

// parseDatasetArg splits "name=path[,path...]". A bare path names the dataset
// after the file; an argument naming an existing file is always a bare path,
// even when the file name contains '='.
func parseDatasetArg(arg string) (string, []string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return datasetNameFromPath(arg), []string{arg}, nil
	}
	name, list, ok := strings.Cut(arg, "=")
	if !ok {
		list = arg
		name = datasetNameFromPath(arg)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("dataset %q has no name", arg)
	}
	var paths []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return "", nil, fmt.Errorf("dataset %q has no log files", name)
	}
	return name, paths, nil
}

func datasetNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseQuantiles(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		q, err := strconv.ParseFloat(strings.TrimSpace(raw[name]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --quantile value for %s: %w", name, err)
		}
		out[strings.TrimSpace(name)] = q
	}
	return out, nil
}

// mergeQuantiles layers flag thresholds over config thresholds.
func mergeQuantiles(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func validateAnalyzeConfig(cfg model.AnalyzeConfig) error {
	if cfg.DefaultQuantile <= 0 || cfg.DefaultQuantile > 1 {
		return fmt.Errorf("--default-quantile must be in (0, 1]")
	}
	names := make([]string, 0, len(cfg.Quantiles))
	for name := range cfg.Quantiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if q := cfg.Quantiles[name]; q <= 0 || q > 1 {
			return fmt.Errorf("--quantile %s must be in (0, 1]", name)
		}
	}
	if cfg.XMax <= cfg.XMin {
		return fmt.Errorf("--x-max must be > --x-min")
	}
	if cfg.YMax <= cfg.YMin {
		return fmt.Errorf("--y-max must be > --y-min")
	}
	if strings.TrimSpace(cfg.Out) == "" {
		return fmt.Errorf("--out must not be empty")
	}
	return nil
}
