package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/config"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/report"
	"github.com/san-kum/vsmkit/internal/storage"
	"github.com/san-kum/vsmkit/internal/vsmfile"
	"github.com/spf13/cobra"
)

// resolveConfig layers the preset, the config file and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadWith(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("negate") {
		cfg.Negate = negate
	}
	if flags.Changed("hk-radius") {
		cfg.HkRadius = hkRadius
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = delimiter
	}
	if flags.Changed("header-lines") {
		cfg.HeaderLines = headerLines
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	a := analyzer.New(cfg.Options())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if easyFile != "" || hardFile != "" {
		if len(args) > 0 {
			return fmt.Errorf("positional files cannot be combined with --easy-file/--hard-file")
		}
		return analyzeSample(ctx, a, cfg)
	}
	if len(args) == 0 {
		return fmt.Errorf("no input files (see --help)")
	}

	easyFlag, hardFlag := easy, hard
	if !cmd.Flags().Changed("easy") && !cmd.Flags().Changed("hard") {
		if easyFlag, hardFlag, err = analyzer.ParseMode(cfg.Mode); err != nil {
			return err
		}
	}
	axis, err := analyzer.ResolveMode(easyFlag, hardFlag, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	// Unreadable files still get a row; their result carries the read error.
	jobs := make([]analyzer.Job, 0, len(args))
	readErrs := make(map[int]error)
	for i, path := range args {
		t, err := vsmfile.ReadFile(path, cfg.HeaderLines)
		if err != nil {
			readErrs[i] = err
		}
		jobs = append(jobs, analyzer.Job{Name: filepath.Base(path), Trace: t})
	}

	slog.Debug("analysing", "files", len(jobs), "axis", axis, "workers", cfg.Workers)
	results, err := a.AnalyzeBatch(ctx, jobs, axis, cfg.Workers)
	if err != nil {
		return err
	}

	rows := make([]report.Row, len(results))
	samples := make([]analyzer.SampleResult, len(results))
	for i, br := range results {
		if rerr, ok := readErrs[i]; ok {
			br.Result = &analyzer.AxisResult{Axis: axis, Err: rerr}
		}
		rows[i] = report.Row{Name: br.Name, Result: br.Result}
		samples[i] = sampleOf(br.Name, br.Result)
		if !br.Result.OK() {
			slog.Warn("analysis failed", "file", args[i], "err", br.Result.Err)
		}
	}

	if asTable {
		for _, row := range rows {
			if err := report.WriteTable(os.Stdout, row.Name, row.Result); err != nil {
				return err
			}
			fmt.Println()
		}
	} else if err := report.WriteDelimited(os.Stdout, axis, rows, cfg.Delimiter); err != nil {
		return err
	}

	for _, row := range rows {
		if err := emitPlots(row.Name, row.Result); err != nil {
			return err
		}
	}
	return finish(samples, cfg.Options(), args)
}

func analyzeSample(ctx context.Context, a *analyzer.Analyzer, cfg *config.Config) error {
	s := loop.Sample{Name: sampleName}
	var sources []string
	for _, in := range []struct {
		path string
		dst  *loop.Trace
	}{{easyFile, &s.Easy}, {hardFile, &s.Hard}} {
		if in.path == "" {
			continue
		}
		t, err := vsmfile.ReadFile(in.path, cfg.HeaderLines)
		if err != nil {
			return fmt.Errorf("read %s: %w", in.path, err)
		}
		*in.dst = t
		sources = append(sources, in.path)
		if s.Name == "" {
			s.Name = strings.TrimSuffix(filepath.Base(in.path), filepath.Ext(in.path))
		}
	}

	res := a.AnalyzeSample(ctx, s)
	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		r := res.Axis(axis)
		if r == nil {
			continue
		}
		if !r.OK() {
			slog.Warn("analysis failed", "sample", res.Name, "axis", axis, "err", r.Err)
		}
		if err := report.WriteTable(os.Stdout, fmt.Sprintf("%s (%s)", res.Name, axis), r); err != nil {
			return err
		}
		fmt.Println()
		if err := emitPlots(fmt.Sprintf("%s-%s", res.Name, axis), r); err != nil {
			return err
		}
	}
	return finish([]analyzer.SampleResult{res}, cfg.Options(), sources)
}

func sampleOf(name string, r *analyzer.AxisResult) analyzer.SampleResult {
	s := analyzer.SampleResult{Name: name}
	if r.Axis == loop.Hard {
		s.Hard = r
	} else {
		s.Easy = r
	}
	return s
}

func emitPlots(name string, r *analyzer.AxisResult) error {
	if !r.OK() {
		return nil
	}
	if showPlot {
		graph, err := report.PlotASCII(r, name, plotWidth, 15)
		if err != nil {
			slog.Warn("plot skipped", "name", name, "err", err)
		} else {
			fmt.Println(graph)
			fmt.Println()
		}
	}
	if savePNG {
		path, err := report.SavePNG(outDir, name, r)
		if err != nil {
			return fmt.Errorf("save plot: %w", err)
		}
		slog.Info("saved plot", "path", path)
	}
	return nil
}

// finish handles the optional sinks shared by batch and sample mode.
func finish(samples []analyzer.SampleResult, opts analyzer.Options, sources []string) error {
	if storeRun {
		st := storage.New(dataDir)
		for i, s := range samples {
			src := sources
			if len(samples) == len(sources) {
				src = sources[i : i+1]
			}
			id, err := st.Save(s, opts, src...)
			if err != nil {
				return fmt.Errorf("store run: %w", err)
			}
			fmt.Fprintln(os.Stderr, report.Subtle.Render("stored "+id))
		}
	}
	if jsonPath != "" {
		if err := report.ExportJSON(jsonPath, samples); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		slog.Info("exported", "path", jsonPath)
	}
	if xlsxPath != "" {
		if err := report.WriteWorkbook(xlsxPath, samples); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		slog.Info("exported", "path", xlsxPath)
	}
	return nil
}
