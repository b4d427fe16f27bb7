package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/report"
	"github.com/san-kum/vsmkit/internal/server"
	"github.com/san-kum/vsmkit/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSAMPLE\tTIME\tAXES\tNEGATE\tHK-RADIUS")

	for _, run := range runs {
		axes := make([]string, 0, len(run.Axes))
		for _, a := range run.Axes {
			if a.Error != "" {
				axes = append(axes, a.Axis+"!")
			} else {
				axes = append(axes, a.Axis)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%g\n",
			run.ID,
			run.Sample,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(axes, ","),
			run.Settings.Negate,
			run.Settings.HkRadius,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadSample(args[0])
	if err != nil {
		return err
	}

	fmt.Println(report.Title.Render(meta.Sample))
	fmt.Println(report.Subtle.Render(fmt.Sprintf("%s  stored %s", meta.ID, meta.Timestamp.Format(time.RFC3339))))
	for _, src := range meta.Source {
		fmt.Println(report.Subtle.Render("  " + src))
	}
	fmt.Println()

	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		r := res.Axis(axis)
		if r == nil {
			continue
		}
		if err := report.WriteTable(os.Stdout, fmt.Sprintf("%s (%s)", res.Name, axis), r); err != nil {
			return err
		}
		if graph, err := report.PlotASCII(r, axis.String()+" axis", plotWidth, 15); err == nil {
			fmt.Println()
			fmt.Println(graph)
		}
		fmt.Println()
	}
	return nil
}

func exportRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples := make([]analyzer.SampleResult, 0, len(args))
	for _, id := range args {
		s, err := st.LoadSample(id)
		if err != nil {
			return err
		}
		samples = append(samples, s)
	}

	if xlsxPath != "" {
		if err := report.WriteWorkbook(xlsxPath, samples); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %d run(s) to %s\n", len(samples), xlsxPath)
	}
	if jsonPath != "" {
		if err := report.ExportJSON(jsonPath, samples); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %d run(s) to %s\n", len(samples), jsonPath)
	}
	if xlsxPath == "" && jsonPath == "" {
		return report.EncodeJSON(os.Stdout, samples)
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noStore {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	h := server.NewHandler(analyzer.New(cfg.Options()), st, cfg.HeaderLines)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(h, origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "store", !noStore)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
