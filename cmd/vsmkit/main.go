package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/config"
	"github.com/san-kum/vsmkit/internal/estimate"
	"github.com/san-kum/vsmkit/internal/report"
	"github.com/san-kum/vsmkit/internal/storage"
	"github.com/san-kum/vsmkit/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	// analysis
	easy        bool
	hard        bool
	negate      bool
	hkRadius    float64
	delimiter   string
	headerLines int
	workers     int
	configFile  string
	preset      string

	// output
	showPlot  bool
	savePNG   bool
	outDir    string
	asTable   bool
	storeRun  bool
	xlsxPath  string
	jsonPath  string
	plotWidth int

	// sample mode
	easyFile   string
	hardFile   string
	sampleName string

	// server
	addr    string
	origins []string
	noStore bool
)

const banner = `
 _   _____ __  __ _  ___ _
| | / / __|  \/  | |/ (_) |_
| |/ /\__ \ |\/| | ' <| |  _|
|___/ |___/_|  |_|_|\_\_|\__|

VSM hysteresis loop analysis: Ms, Hc, Mr, squareness and Hk
from easy- and hard-axis M-H loops.
`

func main() {
	rootCmd := &cobra.Command{
		Use:           "vsmkit",
		Short:         "VSM hysteresis loop analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".vsmkit", "data directory for stored runs")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	analyzeCmd := newAnalyzeCmd()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&plotWidth, "width", 80, "terminal plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id...]",
		Short: "export stored runs as JSON (stdout by default) or Excel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportRuns,
	}
	exportCmd.Flags().StringVar(&jsonPath, "json", "", "write JSON to this file")
	exportCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an Excel workbook to this file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve loop analysis over HTTP",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8001", "listen address")
	serveCmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origins")
	serveCmd.Flags().BoolVar(&noStore, "no-store", false, "disable run storage endpoints")
	serveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	serveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "browse stored runs in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(storage.New(dataDir))
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				mode := p.Mode
				if mode == "" {
					mode = "ask"
				}
				fmt.Printf("  %-12s hk-radius=%g mode=%s\n", name, p.HkRadius, mode)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write a configuration file from the defaults or a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	creditsCmd := &cobra.Command{
		Use:   "credits",
		Short: "display credits",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(report.Title.Render(banner))
		},
	}

	rootCmd.AddCommand(analyzeCmd, listCmd, showCmd, exportCmd, serveCmd, reviewCmd, presetsCmd, configCmd, creditsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, report.Failure.Render("error:"), err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "analyse M-H loop files",
		Long: `Analyse VSM loop files: two tab-delimited columns (field, moment)
after a fixed header. Easy-axis loops report Ms, Hc, Mr and squareness;
hard-axis loops report Ms and Hk.

If neither --easy nor --hard is given (or both are), you are asked which
axis the data is. All files of one invocation use the same axis.

With --easy-file and/or --hard-file the two loops of one sample are
analysed together instead.`,
		RunE: runAnalyze,
	}
	f := cmd.Flags()
	f.BoolVarP(&easy, "easy", "e", false, "easy-axis loops (Ms, Hc, Mr, squareness)")
	f.BoolVarP(&hard, "hard", "r", false, "hard-axis loops (Ms, Hk)")
	f.BoolVarP(&negate, "negate", "n", false, "negate moment data before analysis")
	f.Float64Var(&hkRadius, "hk-radius", estimate.DefaultHkRadius, "field radius around the switching point used for the Hk estimate")
	f.StringVarP(&delimiter, "delimiter", "d", config.DefaultDelimiter, "separator between output values")
	f.IntVar(&headerLines, "header-lines", config.DefaultHeaderLines, "header lines to skip in each file")
	f.IntVar(&workers, "workers", analyzer.DefaultWorkers, "files analysed in parallel")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.BoolVarP(&showPlot, "plot", "p", false, "draw each loop and its fit in the terminal")
	f.BoolVarP(&savePNG, "save", "s", false, "save MHLOOP-<name>.png for each loop")
	f.StringVar(&outDir, "out", ".", "directory for saved images")
	f.BoolVar(&asTable, "table", false, "print a readable table per loop instead of delimited rows")
	f.BoolVar(&storeRun, "store", false, "store results in the data directory")
	f.StringVar(&xlsxPath, "xlsx", "", "also write results to an Excel workbook")
	f.StringVar(&jsonPath, "json", "", "also write results to a JSON file")
	f.IntVar(&plotWidth, "width", 80, "terminal plot width")
	f.StringVar(&easyFile, "easy-file", "", "easy-axis loop of one sample")
	f.StringVar(&hardFile, "hard-file", "", "hard-axis loop of one sample")
	f.StringVar(&sampleName, "name", "", "sample name (default: file name)")
	return cmd
}
