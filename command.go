package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"batimgcon/batch"
	"batimgcon/codec"
	"batimgcon/config"
	"batimgcon/interrupt"
	"batimgcon/logger"
	"batimgcon/metrics"
	"batimgcon/priority"
	"batimgcon/report"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const appName = "Batch Image Converter (BatImgCon)"

// app holds the collaborators a run needs so tests can swap them out.
type app struct {
	newAdapter func(codec.Options) codec.Adapter
	reducer    priority.Reducer
}

func defaultApp() *app {
	return &app{
		newAdapter: func(opts codec.Options) codec.Adapter {
			return codec.NewLibrary(opts)
		},
		reducer: priority.Default(),
	}
}

type flags struct {
	configPath   string
	workers      int
	reducedPrio  bool
	quality      int
	qualityAlpha int
	speed        int
	logLevel     string
	logFormat    string
	noColor      bool
	progress     bool
	metricsFile  string
	reportFile   string
	showVersion  bool
}

type runArgs struct {
	inputDir     string
	inputFormat  string
	outputDir    string
	outputFormat string

	// missingConfig is the explicitly requested config path when no file
	// exists there.
	missingConfig string
}

func newRootCommand(a *app) *cobra.Command {
	var f flags
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "batimgcon <input_dir> <input_format> <output_dir> <output_format>",
		Short: "Convert every image of one format in a directory to another format",
		Long: `Converts all images of INPUT_FORMAT inside INPUT_DIR to OUTPUT_FORMAT inside OUTPUT_DIR.

--workers-count defaults to the number of CPUs.
--reduced-prio lowers the process priority so background conversion stays unobtrusive.`,
		Example:       "  batimgcon ~/Screenshots png ~/Screenshots_AVIF avif",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				return nil
			}
			return cobra.ExactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if f.showVersion {
				printVersion(out)
				return nil
			}

			cfg, missing, err := resolveConfig(cmd, &f)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), out, cfg, runArgs{
				inputDir:      args[0],
				inputFormat:   args[1],
				outputDir:     args[2],
				outputFormat:  args[3],
				missingConfig: missing,
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "Configuration file path")
	fl.IntVarP(&f.workers, "workers-count", "w", def.WorkersCount, "Number of concurrent conversions")
	fl.BoolVar(&f.reducedPrio, "reduced-prio", def.ReducedPrio, "Lower the process priority while converting")
	fl.IntVar(&f.quality, "quality", def.Encoding.Quality, "Image quality for lossy formats (0-100, higher is better)")
	fl.IntVar(&f.qualityAlpha, "quality-alpha", def.Encoding.QualityAlpha, "AVIF alpha channel quality (0-100)")
	fl.IntVar(&f.speed, "speed", def.Encoding.Speed, "AVIF encoding speed (0-10, lower is better quality but slower)")
	fl.StringVar(&f.logLevel, "log-level", def.Logging.Level, "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", def.Logging.Format, "Log format (console, json)")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	fl.BoolVar(&f.progress, "progress", false, "Show a progress bar")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	fl.StringVar(&f.reportFile, "report", "", "Write a YAML run report to this file")
	fl.BoolVar(&f.showVersion, "version", false, "Show version information")

	return cmd
}

// resolveConfig loads the config file and applies explicitly set flags on top.
// When --config names a file that does not exist its path is returned as
// missing and the defaults are used.
func resolveConfig(cmd *cobra.Command, f *flags) (*config.Config, string, error) {
	cfg, path, exists, err := config.Load(f.configPath)
	if err != nil {
		return nil, "", err
	}
	missing := ""
	if strings.TrimSpace(f.configPath) != "" && !exists {
		missing = path
	}

	changed := cmd.Flags().Changed
	if changed("workers-count") {
		cfg.WorkersCount = f.workers
	}
	if changed("reduced-prio") {
		cfg.ReducedPrio = f.reducedPrio
	}
	if changed("quality") {
		cfg.Encoding.Quality = f.quality
	}
	if changed("quality-alpha") {
		cfg.Encoding.QualityAlpha = f.qualityAlpha
	}
	if changed("speed") {
		cfg.Encoding.Speed = f.speed
	}
	if changed("log-level") {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(f.logLevel))
	}
	if changed("log-format") {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(f.logFormat))
	}
	if changed("no-color") {
		cfg.Logging.NoColor = f.noColor
	}
	if changed("progress") {
		cfg.Output.Progress = f.progress
	}
	if changed("metrics-file") {
		if cfg.Output.MetricsFile, err = config.ExpandPath(f.metricsFile); err != nil {
			return nil, "", err
		}
	}
	if changed("report") {
		if cfg.Output.ReportFile, err = config.ExpandPath(f.reportFile); err != nil {
			return nil, "", err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, missing, nil
}

func printVersion(out io.Writer) {
	console := logger.NewConsole(&logger.Options{Output: out, Colors: logger.ShouldColorize(out)})
	console.Box("batimgcon version information", fmt.Sprintf(
		"Version: %s\nBuild date: %s\nGit commit: %s",
		Version, BuildDate, GitCommit,
	))
}

func newConsole(out io.Writer, cfg *config.Config) *logger.Console {
	level, _ := logger.ParseLevel(cfg.Logging.Level)
	return logger.NewConsole(&logger.Options{
		Output:     out,
		TimeFormat: "15:04:05",
		Level:      level,
		JSON:       cfg.Logging.Format == "json",
		Colors:     !cfg.Logging.NoColor && logger.ShouldColorize(out),
		ShowTime:   true,
	})
}

func (a *app) run(ctx context.Context, out io.Writer, cfg *config.Config, args runArgs) error {
	console := newConsole(out, cfg)
	runID := uuid.NewString()
	if console.JSON {
		console = console.With("run_id", runID)
	} else {
		console.Box(appName, "Welcome to "+appName+" version "+Version)
	}
	if args.missingConfig != "" {
		console.Warn("Config file %s not found, using defaults", args.missingConfig)
	}
	console.Debug("Run %s (workers: %d, quality: %d, speed: %d)",
		runID, cfg.WorkersCount, cfg.Encoding.Quality, cfg.Encoding.Speed)

	inputDir := batch.TrimTrailingSeparator(args.inputDir)
	outputDir := batch.TrimTrailingSeparator(args.outputDir)

	if err := batch.CheckInputDir(inputDir); err != nil {
		console.Error("Failed to find input directory! Verify that your arguments are correct")
		return err
	}

	adapter := a.newAdapter(cfg.CodecOptions())
	if lib, ok := adapter.(interface {
		Supports(string) bool
		Formats() []string
	}); ok && !lib.Supports(args.outputFormat) {
		return fmt.Errorf("%w %q (supported: %s)",
			codec.ErrUnsupportedFormat, args.outputFormat, strings.Join(lib.Formats(), ", "))
	}

	created, err := batch.PrepareOutputDir(outputDir)
	if err != nil {
		console.Error("%v", err)
		return err
	}
	if created {
		console.Info("Created output directory: %s", outputDir)
	}

	unlock, err := batch.LockOutputDir(outputDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			console.Warn("Failed to release output directory lock: %v", err)
		}
	}()

	if cfg.ReducedPrio {
		a.reducePriority(console)
	}

	coord := interrupt.Arm(ctx, func(os.Signal) {
		console.Warn("Interrupt received, stopping ASAP.")
	})
	defer coord.Stop()

	console.Info("Starting conversion from %s to %s", inputDir, outputDir)

	scan := console.StartTimer("Directory scan")
	files, err := batch.Enumerate(inputDir, args.inputFormat)
	if err != nil {
		return err
	}
	tasks, collisions := batch.BuildTasks(files, outputDir, args.inputFormat, args.outputFormat)
	scan.End()
	warnCollisions(console, collisions)

	var observers []batch.Observer

	// The bar redraws its line in place, which would break JSON output.
	bar := console.NewProgressBar(int64(len(tasks)), "Converting images", cfg.Output.Progress && !console.JSON)
	observers = append(observers, progressObserver{bar: bar})

	var m *metrics.Metrics
	if cfg.Output.MetricsFile != "" {
		m = metrics.New()
		observers = append(observers, m)
	}

	var collector *report.Collector
	if cfg.Output.ReportFile != "" {
		collector = report.NewCollector(report.Report{
			RunID:        runID,
			StartedAt:    time.Now().UTC(),
			InputDir:     inputDir,
			OutputDir:    outputDir,
			InputFormat:  args.inputFormat,
			OutputFormat: args.outputFormat,
			Workers:      cfg.WorkersCount,
		})
		observers = append(observers, collector)
	}

	dispatcher := &batch.Dispatcher{
		Adapter:   adapter,
		Workers:   cfg.WorkersCount,
		Console:   console,
		Observers: observers,
	}
	res := dispatcher.Run(coord.Context(), tasks)

	displayResults(console, res)

	if m != nil {
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			console.Warn("%v", err)
		}
	}
	if collector != nil {
		if err := collector.Write(cfg.Output.ReportFile); err != nil {
			console.Warn("%v", err)
		}
	}
	return nil
}

func (a *app) reducePriority(console *logger.Console) {
	if a.reducer == nil {
		return
	}
	err := a.reducer.Lower()
	switch {
	case err == nil:
		console.Info("Process priority reduced successfully to 'Below Normal'")
	case errors.Is(err, priority.ErrUnsupported):
		console.Warn("Unsupported operating system, process priority not reduced")
	default:
		console.Warn("Failed to reduce process priority: %v", err)
	}
}

func warnCollisions(console *logger.Console, collisions map[string][]string) {
	outputs := make([]string, 0, len(collisions))
	for output := range collisions {
		outputs = append(outputs, output)
	}
	sort.Strings(outputs)
	for _, output := range outputs {
		console.Warn("%s is produced by %d inputs (%s); the last one converted wins",
			output, len(collisions[output]), strings.Join(collisions[output], ", "))
	}
}

type progressObserver struct {
	bar *logger.ProgressBar
}

func (p progressObserver) TaskFinished(batch.Result)   { p.bar.Increment(1) }
func (p progressObserver) RunFinished(batch.RunResult) { p.bar.Complete() }

func displayResults(console *logger.Console, res batch.RunResult) {
	if !console.JSON {
		table := console.NewTable([]string{"Metric", "Value"})
		table.AddRow("Converted files", fmt.Sprintf("%d/%d", res.Successful, res.Total))
		table.AddRow("Failed files", fmt.Sprintf("%d", res.Failed))
		if res.Abandoned > 0 {
			table.AddRow("Skipped files", fmt.Sprintf("%d", res.Abandoned))
		}
		table.AddRow("Input size", humanize.Bytes(uint64(res.InputBytes)))
		table.AddRow("Output size", humanize.Bytes(uint64(res.OutputBytes)))
		if res.InputBytes > 0 {
			table.AddRow("Size ratio", fmt.Sprintf("%.1f%%", float64(res.OutputBytes)/float64(res.InputBytes)*100))
		}
		table.Print()
	}

	if res.Interrupted {
		console.Warn("Run interrupted before all files were converted")
	}
	console.Success("%s", res.Summary())
	console.Info("Execution time: %ds", res.ElapsedSeconds())
}
