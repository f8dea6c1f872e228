package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/Avi18971911/jellylog/internal/config"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/bootstrapper"
	"github.com/Avi18971911/jellylog/internal/db/elasticsearch/client"
	"github.com/Avi18971911/jellylog/internal/db/write_buffer"
	exportModel "github.com/Avi18971911/jellylog/internal/export/model"
	exportService "github.com/Avi18971911/jellylog/internal/export/service"
	logSourceModel "github.com/Avi18971911/jellylog/internal/log_source/model"
	logSourceService "github.com/Avi18971911/jellylog/internal/log_source/service"
	classifierModel "github.com/Avi18971911/jellylog/internal/pipeline/classifier/model"
	classifierService "github.com/Avi18971911/jellylog/internal/pipeline/classifier/service"
	dataPipelineService "github.com/Avi18971911/jellylog/internal/pipeline/data_pipeline/service"
	dataProcessorService "github.com/Avi18971911/jellylog/internal/pipeline/data_processor/service"
	detailService "github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/service"
	lineService "github.com/Avi18971911/jellylog/internal/pipeline/line_parser/service"
	sessionService "github.com/Avi18971911/jellylog/internal/pipeline/session/service"
	reportModel "github.com/Avi18971911/jellylog/internal/report/model"
	reportService "github.com/Avi18971911/jellylog/internal/report/service"
	"github.com/dustin/go-humanize"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"io"
	"os"
	"strings"
)

var (
	ErrNoCategories = errors.New("no error categories specified. Use --help for options")
	ErrNoLogs       = errors.New(`no log files found.
Use --log-path to specify log file locations, or try:
  --list-logs     to see what the script is looking for
  --environment   to see detected environment info`)
)

type rootOptions struct {
	categories  map[classifierModel.Category]*bool
	all         bool
	listLogs    bool
	environment bool
	configFile  string
}

// NewRootCommand builds the jellylog command. Every run gets its own viper instance so that
// commands built in tests do not share flag bindings.
func NewRootCommand() *cobra.Command {
	options := &rootOptions{categories: make(map[classifierModel.Category]*bool)}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "jellylog",
		Short: "Analyze Jellyfin logs and extract errors by category",
		Long: `Analyze Jellyfin logs and extract errors by category.

The installation type (Docker, native, Windows service, ...) is detected and log files are
searched for in the matching locations. Transcoding and direct stream events are correlated
into playback sessions with the client, the media and the reasons a transcode was needed.`,
		Example: `  jellylog --all                                    # Scan for all error types
  jellylog --networking --transcoding               # Scan specific categories
  jellylog --all --log-path /custom/path/logs/      # Use custom log location
  jellylog --playback --output playback_errors.txt  # Custom output file
  jellylog --transcoding --max-errors 5             # Get more errors per type
  jellylog --list-logs                              # Show detected log files
  jellylog --environment                            # Show detected environment`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), v, options)
		},
	}

	flags := rootCmd.Flags()
	for _, category := range classifierModel.AllCategories {
		options.categories[category] = flags.Bool(
			string(category),
			false,
			fmt.Sprintf("Scan for %s errors", category),
		)
	}
	flags.BoolVar(&options.all, "all", false, "Scan for all error types")
	flags.StringArray("log-path", nil, "Path, directory or glob of log files (can be used multiple times)")
	flags.StringP("output", "o", "jellyfin_errors.txt", "Output file for error report")
	flags.Int("max-errors", 2, "Maximum errors per category")
	flags.Int("workers", 4, "Number of log files processed concurrently")
	flags.String("es-url", "", "Elasticsearch address to export report records to")
	flags.String("es-index", config.DefaultRecordIndex, "Elasticsearch index for exported records")
	flags.BoolVar(&options.listLogs, "list-logs", false, "List detected log files and exit")
	flags.BoolVar(&options.environment, "environment", false, "Show detected environment information and exit")
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&options.configFile, "config", "c", "", "config file (default: $HOME/.jellylog.yaml)")

	bindings := map[string]string{
		config.LogPathsKey:           "log-path",
		config.OutputKey:             "output",
		config.MaxErrorsKey:          "max-errors",
		config.WorkersKey:            "workers",
		config.ElasticsearchURLKey:   "es-url",
		config.ElasticsearchIndexKey: "es-index",
		config.VerboseKey:            "verbose",
	}
	for key, flag := range bindings {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(flag)))
	}
	return rootCmd
}

func run(ctx context.Context, out io.Writer, v *viper.Viper, options *rootOptions) error {
	cfg, err := config.Load(v, options.configFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	detector := logSourceService.NewEnvironmentDetector()
	discovery := logSourceService.NewLogDiscovery(detector, logger)

	if options.environment {
		printEnvironment(out, detector)
		return nil
	}
	if options.listLogs {
		printLogFiles(out, discovery.Discover())
		return nil
	}

	categories := selectedCategories(options)
	if len(categories) == 0 {
		return ErrNoCategories
	}

	var paths []string
	if len(cfg.LogPaths) > 0 {
		paths, err = discovery.ExpandPaths(cfg.LogPaths)
		if err != nil {
			return err
		}
	} else {
		paths = discovery.Discover()
	}
	if len(paths) == 0 {
		return ErrNoLogs
	}
	if cfg.Verbose {
		fmt.Fprintln(out, "Using log files:")
		for _, path := range paths {
			fmt.Fprintf(out, "  - %s\n", path)
		}
		fmt.Fprintln(out)
	}

	pipeline, err := newPipeline(cfg.Workers, logger)
	if err != nil {
		return err
	}
	sources := make([]logSourceModel.Source, len(paths))
	for i, path := range paths {
		sources[i] = logSourceModel.Source{Index: i, Path: path}
	}
	fmt.Fprintf(out, "Analyzing logs for categories: %s\n", joinCategories(categories))
	report, err := pipeline.Analyze(
		ctx,
		sources,
		dataProcessorService.ProcessOptions{Categories: categories, MaxErrors: cfg.MaxErrors},
	)
	if err != nil {
		return err
	}

	rs := reportService.NewReportService(logger)
	if err := rs.WriteReport(report, cfg.Output); err != nil {
		return fmt.Errorf("%w. Choose a writable location with --output", err)
	}
	fmt.Fprintf(out, "Report saved to: %s\n\n", cfg.Output)
	fmt.Fprint(out, rs.Summary(report, cfg.Output))

	if cfg.ElasticsearchURL != "" {
		exported, err := exportReport(ctx, cfg, report, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d records of run %s to %s\n", exported, report.RunId, cfg.ElasticsearchIndex)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func newPipeline(workers int, logger *zap.Logger) (*dataPipelineService.DataPipeline, error) {
	cache, err := detailService.NewExtractionCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction cache: %w", err)
	}
	processor := dataProcessorService.NewDataProcessorService(
		logSourceService.NewLogReader(logger),
		lineService.NewLineParser(),
		classifierService.NewEventClassifier(),
		detailService.NewDetailExtractor(cache, logger),
		sessionService.NewSessionCorrelator(logger),
		logger,
	)
	return dataPipelineService.NewDataPipeline(processor, workers, logger), nil
}

func exportReport(
	ctx context.Context,
	cfg config.Config,
	report reportModel.Report,
	logger *zap.Logger,
) (int, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticsearchURL}})
	if err != nil {
		return 0, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	bs := bootstrapper.NewBootstrapper(es, cfg.ElasticsearchIndex, logger)
	if err := bs.BootstrapElasticsearch(); err != nil {
		return 0, fmt.Errorf("failed to bootstrap elasticsearch: %w", err)
	}
	ac := client.NewJellylogClientImpl(es, client.Wait)
	buffer := write_buffer.NewDatabaseWriteBufferImpl[exportModel.RecordDocument](ac, cfg.ElasticsearchIndex, logger)
	return exportService.NewExportService(ac, buffer, cfg.ElasticsearchIndex, logger).Export(ctx, report)
}

func selectedCategories(options *rootOptions) []classifierModel.Category {
	if options.all {
		return append([]classifierModel.Category{}, classifierModel.AllCategories...)
	}
	var categories []classifierModel.Category
	for _, category := range classifierModel.AllCategories {
		if *options.categories[category] {
			categories = append(categories, category)
		}
	}
	return categories
}

func joinCategories(categories []classifierModel.Category) string {
	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = string(category)
	}
	return strings.Join(names, ", ")
}

func printEnvironment(out io.Writer, detector *logSourceService.EnvironmentDetector) {
	fmt.Fprintf(out, "Detected environment: %s\n", detector.Detect())
	fmt.Fprintln(out, "\nEnvironment variables:")
	variables := detector.Variables()
	for _, variable := range logSourceModel.LogDirVariables {
		if value := variables[variable]; value != "" {
			fmt.Fprintf(out, "  %s = %s\n", variable, value)
		} else {
			fmt.Fprintf(out, "  %s = (not set)\n", variable)
		}
	}
}

func printLogFiles(out io.Writer, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(out, "No log files detected.")
		fmt.Fprintln(out, "Use --log-path to specify custom log file locations.")
		return
	}
	fmt.Fprintln(out, "Detected log files:")
	for i, path := range paths {
		size := "unknown size"
		if info, err := os.Stat(path); err == nil {
			size = humanize.Comma(info.Size()) + " bytes"
		}
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, path, size)
	}
}
