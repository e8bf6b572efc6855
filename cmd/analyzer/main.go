package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/stealer-insight/analyzer/internal/analytics"
	"github.com/stealer-insight/analyzer/internal/config"
	"github.com/stealer-insight/analyzer/internal/export"
	"github.com/stealer-insight/analyzer/internal/models"
	"github.com/stealer-insight/analyzer/internal/orchestrator"
	"github.com/stealer-insight/analyzer/internal/report"
	"github.com/stealer-insight/analyzer/internal/store"
	"github.com/stealer-insight/analyzer/internal/transport"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// maxUploadSize mirrors the service-side limit so oversized archives are
// rejected before the upload starts.
const maxUploadSize = 100 * 1024 * 1024

var allowedExtensions = map[string]bool{".zip": true, ".rar": true, ".7z": true}

func main() {
	var (
		configPath = pflag.String("config", "analyzer.yaml", "path to the YAML configuration file")
		baseURL    = pflag.String("base-url", "", "analysis service base URL (overrides config)")
		password   = pflag.String("password", "", "archive password, if protected")
		formats    = pflag.StringSlice("export", []string{"json", "csv"}, "export formats: json, csv, msgpack, xlsx")
		outputDir  = pflag.String("output", "", "export directory (overrides config)")
		serve      = pflag.Bool("serve", false, "serve the analysis report over HTTP after completion")
		check      = pflag.Bool("check", false, "only check service health and exit")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
		version    = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *version {
		fmt.Printf("analyzer %s (built %s)\n", Version, BuildTime)
		return
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *baseURL != "" {
		cfg.Service.BaseURL = *baseURL
	}
	if *outputDir != "" {
		cfg.Export.Directory = *outputDir
	}

	client := transport.NewClient(cfg.Service.BaseURL, cfg.ServiceTimeout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *check {
		status, err := client.Health(ctx)
		if err != nil {
			log.Fatalf("Service health check failed: %v", err)
		}
		color.Green("Service %s is %s", cfg.Service.BaseURL, status)
		return
	}

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyzer [flags] <archive>")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	archivePath := pflag.Arg(0)

	exportFormats, err := parseFormats(*formats)
	if err != nil {
		log.Fatalf("Invalid export format: %v", err)
	}

	result, err := analyze(ctx, log, cfg, client, archivePath, *password)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	summary := analytics.Aggregate(result, time.Now())
	printSummary(result, summary)

	if err := cfg.EnsureExportDir(); err != nil {
		log.Fatalf("Failed to create export directory: %v", err)
	}
	written, err := export.WriteFiles(cfg.Export.Directory, result, exportFormats...)
	for _, path := range written {
		color.Cyan("Wrote %s", path)
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if *serve {
		if err := serveReport(log, cfg, client, result); err != nil {
			log.Fatalf("Report server failed: %v", err)
		}
	}
}

// analyze validates the input file and drives the job to completion.
func analyze(ctx context.Context, log *logrus.Logger, cfg *config.Config, client *transport.Client, archivePath, password string) (*models.AnalysisResult, error) {
	ext := strings.ToLower(filepath.Ext(archivePath))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %q: only .zip, .rar and .7z archives are accepted", ext)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxUploadSize {
		return nil, fmt.Errorf("file too large (%d bytes): maximum allowed size is 100MB", info.Size())
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	orch := orchestrator.New(client,
		orchestrator.WithLogger(log),
		orchestrator.WithPollInterval(cfg.PollInterval()),
		orchestrator.WithMaxAttempts(cfg.Polling.MaxAttempts),
		orchestrator.WithResultRetryLimit(cfg.Polling.ResultRetryLimit),
		orchestrator.WithProgressFunc(func(p orchestrator.Progress) {
			if p.Error != "" {
				return
			}
			fmt.Printf("\r%-60s %5.1f%%", p.CurrentStep, p.Progress)
			if !p.IsProcessing {
				fmt.Println()
			}
		}),
	)

	return orch.Run(ctx, filepath.Base(archivePath), file, password)
}

func printSummary(result *models.AnalysisResult, summary analytics.Summary) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Printf("Analysis complete for %s\n\n", result.Filename)
	fmt.Printf("  Compromised systems: %d\n", summary.SystemCount)
	fmt.Printf("  Credentials:         %d\n", summary.CredentialCount)
	fmt.Printf("  Cookies:             %d (%d expired, %d secure)\n",
		summary.CookieCount, summary.Cookies.Expired, summary.Cookies.Secure)
	fmt.Printf("  Unique domains:      %d (", len(summary.UniqueDomains))
	color.New(color.FgRed).Printf("%d high risk", summary.Risk.High)
	fmt.Printf(", %d medium)\n", summary.Risk.Medium)
	fmt.Printf("  Countries:           %d\n", len(summary.Countries))

	if len(summary.StealerNames) > 0 {
		fmt.Printf("  Stealer variants:    %s\n", strings.Join(summary.StealerNames, ", "))
	}

	topDomains := analytics.TopDomains(result, 5)
	if len(topDomains) > 0 {
		fmt.Println("\n  Most targeted domains:")
		for _, d := range topDomains {
			line := fmt.Sprintf("    %-40s %4d credentials", d.Domain, d.Credentials)
			if d.Risk == analytics.RiskHigh {
				color.Red("%s  [high risk]", line)
			} else {
				fmt.Println(line)
			}
		}
	}
	fmt.Println()
}

// serveReport loads the credentials into a DuckDB store and serves the
// report API until interrupted.
func serveReport(log *logrus.Logger, cfg *config.Config, client *transport.Client, result *models.AnalysisResult) error {
	runID := uuid.New().String()

	creds, err := store.NewCredStore(os.TempDir(), runID)
	if err != nil {
		log.WithError(err).Warn("credential store unavailable, serving from memory")
		creds = nil
	} else {
		if err := creds.LoadResult(result); err != nil {
			log.WithError(err).Warn("failed to load credential store, serving from memory")
			creds.Close()
			creds = nil
		} else {
			defer creds.Close()
		}
	}

	h := report.NewHandler(result, creds, client)
	log.Infof("Serving analysis report at http://%s", cfg.ReportAddr())
	return report.Serve(h, cfg.ReportAddr())
}

func parseFormats(names []string) ([]export.Format, error) {
	formats := make([]export.Format, 0, len(names))
	for _, name := range names {
		f, err := export.ParseFormat(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
