// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/billscan"
	"github.com/poiesic/billscan/config"
	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/legiscan"
	"github.com/poiesic/billscan/normalize"
	"github.com/poiesic/billscan/pipeline"
	"github.com/poiesic/billscan/storage"
)

const defaultDataset = "ct_bills_2025"

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "billscan",
		Usage: "AI relevance pipeline for palliative care legislation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "config.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch a session's bill list from LegiScan into raw storage",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "state",
						Aliases: []string{"s"},
						Usage:   "Two-letter state code",
						Value:   "CT",
					},
					&cli.IntFlag{
						Name:    "year",
						Aliases: []string{"y"},
						Usage:   "Legislative session year",
						Value:   2025,
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Full-text search query; the default matches essentially every bill",
						Value: "1",
					},
				},
			},
			{
				Name:   "filter",
				Usage:  "Run the AI relevance filter over a raw dataset",
				Action: filterCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dataset",
						Aliases: []string{"d"},
						Usage:   "Raw dataset name",
						Value:   defaultDataset,
					},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Run the per-bill AI analysis over a filter run",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "run",
						Aliases: []string{"r"},
						Usage:   "Filter run to analyze (defaults to the newest)",
					},
					&cli.BoolFlag{
						Name:  "test",
						Usage: "Analyze a small keyword-weighted sample instead of every bill",
					},
					&cli.IntFlag{
						Name:  "test-count",
						Usage: "Sample size used with --test",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Raw dataset for bill id lookups (defaults to the dataset named in bill URLs)",
					},
					&cli.BoolFlag{
						Name:  "direct",
						Usage: "Analyze bills loaded from the configured sources, skipping the filter pass",
					},
				},
			},
			{
				Name:   "run",
				Usage:  "Filter then analyze a raw dataset under one run id",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dataset",
						Aliases: []string{"d"},
						Usage:   "Raw dataset name",
						Value:   defaultDataset,
					},
					&cli.BoolFlag{
						Name:  "test",
						Usage: "Analyze a small keyword-weighted sample instead of every bill",
					},
					&cli.IntFlag{
						Name:  "test-count",
						Usage: "Sample size used with --test",
						Value: 5,
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Describe the format of a saved filter run",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "run",
						Aliases: []string{"r"},
						Usage:   "Filter run to inspect (defaults to the newest)",
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Pre-fetch LegiScan bill details for a filter run",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "run",
						Aliases: []string{"r"},
						Usage:   "Filter run to warm (defaults to the newest)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent bill fetches (0 sizes from the CPU count)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Raw dataset for bill id lookups",
					},
				},
			},
		},
	}
}

func openApp(ctx context.Context, c *cli.Context) (*billscan.App, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return billscan.NewApp(ctx, cfg)
}

// rawDataset is the envelope the filter pass reads raw search results
// from.
type rawDataset struct {
	Summary struct {
		Masterlist []legiscan.BillSummary `json:"masterlist"`
		Total      int                    `json:"total"`
	} `json:"summary"`
}

func fetchCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.LegiScan()
	if err != nil {
		return err
	}

	state := strings.ToUpper(c.String("state"))
	year := c.Int("year")
	query := c.String("query")

	fmt.Fprintf(os.Stderr, "Searching LegiScan: state=%s year=%d query=%q\n", state, year, query)

	bills, err := client.SearchAll(ctx, query, state, year, app.Config().LegiScan.Delay)
	if err != nil {
		return fmt.Errorf("failed to search %s %d: %w", state, year, err)
	}
	if len(bills) == 0 {
		return fmt.Errorf("no bills found for %s %d", state, year)
	}

	var dataset rawDataset
	dataset.Summary.Masterlist = bills
	dataset.Summary.Total = len(bills)
	data, err := json.Marshal(dataset)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	name := fmt.Sprintf("%s_bills_%d", strings.ToLower(state), year)
	if err := app.Store().SaveRawData(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Saved %d bills to dataset %s\n", len(bills), name)
	return nil
}

func filterCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	pass, err := app.NewFilterPass()
	if err != nil {
		return err
	}

	results, err := pass.Run(ctx, c.String("dataset"))
	if err != nil {
		return fmt.Errorf("filter pass failed: %w", err)
	}

	printFilterSummary(results)
	return nil
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	runID := c.String("run")
	if c.Bool("direct") {
		if runID != "" {
			return errors.New("--direct stages its own run, drop the --run flag")
		}
		runID, err = stageDirectBills(ctx, app)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Staged source bills under run %s\n", runID)
	}
	if runID == "" {
		runID, err = latestFilterRun(ctx, app.Store())
		if err != nil {
			return err
		}
	}

	pass, err := app.NewAnalysisPass(analysisOptions(c)...)
	if err != nil {
		return err
	}

	report, err := pass.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("analysis pass failed: %w", err)
	}

	printReport(report)
	return nil
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	dataset := c.String("dataset")

	filter, err := app.NewFilterPass()
	if err != nil {
		return err
	}
	results, err := filter.Run(ctx, dataset)
	if err != nil {
		return fmt.Errorf("filter pass failed: %w", err)
	}
	printFilterSummary(results)

	if len(results.RelevantBills) == 0 {
		fmt.Fprintln(os.Stderr, "No relevant bills to analyze")
		return nil
	}

	pass, err := app.NewAnalysisPass(analysisOptions(c)...)
	if err != nil {
		return err
	}
	report, err := pass.Run(ctx, storage.RawName(dataset))
	if err != nil {
		return fmt.Errorf("analysis pass failed: %w", err)
	}

	printReport(report)
	return nil
}

func inspectCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	runID := c.String("run")
	if runID == "" {
		runID, err = latestFilterRun(ctx, app.Store())
		if err != nil {
			return err
		}
	}

	doc, err := app.Store().LoadFilteredResults(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load filter results %s: %w", runID, err)
	}

	info, err := normalize.Inspect(doc)
	if err != nil {
		var unrecognized *normalize.UnrecognizedFormatError
		if errors.As(err, &unrecognized) {
			return fmt.Errorf("unrecognized format in %s, found keys %v", runID, unrecognized.KeysFound)
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "Run: %s\n", runID)
	fmt.Fprintf(os.Stderr, "Format: %s\n", info.Format)
	fmt.Fprintf(os.Stderr, "Bills: %d\n", info.BillCount)
	fmt.Fprintf(os.Stderr, "Summary block: %t\n", info.HasSummary)
	fmt.Fprintf(os.Stderr, "Similarity scores: %t\n", info.HasSimilarityScores)
	if len(info.Fields) > 0 {
		fmt.Fprintf(os.Stderr, "Bill fields: %s\n", strings.Join(info.Fields, ", "))
	}
	return nil
}

func warmCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.LegiScan()
	if err != nil {
		return err
	}

	runID := c.String("run")
	if runID == "" {
		runID, err = latestFilterRun(ctx, app.Store())
		if err != nil {
			return err
		}
	}

	ids, err := pipeline.RunBillIDs(ctx, app.Store(), runID, c.String("source"))
	if err != nil {
		return fmt.Errorf("failed to resolve bill ids: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no resolvable bill ids in %s", runID)
	}

	fmt.Fprintf(os.Stderr, "Warming %d bills from run %s\n", len(ids), runID)

	report, err := legiscan.WarmCache(ctx, client, ids, c.Int("workers"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Warmed %d bills, %d failed\n", report.Warmed, report.Failed)
	return nil
}

// stageDirectBills pulls bills from the configured sources and saves
// them as an already-relevant filter run, so the analysis pass can
// consume them without an AI filter in between.
func stageDirectBills(ctx context.Context, app *billscan.App) (string, error) {
	sources := app.Sources()
	if sources == nil || sources.Len() == 0 {
		return "", errors.New("direct analysis needs at least one entry in the sources config")
	}

	records := sources.FetchAll(ctx)
	if len(records) == 0 {
		return "", errors.New("no bills loaded from the configured sources")
	}

	bills := make([]core.FilteredBill, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		if record.BillNumber == "" || seen[record.BillNumber] {
			continue
		}
		seen[record.BillNumber] = true
		bills = append(bills, core.FilteredBill{
			BillNumber: record.BillNumber,
			Title:      record.Title,
			URL:        record.URL,
			Reason:     "Loaded directly from a configured source",
		})
	}

	runID := "direct_" + core.NewRunID(time.Now())
	results := &core.FilterResults{
		Summary: core.RunSummary{
			TotalAnalyzed: len(bills),
			RelevantCount: len(bills),
			SourceFile:    runID,
		},
		RelevantBills:    bills,
		NotRelevantBills: []core.FilteredBill{},
	}
	if err := app.Store().SaveFilteredResults(ctx, runID, results); err != nil {
		return "", fmt.Errorf("failed to stage source bills: %w", err)
	}
	return runID, nil
}

// analysisOptions builds the run-scoped pass options from the command
// flags.
func analysisOptions(c *cli.Context) []pipeline.AnalysisOption {
	var opts []pipeline.AnalysisOption
	if limit := analysisLimit(c); limit > 0 {
		opts = append(opts, pipeline.WithLimit(limit))
	}
	if source := c.String("source"); source != "" {
		opts = append(opts, pipeline.WithSourceDataset(source))
	}
	return opts
}

// analysisLimit reports how many bills the analysis pass should sample.
// Zero means analyze everything. Test mode comes from --test or the
// TEST_MODE variable; the count from --test-count, then TEST_COUNT,
// then the flag default.
func analysisLimit(c *cli.Context) int {
	if !c.Bool("test") && !strings.EqualFold(os.Getenv("TEST_MODE"), "true") {
		return 0
	}
	if c.IsSet("test-count") {
		return c.Int("test-count")
	}
	if v := os.Getenv("TEST_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return c.Int("test-count")
}

// latestFilterRun picks a run when none was named. Stored run names
// sort lexically, which tracks recency only approximately, so the
// choice is logged.
func latestFilterRun(ctx context.Context, store storage.Provider) (string, error) {
	names, err := store.ListFilteredResults(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list filter results: %w", err)
	}
	if len(names) == 0 {
		return "", errors.New("no filter results found, run the filter pass first")
	}
	sort.Strings(names)
	latest := names[len(names)-1]
	if len(names) > 1 {
		slog.Info("multiple filter runs found", "using", latest)
	}
	return latest, nil
}

func printFilterSummary(results *core.FilterResults) {
	fmt.Fprintf(os.Stderr, "Filtered %d bills from %s: %d relevant, %d not relevant\n",
		results.Summary.TotalAnalyzed, results.Summary.SourceFile,
		results.Summary.RelevantCount, results.Summary.NotRelevantCount)
}

func printReport(report *pipeline.Report) {
	fmt.Fprintf(os.Stderr, "Analyzed %d bills under run %s: %d relevant, %d not relevant, %d errors\n",
		report.Summary.TotalAnalyzed, report.RunID,
		report.Summary.RelevantCount, report.Summary.NotRelevantCount, report.ErrorCount)
	fmt.Fprintf(os.Stderr, "Cache: %d hits, %d misses; %.1fs total, %.1fs per bill\n",
		report.TimingStats.CacheHits, report.TimingStats.CacheMisses,
		report.TimingStats.TotalSeconds, report.TimingStats.AvgSecondsPerBill)
	if len(report.Categories) > 0 {
		fmt.Fprintln(os.Stderr, "Categories:")
		for _, entry := range report.Categories {
			fmt.Fprintf(os.Stderr, "  %-30s %d\n", entry.Category, entry.Count)
		}
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
