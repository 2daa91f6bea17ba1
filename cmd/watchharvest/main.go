/*
watchharvest collects the YouTube watch history of the signed in browser
profile from the activity feed and writes it to a json file in the layout of
a Google Takeout export.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/olekukonko/tablewriter"
	"github.com/watchharvest/watchharvest/internal/classify"
	"github.com/watchharvest/watchharvest/internal/config"
	"github.com/watchharvest/watchharvest/internal/date"
	"github.com/watchharvest/watchharvest/internal/fetch"
	"github.com/watchharvest/watchharvest/internal/harvest"
	"github.com/watchharvest/watchharvest/internal/log"
	"github.com/watchharvest/watchharvest/internal/output"
	"github.com/watchharvest/watchharvest/internal/types"
	"gopkg.in/yaml.v3"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store additional helpful debugging data."`
	LogFile string      `short:"l" long:"log-file" help:"Additionally append the log output to this file." type:"path"`

	Harvest   HarvestCmd   `cmd:"" help:"Harvest the watch history from the activity feed."`
	Normalize NormalizeCmd `cmd:"" help:"Print the timestamp a date header and time label are converted to."`
	Config    ConfigCmd    `cmd:"" help:"Print the effective configuration."`
}

type HarvestCmd struct {
	Config    string `short:"c" default:"./watchharvest.yml" help:"The location of the configuration file. Defaults and environment variables are used if it does not exist." type:"path"`
	StartDate string `short:"s" long:"start-date" help:"Start harvesting at the end of this day (YYYY/MM/DD). Defaults to the newest entry."`
	EndDate   string `short:"e" long:"end-date" help:"Stop harvesting at entries older than this day (YYYY/MM/DD)."`
	Output    string `short:"o" help:"The file the records are written to. Overrides the writer configuration." type:"path"`
	Boundary  string `short:"b" help:"Which entries are compared with the end date: header, record or both."`
	Summary   bool   `help:"Print a summary table after the run."`
}

func (hc *HarvestCmd) Run() error {
	cfg, err := config.NewConfig(hc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	if hc.Output != "" {
		cfg.Writer.FilePath = hc.Output
	}
	if hc.Boundary != "" {
		mode, err := harvest.ParseBoundaryMode(hc.Boundary)
		if err != nil {
			return err
		}
		cfg.Harvest.BoundaryMode = mode
	}

	opts := harvest.Options{Today: date.Today(time.Now())}
	if hc.EndDate != "" {
		end, err := date.ParseBoundary(hc.EndDate)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return err
		}
		opts.EndDate = &end
	}
	historyURL, err := fetch.HistoryURL(cfg.Fetcher.HistoryURL, hc.StartDate, time.Local)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	store, err := output.NewStore(&cfg.Writer)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	writer := output.NewIncrementalWriter(store)
	if err := writer.Flush(); err != nil {
		slog.Error(err.Error())
		return err
	}

	classifier, err := classify.NewHTMLClassifier(cfg.Selectors)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := slog.With(slog.String("output", cfg.Writer.FilePath))
	ctx = log.ContextWithLogger(ctx, logger)

	browser := fetch.NewBrowser(&cfg.Fetcher)
	defer browser.Cancel()
	logger.Info("opening the activity feed", slog.String("url", historyURL))
	if err := browser.Open(ctx, historyURL); err != nil {
		logger.Error(err.Error())
		return err
	}

	h := harvest.NewHarvester(cfg.Harvest, browser, browser, classifier, writer)
	res, err := h.Run(ctx, opts)
	if hc.Summary {
		printStats(os.Stdout, res.Stats)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn(fmt.Sprintf("harvest interrupted, %d records were written", writer.Len()))
		} else {
			logger.Error(err.Error())
		}
		return err
	}
	logger.Info(fmt.Sprintf("harvested %d records in %s (%s)", writer.Len(), res.Stats.Duration().Round(time.Second), res.Reason))
	return nil
}

func printStats(w io.Writer, stats types.HarvestStats) {
	table := tablewriter.NewWriter(w)
	table.Header("Stat", "Value")
	rows := [][]string{
		{"Rounds", strconv.Itoa(stats.Rounds)},
		{"Scrolls", fmt.Sprintf("%d (%d grew)", stats.Scrolls, stats.GrownScrolls)},
		{"Elements", strconv.Itoa(stats.Elements)},
		{"Date headers", strconv.Itoa(stats.Headers)},
		{"Search activity", strconv.Itoa(stats.SearchActivity)},
		{"Viewed logs", strconv.Itoa(stats.ViewedLogs)},
		{"Duplicates", strconv.Itoa(stats.Duplicates)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Errors", strconv.Itoa(stats.Errors)},
		{"Duration", stats.Duration().Round(time.Second).String()},
	}
	for _, row := range rows {
		table.Append(row)
	}
	reason := string(stats.StopReason)
	if reason == "" {
		reason = "aborted"
	}
	table.Footer(fmt.Sprintf("Records (%s)", reason), strconv.Itoa(stats.Records))
	table.Render()
}

type NormalizeCmd struct {
	Text  string `arg:"" help:"The date header and the time label, e.g. '昨天 下午3:45'."`
	Today string `short:"t" help:"The reference day (YYYY/MM/DD). Defaults to the current day."`
}

func (nc *NormalizeCmd) Run() error {
	today := date.Today(time.Now())
	if nc.Today != "" {
		t, err := date.ParseBoundary(nc.Today)
		if err != nil {
			return err
		}
		today = t
	}
	t, ok := date.Normalize(nc.Text, today)
	if !ok {
		return fmt.Errorf("%q is not a known date and time format", nc.Text)
	}
	fmt.Println(date.FormatInstant(t))
	return nil
}

type ConfigCmd struct {
	Config string `short:"c" default:"./watchharvest.yml" help:"The location of the configuration file." type:"path"`
}

func (cc *ConfigCmd) Run() error {
	cfg, err := config.NewConfig(cc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		slog.Error(fmt.Sprintf("error while marshalling. %v", err))
		return err
	}
	fmt.Print(string(yamlData))
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Vars{
			"version": string(cli.Version),
		})

	config.LoadDotEnv()
	log.Debug = cli.Debug
	ctx.FatalIfErrorf(runLogged(cli.LogFile, func() error { return ctx.Run() }))
}

// runLogged runs the command with the default logger installed. The log file
// is closed before the error is returned since a fatal exit skips deferred
// calls.
func runLogged(logFile string, run func() error) error {
	closeLog, err := log.InitializeDefaultLogger(logFile)
	if err != nil {
		return err
	}
	err = run()
	if cerr := closeLog(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
