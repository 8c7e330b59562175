// Package main is the entry point for the handicap-race application
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/myusername/handicap-race/internal/config"
	"github.com/myusername/handicap-race/internal/logging"
	"github.com/myusername/handicap-race/internal/utils"
	"github.com/myusername/handicap-race/pkg/handicap"
	"github.com/myusername/handicap-race/pkg/raceday"
	"github.com/myusername/handicap-race/pkg/results"
	"github.com/myusername/handicap-race/pkg/roster"
	"github.com/myusername/handicap-race/pkg/scraper"
)

// Version is set during build using ldflags
var (
	version = "dev"
)

const (
	nextRaceFile       = "next-race.csv"
	resultsFile        = "results.csv"
	seasonRolloverFile = "season-rollover.csv"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		slog.Error("handicap-race failed", "error", err)
		os.Exit(1)
	}
}

type export struct {
	name    string
	content string
}

type options struct {
	configPath string
	rosterPath string
	finishes   string
	month      int
	outputDir  string
	rollover   bool
	version    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("handicap-race", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML or TOML config file")
	fs.StringVar(&opts.rosterPath, "roster", "", "Roster CSV for this race (required)")
	fs.StringVar(&opts.finishes, "finishes", "", "Finish sheet: CSV, HTML, PDF, TXT or an http(s) URL")
	fs.IntVar(&opts.month, "month", 0, "Race month 1-12 (default: config, then the current month)")
	fs.StringVar(&opts.outputDir, "output", "", "Output directory for CSV files (default: current directory)")
	fs.BoolVar(&opts.rollover, "rollover", false, "Also write a season rollover roster")
	fs.BoolVar(&opts.version, "version", false, "Print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// resolveConfig merges the config file with flag overrides
func resolveConfig(opts options, now func() time.Time) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if opts.finishes != "" {
		cfg.FinishesSource = opts.finishes
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.month != 0 {
		cfg.RaceMonth = opts.month
	}
	if cfg.RaceMonth == 0 {
		cfg.RaceMonth = int(now().Month())
	}
	return cfg, cfg.Validate()
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "handicap-race version %s\n", version)
		return nil
	}
	if opts.rosterPath == "" {
		return fmt.Errorf("-roster is required")
	}

	cfg, err := resolveConfig(opts, now)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{
		Service: "handicap-race",
		RunID:   uuid.NewString(),
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("handicap-race starting", "version", version, "club", cfg.Club, "race_month", cfg.RaceMonth)

	data, err := os.ReadFile(opts.rosterPath)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}
	runners, err := roster.ParseRoster(string(data))
	if err != nil {
		return fmt.Errorf("parse roster %s: %w", opts.rosterPath, err)
	}
	logger.Info("roster loaded", "runners", len(runners))

	problems := roster.ValidateRoster(runners)
	for _, p := range problems {
		logger.Warn("roster problem", "member_number", p.MemberNumber, "field", p.Field, "reason", p.Message)
	}
	utils.DisplayValidationProblems(stdout, problems)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if cfg.FinishesSource != "" {
		finishes, err := loadFinishes(cfg.FinishesSource, scraper.New(cfg.FetchTimeout.Duration), cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("load finishes from %s: %w", cfg.FinishesSource, err)
		}
		logger.Info("finishes loaded", "count", len(finishes), "source", cfg.FinishesSource)

		runners, err = raceday.ApplyFinishes(runners, finishes)
		if err != nil {
			return fmt.Errorf("apply finishes: %w", err)
		}
	}

	runners, err = handicap.CalculateHandicaps(runners, cfg.RaceMonth)
	if err != nil {
		return fmt.Errorf("calculate handicaps: %w", err)
	}

	utils.DisplayRaceResults(stdout, cfg.Club, results.AggregateResults(runners))
	utils.DisplayChampionshipStandings(stdout, runners)

	exports := []export{
		{nextRaceFile, roster.SerializeNextRaceRoster(runners)},
		{resultsFile, roster.SerializeResults(runners)},
	}
	if opts.rollover {
		exports = append(exports, export{seasonRolloverFile, roster.SerializeSeasonRollover(runners)})
	}
	for _, e := range exports {
		path, err := utils.SaveExport(cfg.OutputDir, e.name, e.content)
		if err != nil {
			return err
		}
		logger.Info("export written", "path", path)
	}

	return nil
}
