package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModePaper  Mode = "paper"
)

const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

type Config struct {
	Mode               Mode   `validate:"oneof=dry-run paper"`
	Source             string `validate:"oneof=file sqlite"`
	SeriesFile         string `validate:"required_if=Source file"`
	DBPath             string `validate:"required_if=Source sqlite"`
	Lookback           int    `validate:"gte=2"`
	StrategyConfigPath string
	Once               bool
	HTTPAddr           string
	KillSwitch         bool
	Cooldown           time.Duration `validate:"gte=0"`
	MinDrift           float64       `validate:"gte=0,lte=1"`
	MaxNotional        float64       `validate:"gte=0"`
	DecisionsPath      string        `validate:"required"`
	CheckpointPath     string        `validate:"required"`
	PaperBaseURL       string        `validate:"required,url"`
	APIKey             string
	APISecret          string
	LogLevel           string `validate:"oneof=debug info warn error"`
	LogPretty          bool
}

var validate = validator.New()

// Load parses the process arguments after reading .env, if present.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (Config, error) {
	var cfg Config
	var mode string

	loadDotEnvIfPresent(".env")

	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	fs.StringVar(&mode, "mode", string(ModeDryRun), "run mode: dry-run or paper")
	fs.StringVar(&cfg.Source, "source", SourceFile, "series source: file or sqlite")
	fs.StringVar(&cfg.SeriesFile, "series-file", "series.yaml", "YAML/JSON file with series observations")
	fs.StringVar(&cfg.DBPath, "db-path", "series.db", "SQLite observation store")
	fs.IntVar(&cfg.Lookback, "lookback", 8, "observations per series loaded from the store")
	fs.StringVar(&cfg.StrategyConfigPath, "strategy-config", "", "optional YAML overrides for the strategy")
	fs.BoolVar(&cfg.Once, "once", false, "run a single evaluation and exit")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "status server address, empty to disable")
	fs.BoolVar(&cfg.KillSwitch, "kill-switch", false, "if true, never place orders")
	fs.DurationVar(&cfg.Cooldown, "cooldown", 12*time.Hour, "minimum time between rebalances")
	fs.Float64Var(&cfg.MinDrift, "min-drift", 0.02, "skip rebalances smaller than this fraction of equity")
	fs.Float64Var(&cfg.MaxNotional, "max-notional", 0, "max notional per order, 0 for no limit")
	fs.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decisions log")
	fs.StringVar(&cfg.CheckpointPath, "checkpoint-path", "checkpoint.json", "path to checkpoint file")
	fs.StringVar(&cfg.PaperBaseURL, "paper-base-url", "https://paper-api.alpaca.markets", "paper trading base URL")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", false, "human readable console logs")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Mode = Mode(mode)
	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Mode == ModePaper && (cfg.APIKey == "" || cfg.APISecret == "") {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required in paper mode")
	}
	return nil
}

// loadDotEnvIfPresent never overrides variables already set in the
// environment.
func loadDotEnvIfPresent(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
