// Command seriesctl writes observations into the SQLite store the bot reads
// from and prints what is stored.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"macroalloc/internal/feed"
	"macroalloc/internal/series"
	"macroalloc/pkg/logger"
)

const usage = `usage:
  seriesctl record -db <path> -key <series> -date YYYY-MM-DD -value <v>
  seriesctl import -db <path> <file.yaml>
  seriesctl show   -db <path> [-key <series>] [-n N]`

var errUsage = errors.New(usage)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	if err := run(context.Background(), os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("seriesctl failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer, log zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dbPath := fs.String("db", "series.db", "SQLite observation store")
	key := fs.String("key", "", "series identifier")
	date := fs.String("date", "", "observation date")
	value := fs.Float64("value", 0, "observation value")
	limit := fs.Int("n", 10, "observations to show per series")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%v", errUsage, err)
	}
	switch {
	case cmd == "record" && (*key == "" || *date == ""),
		cmd == "import" && fs.NArg() != 1,
		cmd != "record" && cmd != "import" && cmd != "show":
		return errUsage
	}

	store, err := feed.OpenSQLite(ctx, *dbPath, *limit)
	if err != nil {
		return err
	}
	defer store.Close()

	switch cmd {
	case "record":
		observedAt, err := feed.ParseDate(*date)
		if err != nil {
			return err
		}
		if err := store.Record(ctx, *key, series.Point{Time: observedAt, Value: *value}); err != nil {
			return err
		}
		log.Info().Str("series", *key).Time("date", observedAt).Float64("value", *value).Msg("observation recorded")
		return nil

	case "import":
		data, err := feed.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		n, err := store.Import(ctx, data)
		if err != nil {
			return err
		}
		log.Info().Int("observations", n).Int("series", len(data)).Str("file", fs.Arg(0)).Msg("import complete")
		return nil

	case "show":
		keys := []string{*key}
		if *key == "" {
			if keys, err = store.Keys(ctx); err != nil {
				return err
			}
		}
		for _, k := range keys {
			history, err := store.History(ctx, k, *limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%d)\n", k, len(history))
			for _, p := range history {
				fmt.Fprintf(out, "  %s  %v\n", p.Time.Format("2006-01-02"), p.Value)
			}
		}
		return nil
	}
	return errUsage
}
