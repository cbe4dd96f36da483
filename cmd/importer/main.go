// Command importer loads question sets from JSON or XLSX files into the
// question store and drops the cached copies of the sets it touched.
//
//	importer -file acids.xlsx -topic science_acids_salts_10_quiz -difficulty Simple
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ready4exam/worksheet/internal/platform/cache"
	"github.com/ready4exam/worksheet/internal/platform/config"
	"github.com/ready4exam/worksheet/internal/platform/database"
	"github.com/ready4exam/worksheet/internal/question"
	"github.com/ready4exam/worksheet/internal/quiz"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	file       string
	format     string
	sheet      string
	topic      string
	difficulty string
	dryRun     bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	flags := flag.NewFlagSet("importer", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringVar(&o.file, "file", "", "question file (.json or .xlsx)")
	flags.StringVar(&o.format, "format", "", "json or xlsx; defaults to the file extension")
	flags.StringVar(&o.sheet, "sheet", "", "worksheet name for xlsx files; defaults to the first sheet")
	flags.StringVar(&o.topic, "topic", "", "topic id for records that carry none")
	flags.StringVar(&o.difficulty, "difficulty", "", "difficulty for records that carry none")
	flags.BoolVar(&o.dryRun, "dry-run", false, "validate only; write nothing")
	if err := flags.Parse(args); err != nil {
		return o, err
	}

	if o.file == "" {
		return o, errors.New("-file is required")
	}
	if o.format == "" {
		o.format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.file)), ".")
	}
	if o.format != "json" && o.format != "xlsx" {
		return o, fmt.Errorf("unsupported format %q (want json or xlsx)", o.format)
	}
	if o.difficulty != "" {
		d := quiz.NormalizeDifficulty(o.difficulty, "")
		if d == "" {
			return o, fmt.Errorf("unknown difficulty %q", o.difficulty)
		}
		o.difficulty = d
	}
	return o, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	records, err := readRecords(o)
	if err != nil {
		return err
	}
	question.ApplyDefaults(records, o.topic, o.difficulty)
	for i := range records {
		if records[i].TopicID == "" {
			return fmt.Errorf("record %d has no topic_id; pass -topic", i+1)
		}
		records[i].Difficulty = quiz.NormalizeDifficulty(records[i].Difficulty, records[i].Difficulty)
	}

	usable := len(question.Normalize(records))
	fmt.Fprintf(out, "%d records read, %d usable\n", len(records), usable)
	if o.dryRun {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("QUIZ_DATABASE_URL is required to import; use -dry-run to validate only")
	}

	db, err := database.New(ctx, database.Options{URL: cfg.Database.URL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	store, err := question.NewPostgresStore(db.Pool)
	if err != nil {
		return err
	}
	n, err := store.Upsert(ctx, records)
	if err != nil {
		return fmt.Errorf("write questions: %w", err)
	}
	fmt.Fprintf(out, "%d records written\n", n)

	if cfg.Cache.URL != "" {
		invalidate(ctx, cfg.Cache.URL, store, records)
	}
	return nil
}

func readRecords(o options) ([]question.Record, error) {
	f, err := os.Open(o.file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.file, err)
	}
	defer f.Close()

	if o.format == "xlsx" {
		return question.ReadXLSX(f, o.sheet)
	}
	return question.DecodeJSON(f)
}

// invalidate drops cached copies of every set the import touched. Failures
// are logged; stale entries expire with the cache TTL anyway.
func invalidate(ctx context.Context, url string, store question.Store, records []question.Record) {
	c, err := cache.New(ctx, cache.Options{URL: url, PoolSize: 2, ClientName: "worksheet-importer"})
	if err != nil {
		slog.Warn("cache unavailable; cached sets expire on their own", "error", err)
		return
	}
	defer c.Close()

	cached, err := question.NewCachedStore(store, c.Client, 0)
	if err != nil {
		slog.Warn("cache unavailable", "error", err)
		return
	}
	for _, s := range touchedSets(records) {
		if err := cached.Invalidate(ctx, s[0], s[1]); err != nil {
			slog.Warn("failed to invalidate cached set", "topic", s[0], "difficulty", s[1], "error", err)
		}
	}
}

// touchedSets returns the distinct (topic, difficulty) pairs in records.
func touchedSets(records []question.Record) [][2]string {
	seen := map[[2]string]bool{}
	var sets [][2]string
	for _, r := range records {
		k := [2]string{r.TopicID, r.Difficulty}
		if !seen[k] {
			seen[k] = true
			sets = append(sets, k)
		}
	}
	sort.Slice(sets, func(i, j int) bool {
		if sets[i][0] != sets[j][0] {
			return sets[i][0] < sets[j][0]
		}
		return sets[i][1] < sets[j][1]
	})
	return sets
}
