package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/polls/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/polls/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/polls/internal/config"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
	"github.com/vncsmyrnk/polls/internal/core/services"
)

const usage = `usage: pollsadmin [flags] <command> [args]

commands:
  create -text "Question?" [-published 2024-01-15T09:30:00Z] [choice ...]
  add-choice <question-id> <text>
  delete <question-id>
  report
`

func main() {
	config.LoadEnv()

	var driver, sqlitePath string
	pg := config.PostgresFromEnv()

	flag.StringVar(&driver, "driver", envOr("DATABASE_DRIVER", config.DriverPostgres), "Database driver (postgres or sqlite)")
	flag.StringVar(&sqlitePath, "sqlite-path", envOr("SQLITE_PATH", "polls.db"), "SQLite database file")
	flag.StringVar(&pg.Host, "db-host", pg.Host, "Database host")
	flag.StringVar(&pg.Port, "db-port", pg.Port, "Database port")
	flag.StringVar(&pg.User, "db-user", pg.User, "Database user")
	flag.StringVar(&pg.Password, "db-pass", pg.Password, "Database password")
	flag.StringVar(&pg.DBName, "db-name", pg.DBName, "Database name")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, repo, err := openRepository(ctx, driver, sqlitePath, pg)
	if err != nil {
		slog.Error("failed to open database", "driver", driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	admin := services.NewAdminService(repo)
	if err := run(ctx, admin, os.Stdout, flag.Args()); err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, admin ports.AdminService, out io.Writer, args []string) error {
	command, args := args[0], args[1:]

	switch command {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		text := fs.String("text", "", "Question text")
		published := fs.String("published", "", "Publication time in RFC 3339, defaults to now")
		if err := fs.Parse(args); err != nil {
			return err
		}

		input := ports.CreateQuestionInput{Text: *text, Choices: fs.Args()}
		if *published != "" {
			at, err := time.Parse(time.RFC3339, *published)
			if err != nil {
				return fmt.Errorf("invalid -published: %w", err)
			}
			input.PublishedAt = &at
		}

		question, choices, err := admin.CreateQuestion(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", question)
		for _, c := range choices {
			fmt.Fprintf(out, "  %s\n", c)
		}

	case "add-choice":
		if len(args) != 2 {
			return fmt.Errorf("add-choice expects <question-id> <text>")
		}
		choice, err := admin.AddChoice(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added %s\n", choice)

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("delete expects <question-id>")
		}
		if err := admin.DeleteQuestion(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", args[0])

	case "report":
		reports, err := admin.Report(ctx)
		if err != nil {
			return err
		}
		writeReport(out, reports)

	default:
		return fmt.Errorf("unknown command %q", command)
	}

	return nil
}

func writeReport(out io.Writer, reports []*domain.Results) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "QUESTION\tPUBLISHED\tCHOICE\tVOTES\tSHARE")
	for _, r := range reports {
		published := humanize.Time(r.Question.PublishedAt)
		if len(r.Choices) == 0 {
			fmt.Fprintf(w, "%s\t%s\t-\t0\t-\n", r.Question.Text, published)
			continue
		}
		for i, c := range r.Choices {
			question := r.Question.Text
			if i > 0 {
				question, published = "", ""
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\n", question, published, c.Text, humanize.Comma(c.Votes), r.Share(c))
		}
	}
}

func openRepository(ctx context.Context, driver, sqlitePath string, pg config.PostgresConfig) (*sql.DB, ports.QuestionRepository, error) {
	switch strings.ToLower(driver) {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewQuestionRepository(db), nil
	case config.DriverPostgres:
		db, err := sql.Open("postgres", pg.ConnString())
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, postgres.NewQuestionRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
