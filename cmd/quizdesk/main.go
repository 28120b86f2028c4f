package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quizdesk/quizdesk/internal/bank"
	"github.com/quizdesk/quizdesk/internal/engine"
	"github.com/quizdesk/quizdesk/internal/handler"
	appI18n "github.com/quizdesk/quizdesk/internal/i18n"
	"github.com/quizdesk/quizdesk/internal/model"
	"github.com/quizdesk/quizdesk/internal/session"
	memorysession "github.com/quizdesk/quizdesk/internal/session/memory"
	redissession "github.com/quizdesk/quizdesk/internal/session/redis"
	sqlitesession "github.com/quizdesk/quizdesk/internal/session/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizdesk",
		Short: "Timed multiple-choice quiz server",
	}

	serve := serveCmd()
	root.AddCommand(serve, validateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizdesk --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("questions", "q", "mcqs.csv", "Path to questions CSV file")
	f.String("shuffle", "false", "Shuffle question order (1/true/yes)")
	f.Duration("time-limit", engine.DefaultTimeLimit, "Global quiz time limit")
	f.StringP("lang", "l", "en", "UI language (en, hi)")
	f.String("session-store", "memory", "Session backend (memory, redis, sqlite)")
	f.String("redis-addr", "localhost:6379", "Redis address for the redis session backend")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("db", "quizdesk.db", "SQLite database path for the sqlite session backend")
	f.Duration("session-ttl", 24*time.Hour, "Session retention for persistent backends")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the questions CSV and print a per-subject summary",
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.StringP("questions", "q", "mcqs.csv", "Path to questions CSV file")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizdesk")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizdesk")
	v.AddConfigPath("/etc/quizdesk")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Load the question bank. A missing or unreadable source is fatal: the
	// server must not come up without a valid bank.
	shuffle := bank.ShuffleEnabled(v.GetString("shuffle"))
	b, err := bank.Load(v.GetString("questions"), shuffle)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	eng := engine.New(b, engine.WithTimeLimit(v.GetDuration("time-limit")))

	sessions, cleanup, err := openSessionStore(v)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	cfg := model.Config{
		TimeLimit:     eng.TimeLimit(),
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
	}
	h := handler.New(eng, sessions, b, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"questions", b.Len(),
		"subjects", len(b.Subjects()),
		"shuffle", shuffle,
		"time_limit", eng.TimeLimit(),
		"session_store", v.GetString("session-store"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func openSessionStore(v *viper.Viper) (session.Store, func(), error) {
	ttl := v.GetDuration("session-ttl")
	switch backend := v.GetString("session-store"); backend {
	case "memory":
		return memorysession.New(), nil, nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     v.GetString("redis-addr"),
			Password: v.GetString("redis-password"),
			DB:       v.GetInt("redis-db"),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return redissession.New(client, ttl), func() { _ = client.Close() }, nil
	case "sqlite":
		store, err := sqlitesession.New(v.GetString("db"), ttl)
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
		if err := store.Cleanup(context.Background()); err != nil {
			slog.Warn("session cleanup failed", "error", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", backend)
	}
}

// bankSummary is the validate command's JSON output.
type bankSummary struct {
	Questions int              `json:"questions"`
	Subjects  []subjectSummary `json:"subjects"`
}

type subjectSummary struct {
	Subject string `json:"subject"`
	Total   int    `json:"total"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	b, err := bank.Load(v.GetString("questions"), false)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	summary := bankSummary{Questions: b.Len()}
	totals := b.SubjectTotals()
	for _, subject := range b.Subjects() {
		summary.Subjects = append(summary.Subjects, subjectSummary{
			Subject: subject,
			Total:   totals[subject],
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
