package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/swimsteps/internal/handler"
	appI18n "github.com/pavelanni/swimsteps/internal/i18n"
	"github.com/pavelanni/swimsteps/internal/model"
	"github.com/pavelanni/swimsteps/internal/roster"
	"github.com/pavelanni/swimsteps/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "swimsteps",
		Short:        "Swim school roster and skill progress tracker",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), importCmd(), listCmd(), importsCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `swimsteps --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// commonFlags registers the storage, catalog and logging flags every command
// shares.
func commonFlags(f *pflag.FlagSet) {
	f.String("backend", store.KindSQLite, "Storage backend (sqlite, redis, postgres)")
	f.String("db", "swimsteps.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("redis-prefix", "", "Prefix for Redis keys")
	f.String("postgres-dsn", "", "PostgreSQL connection string or URL")
	f.String("catalog", "", "Skill catalog JSON file (default: built-in catalog)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP roster server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /pool)")
	f.String("username", "coach", "Basic auth user name")
	f.String("password", "", "Basic auth password; empty disables auth (or set SWIMSTEPS_PASSWORD)")
	commonFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export students and cohorts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	commonFlags(f)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace students and/or cohorts from an exported JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students with their level and cohort",
		RunE:  runList,
	}
	f := cmd.Flags()
	f.StringP("search", "s", "", "Only show students whose name contains this text")
	commonFlags(f)
	return cmd
}

func importsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "Show the import audit trail",
		RunE:  runImports,
	}
	commonFlags(cmd.Flags())
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

	v.SetEnvPrefix("SWIMSTEPS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("swimsteps")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/swimsteps")
	v.AddConfigPath("/etc/swimsteps")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func loadCatalog(path string) (*model.Catalog, error) {
	if path == "" {
		return model.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := model.ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("loaded skill catalog", "path", path, "skills", len(cat.Skills))
	return cat, nil
}

// openService opens the configured backend and loads the roster from it.
// The caller closes the returned backend.
func openService(ctx context.Context, v *viper.Viper) (*roster.Service, store.Backend, error) {
	cat, err := loadCatalog(v.GetString("catalog"))
	if err != nil {
		return nil, nil, err
	}

	backend, err := store.Open(ctx, store.Config{
		Kind:       strings.ToLower(v.GetString("backend")),
		SQLitePath: v.GetString("db"),
		Redis: store.RedisConfig{
			Addr:     v.GetString("redis-addr"),
			Password: v.GetString("redis-password"),
			DB:       v.GetInt("redis-db"),
			Prefix:   v.GetString("redis-prefix"),
		},
		PostgresDSN: v.GetString("postgres-dsn"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	slog.Debug("opened storage", "backend", v.GetString("backend"))

	svc := roster.NewService(roster.NewRules(cat), backend)
	if err := svc.Load(ctx); err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("load roster: %w", err)
	}
	return svc, backend, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, backend, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer backend.Close()

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	appCfg := model.AppConfig{
		BasePath: basePath,
		Lang:     lang,
		Username: v.GetString("username"),
	}
	if password := v.GetString("password"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		appCfg.PasswordHash = string(hash)
	} else {
		slog.Warn("no password set, the roster is open to anyone who can reach it")
	}

	h := handler.New(svc, backend, appCfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"backend", v.GetString("backend"),
			"lang", lang,
			"base_path", basePath,
			"auth", appCfg.PasswordHash != "",
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	svc, backend, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer backend.Close()

	data, err := svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
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
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	path := args[0]
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	svc, backend, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer backend.Close()

	res, err := svc.Import(ctx, path, data)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d students, %d cohorts\n", path, res.Students, res.Cohorts)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	svc, backend, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer backend.Close()

	st := svc.State()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLEVEL\tACHIEVED\tCOHORT\tSELECTED")
	for _, s := range st.Search(v.GetString("search")) {
		cohort := "-"
		if s.CurrentCohortID != nil {
			if c, ok := st.Cohort(*s.CurrentCohortID); ok {
				cohort = c.Name
			}
		}
		selected := ""
		if s.ID == st.SelectedID {
			selected = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			s.Name, s.Level(), model.AchievedCount(s.Skills), len(svc.Rules().Catalog().Skills), cohort, selected)
	}
	return tw.Flush()
}

func runImports(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	_, backend, err := openService(ctx, v)
	if err != nil {
		return err
	}
	defer backend.Close()

	records, err := backend.ListImports(ctx)
	if err != nil {
		return fmt.Errorf("list imports: %w", err)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIMPORTED\tSOURCE\tSTUDENTS\tCOHORTS\tSHA256")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.12s\n",
			r.ID, r.ImportedAt.Local().Format(time.DateTime), r.Source, r.Students, r.Cohorts, r.SHA256)
	}
	return tw.Flush()
}
