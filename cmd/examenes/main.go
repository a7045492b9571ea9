package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uniquindio/examenes/internal/api"
	"github.com/uniquindio/examenes/internal/auth"
	"github.com/uniquindio/examenes/internal/handler"
	appI18n "github.com/uniquindio/examenes/internal/i18n"
	"github.com/uniquindio/examenes/internal/model"
	"github.com/uniquindio/examenes/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examenes",
		Short:        "Exam management client for the university exam backend",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("api-url", "http://localhost:8000", "Backend base URL")
	pf.String("listing-url", "", "Pending exams endpoint (default {api-url}/examenes-asignados)")
	pf.String("store", "examenes.db", "SQLite file holding the local token store")
	pf.String("token-key", model.DefaultTokenKey, "Store key of the bearer token")
	pf.String("token", "", "Use this bearer token instead of the stored one")
	pf.StringP("lang", "l", "es", "Language (es, en)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	serve := serveCmd()
	root.AddCommand(serve, examCmd(), tokenCmd(), loginCmd(), logoutCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examenes --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /examenes)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	return cmd
}

func setupLogging(v *viper.Viper) {
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

	v.SetEnvPrefix("EXAMENES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examenes")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examenes")
	v.AddConfigPath("/etc/examenes")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// env is what every command needs once flags, config and environment are resolved.
type env struct {
	v      *viper.Viper
	store  *store.Store
	client *api.Client
	cfg    model.Config
}

// setup configures logging and i18n, opens the token store and builds the backend client.
// The caller must Close the returned env.
func setup(cmd *cobra.Command) (*env, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	st, err := store.New(v.GetString("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cfg := model.Config{
		APIURL:        v.GetString("api-url"),
		ListingURL:    v.GetString("listing-url"),
		TokenKey:      v.GetString("token-key"),
		BasePath:      normalizeBasePath(v.GetString("base-path")),
		SecureCookies: v.GetBool("secure-cookies"),
	}

	var src auth.TokenSource = auth.StoreTokens{Store: st, Key: cfg.TokenKey}
	if tok := v.GetString("token"); tok != "" {
		src = auth.StaticToken(tok)
	}

	client, err := api.New(cfg.APIURL, cfg.ListingURL, auth.NewClient(src))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return &env{v: v, store: st, client: client, cfg: cfg}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, ok, err := e.store.GetItem(e.cfg.TokenKey); err == nil && !ok && e.v.GetString("token") == "" {
		slog.Warn("no token stored; backend calls will send Bearer null", "key", e.cfg.TokenKey)
	}

	h, err := handler.New(e.client.Exams(), e.client.Students(), e.cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	lang := e.v.GetString("lang")
	basePath := e.cfg.BasePath

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

	addr := e.v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"api_url", e.client.BaseURL(),
		"listing_url", e.client.ListingURL(),
		"lang", lang,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}
