package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/config"
	"github.com/studiora/studiora/internal/logging"
	"github.com/studiora/studiora/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "studiora",
	Short: "Adaptive study planner for nursing courses",
	Long:  "Studiora turns course assignments into a week-by-week plan of study and review blocks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd)
	},
	SilenceUsage: true,
}

// ExecuteContext runs the CLI; ctx is available to commands via cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides STUDIORA_DB env var)")
	pf.String("config", "", "Path to config file (overrides STUDIORA_CONFIG env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(assignmentCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is what most commands need: configuration, a logger and the store.
type env struct {
	cfg        *config.Config
	configPath string
	log        zerolog.Logger
	store      *store.Store
	closeLog   func() error
}

func (e *env) loc() *time.Location {
	return e.cfg.Location()
}

func (e *env) now() time.Time {
	return time.Now().In(e.loc())
}

func (e *env) Close() error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.closeLog != nil {
		errs = append(errs, e.closeLog())
	}
	return errors.Join(errs...)
}

// setup loads the config, builds the logger and opens the database.
func setup(cmd *cobra.Command) (*env, error) {
	return setupEnv(cmd, false)
}

// setupEnv is setup; quiet discards console logging, which would draw over
// a full-screen program. A configured log file still receives everything.
func setupEnv(cmd *cobra.Command, quiet bool) (*env, error) {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = strings.ToLower(lvl)
	}

	console := io.Writer(os.Stderr)
	if quiet {
		console = io.Discard
	}
	log, closeLog, err := logging.NewWithWriter(cfg.Log, console)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	e := &env{cfg: cfg, configPath: path, log: log, closeLog: closeLog}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	e.store, err = store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug().Str("db", dbPath).Str("config", path).Msg("environment ready")
	return e, nil
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDIORA_DB env var, then the config file, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if os.Getenv("STUDIORA_DB") == "" && cfg != nil && cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}
