// Package main provides the CLI entrypoint for paperlist.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/paperlist/internal/config"
	"github.com/verte-zerg/paperlist/internal/logging"
	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/session"
	"github.com/verte-zerg/paperlist/internal/store"
	"github.com/verte-zerg/paperlist/internal/tui"
)

var (
	flagDB        string
	flagClearMode string
	flagLogLevel  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "paperlist",
		Short:         "Paper to-do list with a trophy for every finish",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runListCmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: $XDG_DATA_HOME/paperlist/paperlist.db)")
	rootCmd.PersistentFlags().StringVar(&flagClearMode, "clear-mode", string(model.ClearCompleted), "tasks removed on reset: completed-only or all")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn or error (commands default to warn)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newCheckCmd(true))
	rootCmd.AddCommand(newCheckCmd(false))
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newAppearanceCmd())
	rootCmd.AddCommand(newTrophiesCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log, logFile, err := logging.OpenFile(config.DefaultLogPath(), settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort log close.
			_ = cerr
		}
	}()

	st, svc, err := openService(settings, log)
	if err != nil {
		return err
	}
	defer closeStore(st, log)

	log.Info("opening list", "db", settings.DBPath, "clear_mode", settings.ClearMode)
	ui := tui.NewModel(cmd.Context(), svc, log)
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// withService runs fn against a service backed by the configured database,
// logging to stderr. Unless a level is configured only warnings are shown.
func withService(cmd *cobra.Command, fn func(svc *session.Service) error) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	level := settings.LogLevel
	if !settings.LogLevelSet {
		level = slog.LevelWarn
	}
	log := logging.New(cmd.ErrOrStderr(), level)
	st, svc, err := openService(settings, log)
	if err != nil {
		return err
	}
	defer closeStore(st, log)
	return fn(svc)
}

func openService(settings config.Settings, log *slog.Logger) (*store.Store, *session.Service, error) {
	st, err := store.Open(settings.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	svc := session.New(st, session.Options{
		ClearMode: settings.ClearMode,
		Logger:    log,
	})
	return st, svc, nil
}

func closeStore(st *store.Store, log *slog.Logger) {
	if cerr := st.Close(); cerr != nil {
		log.Warn("failed to close db", "err", cerr)
	}
}

// loadSettings merges defaults, the config file, the environment and flags,
// in increasing order of precedence.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load environment: %w", err)
	}
	applyStringFlag(cmd, "db", &envCfg.DB, flagDB)
	applyStringFlag(cmd, "clear-mode", &envCfg.ClearMode, flagClearMode)
	applyStringFlag(cmd, "log-level", &envCfg.LogLevel, flagLogLevel)
	settings, err := config.Resolve(fileCfg, envCfg)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// applyStringFlag lets an explicitly set flag win over the environment layer.
func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# paperlist configuration
# Uncomment a value to enable it. PAPERLIST_* variables override these values,
# and CLI flags override both.

[list]
# clear-mode = %q   # Tasks removed on reset: "completed-only" or "all"
# db = %q
# log-level = "info"            # debug, info, warn or error
`,
		model.ClearCompleted,
		config.DefaultDBPath(),
	)
}
