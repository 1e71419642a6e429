package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apphistory "github.com/bryanwahyu/glowreader/internal/application/history"
	"github.com/bryanwahyu/glowreader/internal/client"
	"github.com/bryanwahyu/glowreader/internal/config"
	"github.com/bryanwahyu/glowreader/internal/infra/slot/memory"
	"github.com/bryanwahyu/glowreader/internal/logging"
)

var (
	// Global flags
	configPath     string
	serverURL      string
	historyBackend string
	noHistory      bool
	verbose        bool

	// set up by PersistentPreRunE
	app *App
)

// App holds what every subcommand needs.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	History *apphistory.Store
	Session *client.Session
	Out     io.Writer
	In      io.Reader

	// HistoryOff is set when the configured slot could not be opened and
	// analyses run without saving.
	HistoryOff bool

	closeSlot func() error
}

func (a *App) Close() error {
	if a.closeSlot != nil {
		return a.closeSlot()
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "glowreader",
	Short: "GlowReader - AI skin analysis and makeup advice from a photo",
	Long: `GlowReader sends a photo and a few details to the GlowReader API and
shows the analysis section by section.

Past analyses are kept locally (last 10) and can be replayed without
calling the API again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		a, err := setup(cmd.Context(), needsHistory(cmd))
		if err != nil {
			return err
		}
		a.Out = cmd.OutOrStdout()
		a.In = cmd.InOrStdin()
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app == nil {
			return
		}
		if err := app.Close(); err != nil {
			app.Log.Warn("close history slot", zap.Error(err))
		}
		_ = app.Log.Sync()
	},
}

// needsHistory reports whether cmd is one of the history subcommands, which
// cannot do anything useful without the configured slot.
func needsHistory(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == historyCmd {
			return true
		}
	}
	return false
}

// setup loads config, the logger and the history slot. When strictHistory is
// false a slot that fails to open is replaced by an in-memory one.
func setup(ctx context.Context, strictHistory bool) (*App, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}
	if historyBackend != "" {
		cfg.History.Backend = historyBackend
	}
	if noHistory {
		cfg.History.Backend = config.SlotMemory
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	historyOff := false
	slot, closeSlot, err := openSlot(ctx, cfg)
	if err != nil {
		if strictHistory {
			return nil, err
		}
		log.Warn("history unavailable, continuing without it",
			zap.String("backend", cfg.History.Backend), zap.Error(err))
		slot, closeSlot, historyOff = memory.New(), nil, true
	}

	return &App{
		Config:     cfg,
		Log:        log,
		History:    apphistory.NewStore(slot, cfg.History.SlotName, nil, log.Named("history")),
		Session:    client.NewSession(client.New(cfg.Client.ServerURL, cfg.Client.Timeout, log.Named("client"))),
		HistoryOff: historyOff,
		closeSlot:  closeSlot,
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default $CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "GlowReader API base URL")
	rootCmd.PersistentFlags().StringVar(&historyBackend, "history-backend", "", "History storage: sqlite, mysql, postgres or memory")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not read or write local history")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(analyzeCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
