package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harris-mohamed/atlas/internal/config"
	"github.com/harris-mohamed/atlas/internal/council"
	"github.com/harris-mohamed/atlas/internal/discord"
	"github.com/harris-mohamed/atlas/internal/gateway"
	"github.com/harris-mohamed/atlas/internal/memory"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/harris-mohamed/atlas/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas War Room - multi-model LLM council for Discord",
	Long: `Atlas runs a council of LLM-backed officers behind Discord slash
commands. A mission brief fans out to every active officer in parallel; each
officer answers with its own model, persona, and per-channel memory, and the
results come back as batched embeds with interactive follow-up controls.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the bot until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and serve the war room",
	RunE:  runServe,
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Inspect the officer roster",
}

var rosterValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the roster file and exit",
	RunE:  runRosterValidate,
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active officers",
	RunE:  runRosterList,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "atlas.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rosterCmd.AddCommand(rosterValidateCmd)
	rosterCmd.AddCommand(rosterListCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rosterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	logger.Info("roster loaded",
		zap.String("path", cfg.Roster.Path),
		zap.String("version", registry.Version()),
		zap.Int("active", len(registry.Active())))

	st, err := store.Open(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.SeedOfficers(ctx, registry.Definitions()); err != nil {
		return fmt.Errorf("seed officers: %w", err)
	}

	if cfg.Roster.Watch {
		watcher, err := roster.NewWatcher(registry, logger)
		if err != nil {
			return fmt.Errorf("watch roster: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch roster: %w", err)
		}
	}

	client := gateway.NewClient(gateway.Config{
		APIKey:   cfg.OpenRouter.APIKey,
		BaseURL:  cfg.OpenRouter.BaseURL,
		Timeout:  cfg.GetOpenRouterTimeout(),
		SiteURL:  cfg.OpenRouter.SiteURL,
		SiteName: cfg.OpenRouter.SiteName,
	}, logger)
	assembler := memory.NewAssembler(st)
	orchestrator := council.NewOrchestrator(client, assembler, logger)

	bot, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID, registry, st, orchestrator, assembler, logger)
	if err != nil {
		return err
	}
	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer bot.Close()

	logger.Info("atlas serving, press ctrl-c to stop")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func runRosterValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	registry, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		return fmt.Errorf("roster invalid: %w", err)
	}
	fmt.Printf("✅ roster %s valid: %d active officers, %d defined\n",
		registry.Version(), len(registry.Active()), len(registry.Definitions()))
	return nil
}
