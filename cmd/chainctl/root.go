package chainctl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/chainctl/internal/client"
	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/metrics/collectors"
	"github.com/manifest-network/chainctl/internal/output"
)

var (
	validLogLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	validLogLevelsStr = strings.Join(slices.Sorted(maps.Keys(validLogLevels)), "|")
)

// requestMetrics observes every request; chain watch exposes it.
var requestMetrics = collectors.NewRequestCollector()

var RootCmd = &cobra.Command{
	Use:   "chainctl",
	Short: "Operate a toy blockchain service",
	Long:  `chainctl manages wallets, transfers, mining and the block list of a toy blockchain HTTP service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := viper.GetString("logLevel")
		if err := setLogLevel(logLevel); err != nil {
			return err
		}
		slog.Debug("Application started", "version", Version)
		return nil
	},
}

// setLogLevel sets the log level. Logs go to stderr so they never mix with
// command output.
func setLogLevel(logLevel string) error {
	level, exists := validLogLevels[logLevel]
	if !exists {
		return fmt.Errorf("invalid log level: %s. Valid log levels are: %s", logLevel, validLogLevelsStr)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".chainctl", "chainctl.db")
	}
	return filepath.Join(home, ".chainctl", "chainctl.db")
}

func init() {
	RootCmd.PersistentFlags().StringP("logLevel", "l", "info", fmt.Sprintf("set log level (%s)", validLogLevelsStr))
	RootCmd.PersistentFlags().String("api-url", "http://localhost:5000", "Base URL of the chain service")
	RootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")
	RootCmd.PersistentFlags().String("user-agent", "chainctl/"+Version, "User-Agent sent with every request")
	RootCmd.PersistentFlags().Duration("debounce", 500*time.Millisecond, "Quiet period before a block edit is pushed")
	RootCmd.PersistentFlags().String("db-path", defaultDBPath(), "Path of the chain snapshot database")
	RootCmd.PersistentFlags().StringP("format", "o", "table", "Output format (table|json)")
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind rootCmd flags", "error", err)
	}

	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.chainctl")
	viper.AddConfigPath("/etc/chainctl")

	viper.SetEnvPrefix("chainctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	RootCmd.AddCommand(walletsCmd)
	RootCmd.AddCommand(txCmd)
	RootCmd.AddCommand(mineCmd)
	RootCmd.AddCommand(prizeCmd)
	RootCmd.AddCommand(mempoolCmd)
	RootCmd.AddCommand(chainCmd)
	RootCmd.AddCommand(versionCmd)
}

// newClient builds a client from the global flags.
func newClient() (*client.ChainClient, config.ClientConfig, error) {
	cfg := config.LoadClientConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, cfg, fmt.Errorf("invalid client configuration: %w", err)
	}
	slog.Debug("Client configuration", "config", cfg)
	return client.NewChainClient(cfg, client.WithObserver(requestMetrics)), cfg, nil
}

func newOutput(cmd *cobra.Command) (output.OutputHandler, error) {
	cfg := config.LoadOutputConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid output configuration: %w", err)
	}
	return output.NewOutputHandler(cfg, cmd.OutOrStdout())
}

// handleInterrupt handles interrupt signals for graceful shutdown.
func handleInterrupt(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		slog.Info("Received interrupt signal, shutting down...")
		cancel()
	}()
}

// Execute runs the root command.
func Execute() {
	if err := viper.ReadInConfig(); err == nil {
		slog.Info("Using config file", "file", viper.ConfigFileUsed())
	} else {
		slog.Debug("No config file found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handleInterrupt(cancel)

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("An error occurred", "error", err)
		cancel()
		os.Exit(1)
	}
}
