package chainctl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/metrics"
	"github.com/manifest-network/chainctl/internal/metrics/collectors"
	"github.com/manifest-network/chainctl/internal/watcher"
)

var chainWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the chain and report new blocks and validity changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadWatchConfigFromCLI()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid watch configuration: %w", err)
		}

		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if cfg.EnablePrometheus {
			cs, err := collectors.DefaultRegistry.CreateCollectors(s.rec)
			if err != nil {
				return fmt.Errorf("failed to create collectors: %w", err)
			}
			server, err := metrics.CreateMetricsServer(cfg.PrometheusAddr, append(cs, requestMetrics)...)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					slog.Error("Failed to stop metrics server", "error", err)
				}
			}()
		}

		slog.Info("Starting chain watch", "interval", cfg.Interval)
		return watcher.Watch(cmd.Context(), s.rec, cfg.Interval, func(obs watcher.Observation) error {
			return s.out.WriteMessage(describe(obs))
		})
	},
}

func describe(obs watcher.Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s chain has %d block(s)", time.Now().Format(time.TimeOnly), obs.Blocks)
	if obs.NewBlocks > 0 {
		fmt.Fprintf(&b, " (+%d)", obs.NewBlocks)
	}
	if obs.Verdict.Valid {
		b.WriteString(", valid")
	} else {
		invalid := make([]string, 0, len(obs.Verdict.Invalid))
		for _, index := range obs.Verdict.Invalid {
			invalid = append(invalid, fmt.Sprintf("#%d", index))
		}
		fmt.Fprintf(&b, ", invalid: %s", strings.Join(invalid, ", "))
	}
	return b.String()
}

func init() {
	chainWatchCmd.Flags().Duration("interval", 5*time.Second, "Polling interval")
	chainWatchCmd.Flags().Bool("enable-prometheus", false, "Enable Prometheus metrics server")
	chainWatchCmd.Flags().String("prometheus-addr", "0.0.0.0:2112", "Address and port of the Prometheus metrics server")

	if err := viper.BindPFlags(chainWatchCmd.Flags()); err != nil {
		slog.Error("Failed to bind chainWatchCmd flags", "error", err)
	}
}
