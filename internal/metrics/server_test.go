package metrics_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/metrics"
	"github.com/manifest-network/chainctl/internal/metrics/collectors"
)

type staticStats chain.Stats

func (s staticStats) Stats() chain.Stats { return chain.Stats(s) }

func TestCreateMetricsServer(t *testing.T) {
	t.Run("StartServer", func(t *testing.T) {
		source := staticStats{Blocks: 4, Dirty: 1, Validated: true, Valid: false}
		cs, err := collectors.DefaultRegistry.CreateCollectors(source)
		require.NoError(t, err)

		requests := collectors.NewRequestCollector()
		requests.ObserveRequest("chain", "ok", 10*time.Millisecond)

		server, err := metrics.CreateMetricsServer("127.0.0.1:0", append(cs, requests)...)
		require.NoError(t, err)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, server.Shutdown(ctx))
		}()

		resp, err := http.Get("http://" + server.Addr + "/metrics")
		require.NoError(t, err, "Failed to connect to metrics server")
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		require.Contains(t, string(body), "chainctl_chain_blocks 4")
		require.Contains(t, string(body), "chainctl_chain_dirty_blocks 1")
		require.Contains(t, string(body), "chainctl_chain_valid 0")
		require.Contains(t, string(body), `chainctl_requests_total{endpoint="chain",outcome="ok"} 1`)
	})

	t.Run("WhenInvalidAddress", func(t *testing.T) {
		_, err := metrics.CreateMetricsServer("invalid-address😆")
		require.Error(t, err)
	})

	t.Run("WhenInvalidPort", func(t *testing.T) {
		_, err := metrics.CreateMetricsServer("localhost:99999")
		require.Error(t, err)
	})

	t.Run("WhenDuplicateCollector", func(t *testing.T) {
		c := collectors.NewRequestCollector()
		_, err := metrics.CreateMetricsServer("127.0.0.1:0", c, c)
		require.Error(t, err)
	})
}
