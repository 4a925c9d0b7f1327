package collectors_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/metrics/collectors"
)

type staticStats chain.Stats

func (s staticStats) Stats() chain.Stats { return chain.Stats(s) }

func TestChainBlocksCollector(t *testing.T) {
	c := collectors.NewChainBlocksCollector(staticStats{Blocks: 3, Invalid: 2, PendingUpdates: 1})

	expected := `
# HELP chainctl_chain_invalid_blocks Blocks reported invalid by the last validation
# TYPE chainctl_chain_invalid_blocks gauge
chainctl_chain_invalid_blocks 2
# HELP chainctl_chain_pending_updates Block edits waiting for their debounce period
# TYPE chainctl_chain_pending_updates gauge
chainctl_chain_pending_updates 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"chainctl_chain_invalid_blocks", "chainctl_chain_pending_updates"))
	assert.Equal(t, 5, testutil.CollectAndCount(c))
}

func TestChainValidityCollector(t *testing.T) {
	assert.Zero(t, testutil.CollectAndCount(collectors.NewChainValidityCollector(staticStats{})))

	valid := collectors.NewChainValidityCollector(staticStats{Validated: true, Valid: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(valid))
}

func TestRequestCollector(t *testing.T) {
	c := collectors.NewRequestCollector()
	c.ObserveRequest("mine", "ok", time.Millisecond)
	c.ObserveRequest("mine", "ok", time.Millisecond)
	c.ObserveRequest("mine", "500", time.Millisecond)

	expected := `
# HELP chainctl_requests_total Requests sent to the chain service
# TYPE chainctl_requests_total counter
chainctl_requests_total{endpoint="mine",outcome="500"} 1
chainctl_requests_total{endpoint="mine",outcome="ok"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "chainctl_requests_total"))
}

func TestCreateCollectors(t *testing.T) {
	_, err := collectors.DefaultRegistry.CreateCollectors(nil)
	require.Error(t, err)

	cs, err := collectors.DefaultRegistry.CreateCollectors(staticStats{})
	require.NoError(t, err)
	assert.Len(t, cs, 2)

	r := collectors.NewRegistry()
	cs, err = r.CreateCollectors(staticStats{})
	require.NoError(t, err)
	assert.Empty(t, cs)
}
