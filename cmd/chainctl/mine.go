package chainctl

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/manifest-network/chainctl/internal/mining"
	"github.com/manifest-network/chainctl/internal/utils"
)

var mineCmd = &cobra.Command{
	Use:   "mine [miner-address]",
	Short: "Mine pending transactions into a new block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := newClient()
		if err != nil {
			return err
		}
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()

		miner := args[0]
		outcome, err := mining.NewMiner(api, nil).Mine(cmd.Context(), miner)
		if err != nil {
			return err
		}

		label := utils.Shorten(miner, utils.DefaultVisible)
		if list, err := api.Wallets(cmd.Context()); err != nil {
			slog.Debug("Could not resolve miner name", "error", err)
		} else {
			for _, w := range list {
				if w.Address == miner && w.Name != nil && *w.Name != "" {
					label = *w.Name
				}
			}
		}
		if outcome.Block != nil {
			slog.Debug("Mined block", "index", outcome.Block.Index, "hash", outcome.Block.Hash)
		}
		return out.WriteMessage(outcome.Summary(label))
	},
}

var prizeCmd = &cobra.Command{
	Use:   "prize",
	Short: "Show the current block reward",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := newClient()
		if err != nil {
			return err
		}
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()

		prize, err := mining.NewPrizeLookup(api).Get(cmd.Context())
		if err != nil {
			return err
		}
		return out.WriteMessage(fmt.Sprintf("The current block reward is %s coins.", utils.FormatAmount(prize, utils.DefaultFractionDigits)))
	},
}

var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "List pending transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := newClient()
		if err != nil {
			return err
		}
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()

		txs, err := api.Mempool(cmd.Context())
		if err != nil {
			return errors.WithMessage(err, "failed to fetch mempool")
		}
		return out.WriteTransactions(txs)
	},
}
