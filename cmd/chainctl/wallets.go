package chainctl

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/wallets"
)

var walletsCmd = &cobra.Command{
	Use:   "wallets",
	Short: "List, create and inspect wallets",
}

var walletsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets with confirmed and pending balances",
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

		book := wallets.NewBook(api, wallets.WithProgress(newProgress("Fetching balances...")))
		report, err := book.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		if report.Failed() {
			slog.Warn("Some balances could not be refreshed", "error", report.Err())
		}
		return out.WriteWallets(book.Wallets())
	},
}

var walletsCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a wallet",
	Args:  cobra.MaximumNArgs(1),
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

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		w, err := wallets.NewBook(api).Create(cmd.Context(), name)
		if err != nil {
			return err
		}
		return out.WriteWallets([]models.WalletBalance{{Wallet: w}})
	},
}

var walletsBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show the confirmed and pending balance of an address",
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

		address := args[0]
		balance, err := api.WalletBalance(cmd.Context(), address)
		if err != nil {
			return errors.WithMessage(err, "failed to fetch balance")
		}

		entry := models.WalletBalance{Wallet: models.Wallet{Address: address, Balance: &balance}}
		if pending, err := api.PendingBalances(cmd.Context(), []string{address}); err != nil {
			slog.Warn("Pending balance fetch failed", "address", address, "error", err)
		} else if value, ok := pending[address]; ok {
			entry.Pending = &value
		}
		return out.WriteWallets([]models.WalletBalance{entry})
	},
}

// newProgress returns a progress callback drawing a bar on stderr. The bar is
// created on the first report, once the total is known.
func newProgress(description string) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}
		_ = bar.Set(done)
	}
}

func init() {
	walletsCmd.AddCommand(walletsListCmd)
	walletsCmd.AddCommand(walletsCreateCmd)
	walletsCmd.AddCommand(walletsBalanceCmd)
}
