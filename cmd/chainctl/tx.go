package chainctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/transfer"
	"github.com/manifest-network/chainctl/internal/wallets"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Send transactions",
}

var txSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign and approve a transfer",
	Long: `Send moves coins between two wallets. The transfer goes through the same
stages as an interactive send: participants and amount are checked against the
sender's spendable balance, the private key is confirmed, the service builds
and signs the transaction, and the signed bundle is approved into the mempool.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadTransferConfigFromCLI()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid transfer configuration: %w", err)
		}

		api, _, err := newClient()
		if err != nil {
			return err
		}
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()

		ctx := cmd.Context()
		book := wallets.NewBook(api)
		report, err := book.Refresh(ctx)
		if err != nil {
			return err
		}
		if report.Failed() {
			slog.Warn("Some balances could not be refreshed", "error", report.Err())
		}

		w := transfer.New(api, book.Wallets(), transfer.WithRefresh(func(ctx context.Context) error {
			_ = book.RefreshBalances(ctx, []string{cfg.From, cfg.To})
			return nil
		}))

		if err := w.SelectSender(cfg.From); err != nil {
			return err
		}
		if err := w.SelectReceiver(cfg.To); err != nil {
			return err
		}
		w.SetAmount(cfg.Amount)
		w.SetFee(cfg.Fee)
		w.SetNote(cfg.Note)
		if err := w.Next(); err != nil {
			return err
		}

		switch {
		case cfg.GenerateKey:
			w.GenerateKey()
			if w.WeakKey() {
				slog.Warn("Generated key is not cryptographically strong")
			}
		case cfg.PrivateKey != "":
			w.SetKey(cfg.PrivateKey)
		}
		if w.KeyWarning() {
			slog.Warn("Sender has no private key, the service signs without one", "sender", cfg.From)
		}
		if err := w.Next(); err != nil {
			return err
		}

		if _, err := w.Build(ctx); err != nil {
			return err
		}
		slog.Debug("Transaction signed", "sender", book.Label(cfg.From), "receiver", book.Label(cfg.To))
		if err := w.Next(); err != nil {
			return err
		}

		message, err := w.Approve(ctx)
		if err != nil {
			return err
		}
		return out.WriteMessage(message)
	},
}

func init() {
	txSendCmd.Flags().String("from", "", "Sender address")
	txSendCmd.Flags().String("to", "", "Receiver address")
	txSendCmd.Flags().Float64("amount", 0, "Amount to send")
	txSendCmd.Flags().Float64("fee", 0, "Transaction fee")
	txSendCmd.Flags().String("note", "", "Optional note")
	txSendCmd.Flags().String("private-key", "", "Sign with this private key instead of the wallet's own")
	txSendCmd.Flags().Bool("generate-key", false, "Sign with a freshly generated key")
	txSendCmd.MarkFlagsMutuallyExclusive("private-key", "generate-key")

	if err := viper.BindPFlags(txSendCmd.Flags()); err != nil {
		slog.Error("Failed to bind txSendCmd flags", "error", err)
	}

	txCmd.AddCommand(txSendCmd)
}
