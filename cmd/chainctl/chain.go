package chainctl

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/output"
	"github.com/manifest-network/chainctl/internal/store"
)

var errChainInvalid = errors.New("chain is invalid")

// chainSession bundles what the chain commands share: a loaded reconciler and
// an output handler.
type chainSession struct {
	source string
	cfg    config.ChainConfig
	rec    *chain.Reconciler
	out    output.OutputHandler

	mu      sync.Mutex
	pushErr error
}

func openChain(cmd *cobra.Command) (*chainSession, error) {
	api, clientCfg, err := newClient()
	if err != nil {
		return nil, err
	}
	cfg := config.LoadChainConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain configuration: %w", err)
	}
	out, err := newOutput(cmd)
	if err != nil {
		return nil, err
	}

	s := &chainSession{source: clientCfg.BaseURL, cfg: cfg, out: out}
	s.rec = chain.NewReconciler(api,
		chain.WithDebounce(cfg.Debounce),
		chain.WithPushErrorHandler(func(index int, err error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.pushErr = errors.Join(s.pushErr, fmt.Errorf("block #%d: %w", index, err))
		}),
	)

	if err := s.rec.Load(cmd.Context()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *chainSession) Close() {
	_ = s.rec.Close()
	_ = s.out.Close()
}

func (s *chainSession) pushError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushErr
}

func (s *chainSession) view() output.ChainView {
	return output.ChainView{
		Blocks:  s.rec.Edited(),
		Invalid: s.rec.InvalidBlocks(),
		Dirty:   s.rec.Dirty(),
	}
}

func (s *chainSession) openStore() (*store.SnapshotStore, error) {
	return store.OpenSnapshotStore(s.cfg.DBPath)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid block index: %s", arg)
	}
	return index, nil
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Inspect, edit, validate and remine the block list",
}

var chainShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if viper.GetBool("validate") {
			verdict, err := s.rec.Validate(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.out.WriteChain(s.view()); err != nil {
				return err
			}
			return s.out.WriteVerdict(verdict)
		}
		return s.out.WriteChain(s.view())
	},
}

var chainValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ask the service to validate the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		verdict, err := s.rec.Validate(cmd.Context())
		if err != nil {
			return err
		}
		if err := s.out.WriteVerdict(verdict); err != nil {
			return err
		}
		if !verdict.Valid && viper.GetBool("fail-on-invalid") {
			return errChainInvalid
		}
		return nil
	},
}

var chainEditCmd = &cobra.Command{
	Use:   "edit [index] [previous-hash]",
	Short: "Change the previous hash of a block",
	Long: `Edit changes the previous hash of a block on the service. The chain as it
was before the first edit is kept in the snapshot database so that
"chain restore" can undo the edits later.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		db, err := s.openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.LoadChain(s.source); errors.Is(err, store.ErrNoSnapshot) {
			if err := db.SaveChain(s.source, s.rec.Loaded()); err != nil {
				return err
			}
			slog.Info("Saved chain snapshot", "source", s.source, "blocks", len(s.rec.Loaded()))
		} else if err != nil {
			return err
		}

		if err := s.rec.SetPreviousHash(index, args[1]); err != nil {
			return err
		}
		if err := s.rec.WaitIdle(cmd.Context()); err != nil {
			return err
		}
		if err := s.pushError(); err != nil {
			return fmt.Errorf("failed to update block: %w", err)
		}
		return s.out.WriteMessage(fmt.Sprintf("Block #%d previous hash set to %s.", index, args[1]))
	},
}

var chainRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Undo block edits made with chain edit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		db, err := s.openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		snapshot, err := db.LoadChain(s.source)
		if errors.Is(err, store.ErrNoSnapshot) {
			return s.out.WriteMessage("Nothing to restore.")
		}
		if err != nil {
			return err
		}

		s.rec.Rebase(snapshot.Blocks)
		dirty := s.rec.Dirty()
		if err := s.rec.Restore(cmd.Context()); err != nil {
			return fmt.Errorf("failed to restore blocks: %w", err)
		}
		if err := db.DeleteChain(s.source); err != nil {
			return err
		}
		return s.out.WriteMessage(fmt.Sprintf("Restored %d block(s).", len(dirty)))
	},
}

var chainRemineCmd = &cobra.Command{
	Use:   "remine [index]",
	Short: "Re-mine a block, then reload and validate the chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		s, err := openChain(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		verdict, err := s.rec.Remine(cmd.Context(), index)
		if err != nil {
			return err
		}
		if err := s.out.WriteMessage(fmt.Sprintf("Block #%d re-mined.", index)); err != nil {
			return err
		}
		return s.out.WriteVerdict(verdict)
	},
}

func init() {
	chainShowCmd.Flags().Bool("validate", false, "Validate the chain and mark invalid blocks")
	if err := viper.BindPFlags(chainShowCmd.Flags()); err != nil {
		slog.Error("Failed to bind chainShowCmd flags", "error", err)
	}

	chainValidateCmd.Flags().Bool("fail-on-invalid", false, "Exit with an error when the chain is invalid")
	if err := viper.BindPFlags(chainValidateCmd.Flags()); err != nil {
		slog.Error("Failed to bind chainValidateCmd flags", "error", err)
	}

	chainCmd.AddCommand(chainShowCmd)
	chainCmd.AddCommand(chainValidateCmd)
	chainCmd.AddCommand(chainEditCmd)
	chainCmd.AddCommand(chainRestoreCmd)
	chainCmd.AddCommand(chainRemineCmd)
	chainCmd.AddCommand(chainWatchCmd)
}
