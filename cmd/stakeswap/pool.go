package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"stakeSwap/internal/amm"
	"stakeSwap/internal/config"
	"stakeSwap/internal/model"
	"stakeSwap/internal/token"
)

func ownerFlag(cmd *cobra.Command) (common.Address, error) {
	owner, _ := cmd.Flags().GetString("owner")
	return config.ParseAddress("owner", owner)
}

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a liquidity position",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			owner, err := ownerFlag(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			op, err := a.pool.OpenPosition(ctx, owner)
			if err != nil {
				return err
			}
			return printJSON(cmd, op)
		},
	}
	cmd.Flags().String("owner", "", "position owner address")
	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit equal amounts of both assets and stake them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			owner, err := ownerFlag(cmd)
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			op, err := a.pool.AddLiquidity(ctx, owner, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, op)
		},
	}
	cmd.Flags().String("owner", "", "position owner address")
	cmd.Flags().Uint64("amount", 0, "amount of each asset to deposit")
	return cmd
}

func newRemoveLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Withdraw staked liquidity after the lock expires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			owner, err := ownerFlag(cmd)
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			op, err := a.pool.RemoveLiquidity(ctx, owner, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, op)
		},
	}
	cmd.Flags().String("owner", "", "position owner address")
	cmd.Flags().Uint64("amount", 0, "amount of each asset to withdraw")
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one asset for the other",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			owner, err := ownerFlag(cmd)
			if err != nil {
				return err
			}
			rawDir, _ := cmd.Flags().GetString("direction")
			dir, err := model.ParseDirection(rawDir)
			if err != nil {
				return err
			}
			amountIn, _ := cmd.Flags().GetUint64("amount-in")
			minOut, _ := cmd.Flags().GetUint64("min-out")

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			op, err := a.pool.Swap(ctx, owner, dir, amountIn, minOut)
			if err != nil {
				return err
			}
			return printJSON(cmd, op)
		},
	}
	cmd.Flags().String("owner", "", "trader address")
	cmd.Flags().String("direction", "a-to-b", "swap direction (a-to-b, b-to-a)")
	cmd.Flags().Uint64("amount-in", 0, "amount of the input asset")
	cmd.Flags().Uint64("min-out", 0, "minimum acceptable output after fee")
	return cmd
}

type quoteView struct {
	Direction   model.Direction `json:"direction"`
	AmountIn    uint64          `json:"amount_in"`
	ReserveIn   uint64          `json:"reserve_in"`
	ReserveOut  uint64          `json:"reserve_out"`
	GrossOut    uint64          `json:"gross_out"`
	Fee         uint64          `json:"fee"`
	NetOut      uint64          `json:"net_out"`
	SpotPrice   string          `json:"spot_price"`
	Effective   string          `json:"effective_price"`
	PriceImpact string          `json:"price_impact"`
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap against current reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			rawDir, _ := cmd.Flags().GetString("direction")
			dir, err := model.ParseDirection(rawDir)
			if err != nil {
				return err
			}
			amountIn, _ := cmd.Flags().GetUint64("amount-in")

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			q, err := a.pool.Quote(dir, amountIn)
			if err != nil {
				return err
			}
			return printJSON(cmd, quoteView{
				Direction:   q.Direction,
				AmountIn:    q.AmountIn,
				ReserveIn:   q.ReserveIn,
				ReserveOut:  q.ReserveOut,
				GrossOut:    q.GrossOut,
				Fee:         q.Fee,
				NetOut:      q.NetOut,
				SpotPrice:   amm.SpotPrice(q.ReserveIn, q.ReserveOut).String(),
				Effective:   amm.EffectivePrice(q.AmountIn, q.Quote).String(),
				PriceImpact: amm.PriceImpact(q.ReserveIn, q.ReserveOut, q.AmountIn, q.Quote).String(),
			})
		},
	}
	cmd.Flags().String("direction", "a-to-b", "swap direction (a-to-b, b-to-a)")
	cmd.Flags().Uint64("amount-in", 0, "amount of the input asset")
	return cmd
}

type vaultView struct {
	Asset     string `json:"asset"`
	Authority string `json:"authority"`
	Reserve   uint64 `json:"reserve"`
}

type showView struct {
	Seq           uint64            `json:"seq"`
	VaultA        vaultView         `json:"vault_a"`
	VaultB        vaultView         `json:"vault_b"`
	PriceAInB     string            `json:"price_a_in_b"`
	ReceiptMint   string            `json:"receipt_mint"`
	ReceiptSupply uint64            `json:"receipt_supply"`
	Position      *model.Position   `json:"position,omitempty"`
	Balances      map[string]uint64 `json:"balances,omitempty"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show reserves and, with --owner, a position and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			vaultA, vaultB := a.pool.Vaults()
			reserveA, reserveB := a.pool.Reserves()
			poolCfg, err := a.cfg.Pool()
			if err != nil {
				return err
			}

			view := showView{
				Seq:           a.pool.Seq(),
				VaultA:        vaultView{Asset: vaultA.Asset.Hex(), Authority: vaultA.Account.Owner.Hex(), Reserve: reserveA},
				VaultB:        vaultView{Asset: vaultB.Asset.Hex(), Authority: vaultB.Account.Owner.Hex(), Reserve: reserveB},
				PriceAInB:     amm.SpotPrice(reserveA, reserveB).String(),
				ReceiptMint:   poolCfg.ReceiptMint.Hex(),
				ReceiptSupply: a.ledger.Supply(poolCfg.ReceiptMint),
			}

			if rawOwner, _ := cmd.Flags().GetString("owner"); strings.TrimSpace(rawOwner) != "" {
				owner, err := config.ParseAddress("owner", rawOwner)
				if err != nil {
					return err
				}
				if pos, ok := a.pool.Position(owner); ok {
					view.Position = &pos
				}
				view.Balances = map[string]uint64{
					"a":       a.ledger.Balance(token.Account{Mint: poolCfg.MintA, Owner: owner}),
					"b":       a.ledger.Balance(token.Account{Mint: poolCfg.MintB, Owner: owner}),
					"receipt": a.ledger.Balance(token.Account{Mint: poolCfg.ReceiptMint, Owner: owner}),
				}
			}
			return printJSON(cmd, view)
		},
	}
	cmd.Flags().String("owner", "", "optional owner address")
	return cmd
}

func newFundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Mint token A or B to an owner on the external ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext()
			defer stop()

			owner, err := ownerFlag(cmd)
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			asset, _ := cmd.Flags().GetString("asset")

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			poolCfg, err := a.cfg.Pool()
			if err != nil {
				return err
			}
			var mint common.Address
			switch strings.ToLower(strings.TrimSpace(asset)) {
			case "a":
				mint = poolCfg.MintA
			case "b":
				mint = poolCfg.MintB
			default:
				return fmt.Errorf("invalid asset %q, want a or b", asset)
			}

			op, err := a.pool.Fund(ctx, a.issuer, owner, mint, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, op)
		},
	}
	cmd.Flags().String("owner", "", "recipient address")
	cmd.Flags().String("asset", "a", "asset to mint (a, b)")
	cmd.Flags().Uint64("amount", 0, "amount to mint")
	return cmd
}
