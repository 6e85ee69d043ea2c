package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/solana-arb/internal/arb/params"
	"github.com/rovshanmuradov/solana-arb/internal/route"
)

var payerAddr string

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the instruction data of the configured route",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRoute()
		if err != nil {
			return err
		}
		data := rt.Params.Instruction()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "opcode:   %d\n", rt.Params.Opcode())
		fmt.Fprintf(out, "hex:      %s\n", hex.EncodeToString(data))
		fmt.Fprintf(out, "base64:   %s\n", base64.StdEncoding.EncodeToString(data))
		fmt.Fprintf(out, "accounts: %d\n", len(rt.Accounts()))
		return nil
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the account metas of the configured route",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRoute()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		idx := 0
		section := func(name string, metas solana.AccountMetaSlice) {
			fmt.Fprintf(out, "# %s\n", name)
			for _, m := range metas {
				fmt.Fprintf(out, "%3d %s %s\n", idx, metaFlags(m), m.PublicKey)
				idx++
			}
		}
		section("header", rt.Header)
		for i, g := range rt.Groups {
			section(fmt.Sprintf("hop %d (%s)", i+1, rt.Params.Hops()[i]), g)
		}
		return nil
	},
}

// swapView is the printable form of a decoded payload.
type swapView struct {
	Opcode            uint8    `yaml:"opcode"`
	Hops              []string `yaml:"hops"`
	IsWsolPool0Buy    bool     `yaml:"is_wsol_pool0_buy"`
	IsMidZeroToOne    *bool    `yaml:"is_mid_zero_to_one,omitempty"`
	IsWsolPool0Sell   bool     `yaml:"is_wsol_pool0_sell"`
	IsSimulate        bool     `yaml:"is_simulate"`
	AmountIn          uint64   `yaml:"amount_in"`
	PumpBaseAmountOut uint64   `yaml:"pump_base_amount_out"`
	MinProfit         uint32   `yaml:"min_profit"`
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode instruction data (opcode included)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(args[0]), "0x"))
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}
		p, err := params.DecodeInstruction(data)
		if err != nil {
			return err
		}
		view := swapView{
			Opcode:            p.Opcode(),
			IsWsolPool0Buy:    p.IsWsolPool0Buy,
			IsWsolPool0Sell:   p.IsWsolPool0Sell,
			IsSimulate:        p.IsSimulate,
			AmountIn:          p.AmountIn,
			PumpBaseAmountOut: p.PumpBaseAmountOut,
			MinProfit:         p.MinProfit,
		}
		for _, h := range p.Hops() {
			view.Hops = append(view.Hops, h.String())
		}
		if p.ThreeHop {
			mid := p.IsMidZeroToOne
			view.IsMidZeroToOne = &mid
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(view)
	},
}

// metaFlags renders signer and writable bits as "sw", "-w", "s-" or "--".
func metaFlags(m *solana.AccountMeta) string {
	flags := []byte("--")
	if m.IsSigner {
		flags[0] = 's'
	}
	if m.IsWritable {
		flags[1] = 'w'
	}
	return string(flags)
}

func buildRoute() (*route.Route, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	payer, err := resolvePayer(cfg, payerAddr)
	if err != nil {
		return nil, err
	}
	return route.NewBuilder(nil, zap.NewNop()).Build(payer, cfg.Route)
}

func init() {
	for _, c := range []*cobra.Command{encodeCmd, accountsCmd} {
		c.Flags().StringVar(&payerAddr, "payer", "", "payer address (defaults to the configured wallet)")
	}
	rootCmd.AddCommand(encodeCmd, accountsCmd, decodeCmd)
}
