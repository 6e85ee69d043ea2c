// cmd/arb/cmd/root.go
package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-arb/internal/config"
	"github.com/rovshanmuradov/solana-arb/internal/logger"
	"github.com/rovshanmuradov/solana-arb/internal/wallet"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arb",
	Short: "Atomic multi-hop arbitrage client",
	Long: `arb builds, simulates and submits 2-hop and 3-hop arbitrage
instructions against the on-chain arbitrage program.

Routes are described in the config file; keys and endpoints can be
overridden with ARB_PRIVATE_KEY, ARB_PROGRAM_ID and ARB_RPC_LIST.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.DebugLogging = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.LogFile = cfg.LogFile
	lc.Development = cfg.DebugLogging
	return logger.New(lc)
}

// resolvePayer prefers an explicit address, then the configured key.
func resolvePayer(cfg *config.Config, explicit string) (solana.PublicKey, error) {
	if explicit != "" {
		pk, err := solana.PublicKeyFromBase58(explicit)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid payer %q: %w", explicit, err)
		}
		return pk, nil
	}
	if cfg.PrivateKey == "" {
		return solana.PublicKey{}, fmt.Errorf("no payer: pass --payer or set ARB_PRIVATE_KEY")
	}
	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return w.PublicKey, nil
}
