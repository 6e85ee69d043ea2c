// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the client-side configuration of the arbitrage program.
type Config struct {
	RPCList                  []string    `mapstructure:"rpc_list"`
	ProgramID                string      `mapstructure:"program_id"`
	PrivateKey               string      `mapstructure:"private_key"`
	ComputeUnits             uint32      `mapstructure:"compute_units"`
	PriorityFeeMicroLamports uint64      `mapstructure:"priority_fee_micro_lamports"`
	SkipPreflight            bool        `mapstructure:"skip_preflight"`
	Retries                  int         `mapstructure:"retries"`
	DebugLogging             bool        `mapstructure:"debug_logging"`
	LogFile                  string      `mapstructure:"log_file"`
	MetricsAddr              string      `mapstructure:"metrics_addr"`
	Route                    RouteConfig `mapstructure:"route"`
}

// RouteConfig describes one arbitrage chain. Hops are listed in execution
// order: buy, optional mid, sell.
type RouteConfig struct {
	AmountIn          uint64      `mapstructure:"amount_in" yaml:"amount_in"`
	PumpBaseAmountOut uint64      `mapstructure:"pump_base_amount_out" yaml:"pump_base_amount_out"`
	MinProfit         uint32      `mapstructure:"min_profit" yaml:"min_profit"`
	Simulate          bool        `mapstructure:"simulate" yaml:"simulate"`
	TargetMint        string      `mapstructure:"target_mint" yaml:"target_mint"`
	TargetToken2022   bool        `mapstructure:"target_token_2022" yaml:"target_token_2022"`
	SecondMint        string      `mapstructure:"second_mint" yaml:"second_mint,omitempty"`
	SecondToken2022   bool        `mapstructure:"second_token_2022" yaml:"second_token_2022,omitempty"`
	Hops              []HopConfig `mapstructure:"hops" yaml:"hops"`
}

// HopConfig names the pool family of a hop and its protocol accounts in the
// order the family expects. OrderFlag is the WSOL-is-first flag on buy and
// sell hops and the zero-to-one flag on the mid hop.
type HopConfig struct {
	Pool      string   `mapstructure:"pool" yaml:"pool"`
	OrderFlag bool     `mapstructure:"order_flag" yaml:"order_flag"`
	Accounts  []string `mapstructure:"accounts" yaml:"accounts"`
}

const (
	DefaultComputeUnits             = 400_000
	DefaultPriorityFeeMicroLamports = 1_000
	DefaultRetries                  = 3
	DefaultLogFile                  = "arb.log"
	MaxComputeUnits                 = 1_400_000
	EnvPrefix                       = "ARB"
)

// LoadConfig reads path, applies a local .env and ARB_* overrides, then
// validates the result.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"compute_units":               DefaultComputeUnits,
		"priority_fee_micro_lamports": DefaultPriorityFeeMicroLamports,
		"retries":                     DefaultRetries,
		"log_file":                    DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := checkStringKeys(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

// Base58 keys made only of digits parse as YAML numbers, which viper then
// stringifies into a different value.
var stringKeys = []string{"program_id", "private_key", "route.target_mint", "route.second_mint"}

func checkStringKeys(v *viper.Viper) error {
	for _, key := range stringKeys {
		if err := requireString(key, v.Get(key)); err != nil {
			return err
		}
	}
	hops, _ := v.Get("route.hops").([]interface{})
	for i, raw := range hops {
		hop, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		accounts, _ := hop["accounts"].([]interface{})
		for j, acc := range accounts {
			if err := requireString(fmt.Sprintf("route.hops[%d].accounts[%d]", i, j), acc); err != nil {
				return err
			}
		}
	}
	return nil
}

func requireString(key string, value interface{}) error {
	switch value.(type) {
	case nil, string:
		return nil
	default:
		return fmt.Errorf("%s must be a quoted string, got %T %v", key, value, value)
	}
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.ComputeUnits == 0 || cfg.ComputeUnits > MaxComputeUnits {
		return fmt.Errorf("compute_units must be in 1..%d", MaxComputeUnits)
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

// Program returns the configured program id. LoadConfig has already checked it.
func (c *Config) Program() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if key := v.GetString("PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = key
	}
	if id := v.GetString("PROGRAM_ID"); id != "" {
		cfg.ProgramID = id
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		var cleanRPCs []string
		for _, rpc := range strings.Split(envRPCList, ",") {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
}
