package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"amm_sim/internal/domain"
	"amm_sim/internal/scenario"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수로 일부 값을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Pair struct {
		Address    string `yaml:"address"`
		BaseToken  string `yaml:"base_token"`
		QuoteToken string `yaml:"quote_token"`
	} `yaml:"pair"`

	Engine struct {
		InitialReserve0 decimal.Decimal `yaml:"initial_reserve0"`
		InitialReserve1 decimal.Decimal `yaml:"initial_reserve1"`
		TimeframeSec    int             `yaml:"timeframe_sec"`
		InboxSize       int             `yaml:"inbox_size"`
	} `yaml:"engine"`

	Scenario struct {
		Enabled           bool            `yaml:"enabled"`
		Seed              uint64          `yaml:"seed"`
		Wallets           int             `yaml:"wallets"`
		Steps             int             `yaml:"steps"`
		DurationMS        int64           `yaml:"duration_ms"`
		RoundToMS         int64           `yaml:"round_to_ms"`
		BaseAmount        decimal.Decimal `yaml:"base_amount"`
		QuoteAmount       decimal.Decimal `yaml:"quote_amount"`
		StandardDeviation float64         `yaml:"standard_deviation"`
		Realtime          bool            `yaml:"realtime"`
	} `yaml:"scenario"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the stock demo configuration.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "amm_sim"
	cfg.App.Version = "dev"

	cfg.Pair.Address = domain.DefaultPair.Address
	cfg.Pair.BaseToken = domain.DefaultPair.BaseToken
	cfg.Pair.QuoteToken = domain.DefaultPair.QuoteToken

	cfg.Engine.InitialReserve0 = decimal.NewFromInt(1000)
	cfg.Engine.InitialReserve1 = decimal.NewFromInt(1000)
	cfg.Engine.TimeframeSec = 60
	cfg.Engine.InboxSize = 1024

	cfg.Scenario.Enabled = true
	cfg.Scenario.Seed = 1
	cfg.Scenario.Wallets = 100
	cfg.Scenario.Steps = 100
	cfg.Scenario.DurationMS = 100000
	cfg.Scenario.RoundToMS = scenario.DefaultRoundTo.Milliseconds()
	cfg.Scenario.BaseAmount = decimal.Zero
	cfg.Scenario.QuoteAmount = decimal.NewFromInt(100000)
	cfg.Scenario.StandardDeviation = scenario.DefaultStandardDeviation
	cfg.Scenario.Realtime = false

	cfg.Server.Addr = ":8080"

	cfg.Storage.Enabled = true
	cfg.Storage.Path = "data/amm_sim.db"

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// 파일에 없는 값은 DefaultConfig 값을 유지합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Pair.BaseToken == "" {
		return &domain.ConfigError{Field: "pair.base_token", Err: errors.New("must not be empty")}
	}
	if c.Pair.QuoteToken == "" {
		return &domain.ConfigError{Field: "pair.quote_token", Err: errors.New("must not be empty")}
	}
	if c.Pair.BaseToken == c.Pair.QuoteToken {
		return &domain.ConfigError{Field: "pair.quote_token", Err: errors.New("must differ from base token")}
	}

	if !c.Engine.InitialReserve0.IsPositive() {
		return &domain.ConfigError{Field: "engine.initial_reserve0", Err: errors.New("must be positive")}
	}
	if !c.Engine.InitialReserve1.IsPositive() {
		return &domain.ConfigError{Field: "engine.initial_reserve1", Err: errors.New("must be positive")}
	}
	if c.Engine.TimeframeSec <= 0 {
		return &domain.ConfigError{Field: "engine.timeframe_sec", Err: errors.New("must be positive")}
	}
	if c.Engine.InboxSize < 0 {
		return &domain.ConfigError{Field: "engine.inbox_size", Err: errors.New("must not be negative")}
	}

	if c.Scenario.Enabled {
		if c.Scenario.Wallets <= 0 {
			return &domain.ConfigError{Field: "scenario.wallets", Err: errors.New("must be positive")}
		}
		if c.Scenario.Steps <= 0 {
			return &domain.ConfigError{Field: "scenario.steps", Err: errors.New("must be positive")}
		}
		if c.Scenario.DurationMS <= 0 {
			return &domain.ConfigError{Field: "scenario.duration_ms", Err: errors.New("must be positive")}
		}
		if c.Scenario.RoundToMS <= 0 {
			return &domain.ConfigError{Field: "scenario.round_to_ms", Err: errors.New("must be positive")}
		}
		if c.Scenario.BaseAmount.IsNegative() || c.Scenario.QuoteAmount.IsNegative() {
			return &domain.ConfigError{Field: "scenario.amounts", Err: errors.New("must not be negative")}
		}
		if c.Scenario.StandardDeviation < 0 {
			return &domain.ConfigError{Field: "scenario.standard_deviation", Err: errors.New("must not be negative")}
		}
	}

	if c.Server.Addr == "" {
		return &domain.ConfigError{Field: "server.addr", Err: errors.New("must not be empty")}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &domain.ConfigError{Field: "storage.path", Err: errors.New("required when storage is enabled")}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// TradingPair returns the configured pair descriptor.
func (c *Config) TradingPair() domain.TradingPair {
	return domain.TradingPair{
		Address:    c.Pair.Address,
		BaseToken:  c.Pair.BaseToken,
		QuoteToken: c.Pair.QuoteToken,
	}
}

// ScenarioParams converts the scenario section into generator parameters.
func (c *Config) ScenarioParams() scenario.Params {
	return scenario.Params{
		InitialReserves: scenario.Reserves{
			Reserve0: c.Engine.InitialReserve0.InexactFloat64(),
			Reserve1: c.Engine.InitialReserve1.InexactFloat64(),
		},
		AmountBaseTokenInWallets:  c.Scenario.BaseAmount.InexactFloat64(),
		AmountQuoteTokenInWallets: c.Scenario.QuoteAmount.InexactFloat64(),
		Wallets:                   c.Scenario.Wallets,
		Steps:                     c.Scenario.Steps,
		Duration:                  time.Duration(c.Scenario.DurationMS) * time.Millisecond,
		RoundTo:                   time.Duration(c.Scenario.RoundToMS) * time.Millisecond,
		StandardDeviation:         c.Scenario.StandardDeviation,
		TokenA:                    c.Pair.BaseToken,
		TokenB:                    c.Pair.QuoteToken,
	}
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) error {
	if seed := os.Getenv("AMM_SIM_SEED"); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "AMM_SIM_SEED", Err: err}
		}
		cfg.Scenario.Seed = v
	}
	if addr := os.Getenv("AMM_SIM_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("AMM_SIM_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("AMM_SIM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}
