package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quantsim/internal/costs"
	"quantsim/internal/engine"
	"quantsim/strategies"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Data sources the run command can load bars from.
const (
	SourceParquet  = "parquet"
	SourcePostgres = "postgres"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for quantsim.
type Config struct {
	Backtest Backtest        `yaml:"backtest"`
	Strategy strategies.Spec `yaml:"strategy"`
	Data     Data            `yaml:"data"`
	Storage  Storage         `yaml:"storage"`
	Server   Server          `yaml:"server"`
	Logging  Logging         `yaml:"logging"`
}

// Backtest holds the simulation parameters. It doubles as the body of an API
// backtest request, hence the json tags.
type Backtest struct {
	Start          string          `yaml:"start" json:"start"` // YYYY-MM-DD
	End            string          `yaml:"end" json:"end"`
	InitialCapital decimal.Decimal `yaml:"initial_capital" json:"initial_capital"`
	CashBuffer     decimal.Decimal `yaml:"cash_buffer" json:"cash_buffer"`
	PartialFills   bool            `yaml:"partial_fills" json:"partial_fills"`
	MinTradeValue  string          `yaml:"min_trade_value" json:"min_trade_value"`
	RiskFreeRate   float64         `yaml:"risk_free_rate" json:"risk_free_rate"`
	VaRAlpha       float64         `yaml:"var_alpha" json:"var_alpha"`
	ShowProgress   bool            `yaml:"show_progress" json:"-"`
	Benchmark      string          `yaml:"benchmark" json:"benchmark"`
	Commission     Commission      `yaml:"commission" json:"commission"`
	Impact         Impact          `yaml:"impact" json:"impact"`
	Slippage       Slippage        `yaml:"slippage" json:"slippage"`

	MaxParticipation  float64 `yaml:"max_participation" json:"max_participation"`
	MaxPositionWeight float64 `yaml:"max_position_weight" json:"max_position_weight"`
	RollingWindow     int     `yaml:"rolling_window" json:"rolling_window"`
}

type Commission struct {
	Type    costs.CommissionType `yaml:"type" json:"type"`
	Rate    decimal.Decimal      `yaml:"rate" json:"rate"`
	Minimum decimal.Decimal      `yaml:"minimum" json:"minimum"`
	Maximum decimal.Decimal      `yaml:"maximum" json:"maximum"`
	Tiers   []Tier               `yaml:"tiers" json:"tiers"`
}

type Tier struct {
	UpTo decimal.Decimal `yaml:"up_to" json:"up_to"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

type Impact struct {
	Type        costs.ImpactType `yaml:"type" json:"type"`
	Coefficient float64          `yaml:"coefficient" json:"coefficient"`
}

type Slippage struct {
	BidAskSpread         float64 `yaml:"bid_ask_spread" json:"bid_ask_spread"`
	VolatilityMultiplier float64 `yaml:"volatility_multiplier" json:"volatility_multiplier"`
}

// Data selects where market data is loaded from.
type Data struct {
	Source      string `yaml:"source"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"`
}

// Storage holds the run history database.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type Server struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxParallel    int      `yaml:"max_parallel"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a Config with every optional field filled in.
func Default() *Config {
	return &Config{
		Backtest: Backtest{
			InitialCapital: decimal.NewFromInt(100_000),
			MinTradeValue:  engine.DefaultMinTradeValue,
			VaRAlpha:       engine.DefaultVaRAlpha,
			Commission:     Commission{Type: costs.CommissionPercentage},
			Impact:         Impact{Type: costs.ImpactNone},
		},
		Data:    Data{Source: SourceParquet, DataDir: "data"},
		Storage: Storage{SQLitePath: "quantsim.db"},
		Server:  Server{Host: "0.0.0.0", Port: 8080, MaxParallel: 4},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.DataDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Data.DatabaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// ---------------------------------------------------------------------------
// Validation and conversion
// ---------------------------------------------------------------------------

// Validate checks the parts of the file the engine does not check itself.
func (c *Config) Validate() error {
	if _, _, err := c.Backtest.Dates(); err != nil {
		return err
	}
	if len(c.Strategy.Symbols) == 0 {
		return fmt.Errorf("%w: strategy.symbols is empty", ErrInvalidConfig)
	}
	switch c.Data.Source {
	case SourceParquet:
		if c.Data.DataDir == "" {
			return fmt.Errorf("%w: data.data_dir is required for parquet", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.Data.DatabaseURL == "" {
			return fmt.Errorf("%w: data.database_url is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data.source %q", ErrInvalidConfig, c.Data.Source)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// Dates parses the start and end dates.
func (b Backtest) Dates() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(b.Start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q: %w", ErrInvalidConfig, b.Start, err)
	}
	end, err := time.Parse(time.DateOnly, strings.TrimSpace(b.End))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q: %w", ErrInvalidConfig, b.End, err)
	}
	return start, end, nil
}

// ToBacktestConfig builds the engine configuration. Range and cost checks
// happen in engine.NewBacktestConfig.
func (b Backtest) ToBacktestConfig() (*engine.BacktestConfig, error) {
	start, end, err := b.Dates()
	if err != nil {
		return nil, err
	}

	opts := []engine.ConfigOption{
		engine.WithRiskFreeRate(b.RiskFreeRate),
		engine.WithProgress(b.ShowProgress),
		engine.WithSlippage(costs.SlippageSpec{
			BidAskSpread:         b.Slippage.BidAskSpread,
			VolatilityMultiplier: b.Slippage.VolatilityMultiplier,
		}),
		engine.WithMaxParticipation(b.MaxParticipation),
		engine.WithMaxPositionWeight(b.MaxPositionWeight),
		engine.WithRollingWindow(b.RollingWindow),
	}
	if b.MinTradeValue != "" {
		v, err := decimal.NewFromString(b.MinTradeValue)
		if err != nil {
			return nil, fmt.Errorf("%w: min_trade_value: %w", ErrInvalidConfig, err)
		}
		opts = append(opts, engine.WithMinTradeValue(v))
	}
	if b.VaRAlpha != 0 {
		opts = append(opts, engine.WithVaRAlpha(b.VaRAlpha))
	}

	return engine.NewBacktestConfig(start, end, b.InitialCapital,
		b.Commission.spec(), costs.ImpactSpec{Type: b.Impact.Type, Coefficient: b.Impact.Coefficient},
		b.CashBuffer, b.PartialFills, opts...)
}

func (c Commission) spec() costs.CommissionSpec {
	spec := costs.CommissionSpec{
		Type:    c.Type,
		Rate:    c.Rate,
		Minimum: c.Minimum,
		Maximum: c.Maximum,
	}
	for _, t := range c.Tiers {
		spec.Tiers = append(spec.Tiers, costs.Tier{UpTo: t.UpTo, Rate: t.Rate})
	}
	return spec
}

// Addr is the listen address of the API server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
