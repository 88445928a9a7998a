package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"market-dashboard/internal/common"
	"market-dashboard/internal/engine"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	Symbols           []string
	ScreenerSymbols   []string
	MarketInterval    time.Duration
	PortfolioInterval time.Duration
	RiskInterval      time.Duration
	ScreenerInterval  time.Duration
	ChartInterval     time.Duration
	ScreenMode        engine.ScreenMode
	Seed              int64
	AccountBalance    float64
	Holdings          []engine.Holding
	Favorites         []string
	SelectedSymbol    string
	HTTPPort          int
	DataPath          string
	UpstreamURL       string
	RESTTimeout       time.Duration
	LogLevel          string
}

type HoldingConfig struct {
	Symbol       string  `yaml:"symbol"`
	Shares       float64 `yaml:"shares"`
	AvgPrice     float64 `yaml:"avgPrice"`
	CurrentPrice float64 `yaml:"currentPrice"`
	Allocation   float64 `yaml:"allocation"`
}

type ConfigFile struct {
	Market struct {
		Symbols         []string `yaml:"symbols"`
		ScreenerSymbols []string `yaml:"screenerSymbols"`
		Seed            int64    `yaml:"seed"`
		UpstreamURL     string   `yaml:"upstreamURL"`
		RESTTimeout     string   `yaml:"restTimeout"`
	} `yaml:"market"`

	Intervals struct {
		Market    string `yaml:"market"`
		Portfolio string `yaml:"portfolio"`
		Risk      string `yaml:"risk"`
		Screener  string `yaml:"screener"`
		Chart     string `yaml:"chart"`
	} `yaml:"intervals"`

	Screener struct {
		Mode string `yaml:"mode"`
	} `yaml:"screener"`

	Portfolio struct {
		AccountBalance float64         `yaml:"accountBalance"`
		Holdings       []HoldingConfig `yaml:"holdings"`
	} `yaml:"portfolio"`

	Watchlist struct {
		Favorites []string `yaml:"favorites"`
		Selected  string   `yaml:"selected"`
	} `yaml:"watchlist"`

	System struct {
		HTTPPort int    `yaml:"httpPort"`
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// DefaultHoldings is the demo portfolio used when none is configured.
var DefaultHoldings = []engine.Holding{
	{Symbol: "AAPL", Shares: 50, AvgPrice: 150.00, CurrentPrice: 155.00, Allocation: 35},
	{Symbol: "GOOGL", Shares: 20, AvgPrice: 2500.00, CurrentPrice: 2580.00, Allocation: 25},
	{Symbol: "MSFT", Shares: 30, AvgPrice: 300.00, CurrentPrice: 310.00, Allocation: 20},
	{Symbol: "AMZN", Shares: 15, AvgPrice: 3200.00, CurrentPrice: 3150.00, Allocation: 15},
	{Symbol: "TSLA", Shares: 10, AvgPrice: 800.00, CurrentPrice: 820.00, Allocation: 5},
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	symbols := getListFromEnvOrConfig(common.EnvSymbols, config.Market.Symbols, splitList(common.DefaultSymbols))
	mode, err := engine.ParseScreenMode(getEnvOrDefault(common.EnvScreenMode, orDefault(config.Screener.Mode, common.DefaultScreenMode)))
	if err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	settings := Settings{
		Symbols:           symbols,
		ScreenerSymbols:   getListFromEnvOrConfig(common.EnvScreenerSymbols, config.Market.ScreenerSymbols, defaultScreenerSymbols(symbols)),
		MarketInterval:    getDurationFromEnvOrConfig(common.EnvMarketInterval, config.Intervals.Market, common.DefaultMarketInterval),
		PortfolioInterval: getDurationFromEnvOrConfig(common.EnvPortfolioInterval, config.Intervals.Portfolio, common.DefaultPortfolioInterval),
		RiskInterval:      getDurationFromEnvOrConfig(common.EnvRiskInterval, config.Intervals.Risk, common.DefaultRiskInterval),
		ScreenerInterval:  getDurationFromEnvOrConfig(common.EnvScreenerInterval, config.Intervals.Screener, common.DefaultScreenerInterval),
		ChartInterval:     getDurationFromEnvOrConfig(common.EnvChartInterval, config.Intervals.Chart, common.DefaultChartInterval),
		ScreenMode:        mode,
		Seed:              getInt64FromEnvOrConfig(common.EnvSeed, config.Market.Seed),
		AccountBalance:    getFloatFromEnvOrConfig(common.EnvAccountBalance, config.Portfolio.AccountBalance, common.DefaultAccountBalance),
		Holdings:          holdingsOrDefault(config.Portfolio.Holdings),
		Favorites:         getListFromEnvOrConfig(common.EnvFavorites, config.Watchlist.Favorites, splitList(common.DefaultFavorites)),
		SelectedSymbol:    getEnvOrDefault(common.EnvSelectedSymbol, orDefault(config.Watchlist.Selected, common.DefaultSelectedSymbol)),
		HTTPPort:          getIntFromEnvOrConfig(common.EnvHTTPPort, config.System.HTTPPort, common.DefaultHTTPPort),
		DataPath:          getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		UpstreamURL:       getEnvOrDefault(common.EnvUpstreamURL, config.Market.UpstreamURL),
		RESTTimeout:       getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.Market.RESTTimeout, common.DefaultRESTTimeout),
		LogLevel:          getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	mode, err := engine.ParseScreenMode(getEnvOrDefault(common.EnvScreenMode, common.DefaultScreenMode))
	if err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	symbols := splitOrDefault(os.Getenv(common.EnvSymbols), splitList(common.DefaultSymbols))
	settings := Settings{
		Symbols:           symbols,
		ScreenerSymbols:   splitOrDefault(os.Getenv(common.EnvScreenerSymbols), defaultScreenerSymbols(symbols)),
		MarketInterval:    getDurationOrDefault(common.EnvMarketInterval, common.DefaultMarketInterval),
		PortfolioInterval: getDurationOrDefault(common.EnvPortfolioInterval, common.DefaultPortfolioInterval),
		RiskInterval:      getDurationOrDefault(common.EnvRiskInterval, common.DefaultRiskInterval),
		ScreenerInterval:  getDurationOrDefault(common.EnvScreenerInterval, common.DefaultScreenerInterval),
		ChartInterval:     getDurationOrDefault(common.EnvChartInterval, common.DefaultChartInterval),
		ScreenMode:        mode,
		Seed:              getInt64OrDefault(common.EnvSeed, 0), // 0 means time based
		AccountBalance:    getFloatOrDefault(common.EnvAccountBalance, common.DefaultAccountBalance),
		Holdings:          append([]engine.Holding(nil), DefaultHoldings...),
		Favorites:         splitOrDefault(os.Getenv(common.EnvFavorites), splitList(common.DefaultFavorites)),
		SelectedSymbol:    getEnvOrDefault(common.EnvSelectedSymbol, common.DefaultSelectedSymbol),
		HTTPPort:          getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		DataPath:          os.Getenv(common.EnvDataPath), // optional
		UpstreamURL:       os.Getenv(common.EnvUpstreamURL),
		RESTTimeout:       getDurationOrDefault(common.EnvRESTTimeout, common.DefaultRESTTimeout),
		LogLevel:          getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Intervals maps each timer name to its period.
func (s *Settings) Intervals() map[string]time.Duration {
	return map[string]time.Duration{
		"market":    s.MarketInterval,
		"portfolio": s.PortfolioInterval,
		"risk":      s.RiskInterval,
		"screener":  s.ScreenerInterval,
		"chart":     s.ChartInterval,
	}
}

func defaultScreenerSymbols(symbols []string) []string {
	out := append([]string(nil), symbols...)
	for _, extra := range splitList(common.DefaultExtraScreener) {
		if !contains(out, extra) {
			out = append(out, extra)
		}
	}
	return out
}

func holdingsOrDefault(configured []HoldingConfig) []engine.Holding {
	if len(configured) == 0 {
		return append([]engine.Holding(nil), DefaultHoldings...)
	}
	out := make([]engine.Holding, len(configured))
	for i, h := range configured {
		out[i] = engine.Holding{
			Symbol:       h.Symbol,
			Shares:       h.Shares,
			AvgPrice:     h.AvgPrice,
			CurrentPrice: h.CurrentPrice,
			Allocation:   h.Allocation,
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func splitOrDefault(v string, def []string) []string {
	if list := splitList(v); len(list) > 0 {
		return list
	}
	return def
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getListFromEnvOrConfig(key string, configValue, defaultValue []string) []string {
	if env := splitList(os.Getenv(key)); len(env) > 0 {
		return env
	}
	if len(configValue) > 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if len(settings.Symbols) == 0 {
		return fmt.Errorf(common.ErrMsgSymbolRequired)
	}
	if settings.SelectedSymbol == "" {
		return fmt.Errorf("selected symbol cannot be empty")
	}

	intervals := settings.Intervals()
	for _, name := range []string{"market", "portfolio", "risk", "screener", "chart"} {
		d := intervals[name]
		if d < common.MinInterval || d > common.MaxInterval {
			return fmt.Errorf("%s interval must be between %v and %v, got %v", name, common.MinInterval, common.MaxInterval, d)
		}
	}
	if settings.RESTTimeout <= 0 || settings.RESTTimeout > common.MaxRESTTimeout {
		return fmt.Errorf("REST timeout must be between 0 and %v, got %v", common.MaxRESTTimeout, settings.RESTTimeout)
	}

	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}
	if settings.AccountBalance <= 0 {
		return fmt.Errorf("account balance must be positive, got %f", settings.AccountBalance)
	}

	for i, h := range settings.Holdings {
		if h.Symbol == "" {
			return fmt.Errorf("holding %d: %s", i, common.ErrMsgHoldingSymbol)
		}
		if h.Shares < 0 || h.AvgPrice < 0 || h.CurrentPrice < 0 {
			return fmt.Errorf("holding %s: shares and prices cannot be negative", h.Symbol)
		}
	}

	return nil
}
