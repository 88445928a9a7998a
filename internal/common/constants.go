package common

import "time"

// Environment variable keys
const (
	EnvConfigFile        = "CONFIG_FILE"
	EnvSymbols           = "SYMBOLS"
	EnvScreenerSymbols   = "SCREENER_SYMBOLS"
	EnvMarketInterval    = "MARKET_INTERVAL"
	EnvPortfolioInterval = "PORTFOLIO_INTERVAL"
	EnvRiskInterval      = "RISK_INTERVAL"
	EnvScreenerInterval  = "SCREENER_INTERVAL"
	EnvChartInterval     = "CHART_INTERVAL"
	EnvScreenMode        = "SCREEN_MODE"
	EnvSeed              = "SEED"
	EnvAccountBalance    = "ACCOUNT_BALANCE"
	EnvFavorites         = "FAVORITES"
	EnvSelectedSymbol    = "SELECTED_SYMBOL"
	EnvHTTPPort          = "HTTP_PORT"
	EnvDataPath          = "DATA_PATH"
	EnvUpstreamURL       = "UPSTREAM_URL"
	EnvRESTTimeout       = "REST_TIMEOUT"
	EnvLogLevel          = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultSymbols           = "AAPL,GOOGL,MSFT,AMZN,TSLA,NVDA,META,NFLX"
	DefaultExtraScreener     = "CRM,ADBE"
	DefaultFavorites         = "AAPL,GOOGL,MSFT"
	DefaultSelectedSymbol    = "AAPL"
	DefaultScreenMode        = "momentum"
	DefaultHTTPPort          = 8080
	DefaultAccountBalance    = 125000.0
	DefaultLogLevel          = "info"
	DefaultMarketInterval    = 2 * time.Second
	DefaultPortfolioInterval = 3 * time.Second
	DefaultRiskInterval      = 5 * time.Second
	DefaultScreenerInterval  = 30 * time.Second
	DefaultChartInterval     = 3 * time.Second
	DefaultRESTTimeout       = 5 * time.Second
)

// Common error messages
const (
	ErrMsgSymbolRequired = "at least one market symbol is required"
	ErrMsgHoldingSymbol  = "every portfolio holding needs a symbol"
)

// Validation constants
const (
	MinInterval    = 100 * time.Millisecond
	MaxInterval    = time.Hour
	MinHTTPPort    = 1024
	MaxHTTPPort    = 65535
	MaxRESTTimeout = time.Minute
)
