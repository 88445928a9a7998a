// Package ticket validates order tickets and prices them against the
// simulated account. Nothing here sends an order anywhere.
package ticket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultAccountBalance is the simulated buying power.
const DefaultAccountBalance = 125000.0

// QuickQuantities are the preset share amounts offered on the ticket.
var QuickQuantities = []int{10, 25, 50, 100}

var (
	ErrQuantityRequired   = errors.New("please enter quantity")
	ErrLimitPriceRequired = errors.New("please enter limit price")
	ErrStopPriceRequired  = errors.New("please enter stop price")
	ErrInvalidTicket      = errors.New("invalid order ticket")
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderStop   OrderType = "stop"
)

// Request is what the ticket form submits.
type Request struct {
	Symbol     string    `json:"symbol" validate:"required"`
	Side       Side      `json:"side" default:"buy" validate:"oneof=buy sell"`
	Type       OrderType `json:"type" default:"market" validate:"oneof=market limit stop"`
	Quantity   float64   `json:"quantity" validate:"gt=0"`
	LimitPrice float64   `json:"limitPrice" validate:"required_if=Type limit,gte=0"`
	StopPrice  float64   `json:"stopPrice" validate:"required_if=Type stop,gte=0"`
}

// Estimate is the priced ticket.
type Estimate struct {
	Request
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	MaxShares   int64           `json:"maxShares"`
	Affordable  bool            `json:"affordable"`
	Description string          `json:"description"`
}

var validate = validator.New()

// Validate fills defaults into req and checks it.
func Validate(req *Request) error {
	if err := defaults.Set(req); err != nil {
		return fmt.Errorf("apply ticket defaults: %w", err)
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	// report the first problem, in form order
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Quantity":
		return ErrQuantityRequired
	case "LimitPrice":
		return ErrLimitPriceRequired
	case "StopPrice":
		return ErrStopPriceRequired
	}
	return fmt.Errorf("%w: %s failed %s", ErrInvalidTicket, fe.Field(), fe.Tag())
}

// Price validates req and prices it at marketPrice. Limit orders use the
// limit price, market and stop orders the market price.
func Price(req Request, marketPrice, balance float64) (Estimate, error) {
	if err := Validate(&req); err != nil {
		return Estimate{}, err
	}

	price := decimal.NewFromFloat(marketPrice)
	if req.Type == OrderLimit {
		price = decimal.NewFromFloat(req.LimitPrice)
	}
	cost := decimal.NewFromFloat(req.Quantity).Mul(price).Round(2)

	return Estimate{
		Request:     req,
		Price:       price.Round(2),
		Cost:        cost,
		MaxShares:   MaxShares(balance, marketPrice),
		Affordable:  req.Side == SideSell || cost.LessThanOrEqual(decimal.NewFromFloat(balance)),
		Description: describe(req),
	}, nil
}

// MaxShares is how many whole shares balance buys at price; 0 for a
// non-positive price.
func MaxShares(balance, price float64) int64 {
	if price <= 0 || balance <= 0 {
		return 0
	}
	return decimal.NewFromFloat(balance).Div(decimal.NewFromFloat(price)).Floor().IntPart()
}

func describe(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s (%s",
		strings.ToUpper(string(req.Side)),
		decimal.NewFromFloat(req.Quantity).String(),
		req.Symbol,
		strings.ToUpper(string(req.Type)))
	switch req.Type {
	case OrderLimit:
		fmt.Fprintf(&b, " @ $%s", decimal.NewFromFloat(req.LimitPrice).StringFixed(2))
	case OrderStop:
		fmt.Fprintf(&b, " @ $%s", decimal.NewFromFloat(req.StopPrice).StringFixed(2))
	}
	b.WriteString(")")
	return b.String()
}
