package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied when a group is created without one.
const DefaultCurrency = "EUR"

// Money is a monetary quantity tagged with an ISO currency code.
// Amounts are fixed-precision decimals; a Money value may be negative
// (a balance legitimately goes below zero when expenses exceed
// contributions). Arithmetic assumes both operands share a currency;
// mixing currencies is a caller error and is not auto-converted.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

func Zero(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Cmp orders by numeric value only.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Format renders the amount for display with its currency symbol,
// e.g. "€70.00".
func (m Money) Format() string {
	return fmt.Sprintf("%s%s", CurrencySymbol(m.Currency), m.Amount.StringFixed(2))
}

func CurrencySymbol(code string) string {
	switch code {
	case "USD":
		return "$"
	case "GBP":
		return "£"
	case "EUR":
		return "€"
	default:
		return "€"
	}
}
