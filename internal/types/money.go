// README: Money value object. Amounts are integer minor units (cents).
package types

import (
	"fmt"
	"math"
)

const DefaultCurrency = "USD"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Cents converts a decimal amount to Money, rounding half-up to the cent.
func Cents(v float64) Money {
	return Money{Amount: int64(math.Floor(v*100 + 0.5)), Currency: DefaultCurrency}
}

func (m Money) Decimal() float64 {
	return float64(m.Amount) / 100
}

func (m Money) String() string {
	sign := ""
	n := m.Amount
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, n/100, n%100, m.Currency)
}
