package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"loandash/internal/config"
	"loandash/internal/pkg/apperrors"
)

// Converter translates engine amounts (single implicit unit) into display
// currencies. The rate table is fixed at construction; the engine itself
// never sees a currency code.
type Converter struct {
	base  string
	rates map[string]decimal.Decimal
}

func NewConverter(cfg config.CurrencyConfig) (*Converter, error) {
	base := strings.ToUpper(cfg.Base)
	if base == "" {
		base = "USD"
	}
	rates := make(map[string]decimal.Decimal, len(cfg.Rates)+1)
	rates[base] = decimal.NewFromInt(1)
	for code, raw := range cfg.Rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad rate %q for currency %q", apperrors.ErrInvalidArgument, raw, code)
		}
		if rate.IsNegative() || rate.IsZero() {
			return nil, fmt.Errorf("%w: rate for currency %q must be positive", apperrors.ErrInvalidArgument, code)
		}
		rates[strings.ToUpper(code)] = rate
	}
	return &Converter{base: base, rates: rates}, nil
}

func (c *Converter) Base() string {
	return c.base
}

// Supports reports whether a display code is known; codes are
// case-insensitive.
func (c *Converter) Supports(code string) bool {
	_, ok := c.rates[strings.ToUpper(code)]
	return ok
}

// Convert returns the display value of an engine amount in the given
// currency, rounded to two decimal places.
func (c *Converter) Convert(amount float64, code string) (decimal.Decimal, error) {
	rate, ok := c.rates[strings.ToUpper(code)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrCurrencyUnknown, code)
	}
	return decimal.NewFromFloat(amount).Mul(rate).Round(2), nil
}
