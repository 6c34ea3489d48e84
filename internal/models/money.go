package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ParseAmount leniently coerces an arbitrary JSON value into an optional
// monetary amount rounded to two decimal places, half up. Anything that is
// not a usable number (null, "", "n/a", objects) comes back invalid rather
// than failing the computation; upstream extraction is imperfect and a bad
// field should cost us one value, not the whole receipt.
func ParseAmount(value any) decimal.NullDecimal {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}
	case float64:
		return validAmount(decimal.NewFromFloat(v))
	case int:
		return validAmount(decimal.NewFromInt(int64(v)))
	case int64:
		return validAmount(decimal.NewFromInt(v))
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	case decimal.Decimal:
		return validAmount(v)
	case decimal.NullDecimal:
		if !v.Valid {
			return decimal.NullDecimal{}
		}
		return validAmount(v.Decimal)
	}
	return decimal.NullDecimal{}
}

func parseAmountString(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return validAmount(d)
}

func validAmount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: RoundCents(d), Valid: true}
}

// RoundCents rounds to two decimal places with ties away from zero, the
// rounding used at every step that produces a stored amount.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
