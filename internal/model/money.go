package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the storefront's currency when the backend omits one.
const DefaultCurrency = "BDT"

// currencySymbols maps ISO codes to the symbol used in display strings.
var currencySymbols = map[string]string{
	"BDT": "৳",
	"USD": "$",
	"EUR": "€",
	"INR": "₹",
}

// Money is an amount in major units plus its currency code.
// Display formatting is kept separate from the numeric value.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// NewMoney builds Money from a decimal amount, defaulting the currency.
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromInt is shorthand for whole-unit amounts.
func MoneyFromInt(amount int64) Money {
	return NewMoney(decimal.NewFromInt(amount), DefaultCurrency)
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

// Add returns m + o. The currency of m wins; o's is taken when m has none.
func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: cur}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// MinorUnits converts to integer minor units (e.g. poisha, cents).
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

// Display renders the amount as "৳ 1,250" (or "৳ 1,250.50" when fractional).
func (m Money) Display() string {
	symbol, ok := currencySymbols[m.Currency]
	if !ok {
		symbol = m.Currency
		if symbol == "" {
			symbol = currencySymbols[DefaultCurrency]
		}
	}
	return symbol + " " + groupThousands(m.Amount)
}

// MarshalJSON encodes the amount as a JSON number and adds the display form
// for views. The display field is ignored on decode.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency,omitempty"`
		Display  string      `json:"display"`
	}{
		Amount:   json.Number(m.Amount.String()),
		Currency: m.Currency,
		Display:  m.Display(),
	})
}

// UnmarshalJSON accepts the structured form, a bare number, or a legacy
// display string such as "৳ 1,250".
func (m *Money) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*m = Money{}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var raw struct {
			Amount   json.RawMessage `json:"amount"`
			Currency string          `json:"currency"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*m = Money{Amount: parseRawAmount(raw.Amount), Currency: raw.Currency}
		return nil
	}
	*m = Money{Amount: parseRawAmount(data), Currency: DefaultCurrency}
	return nil
}

// parseRawAmount decodes a JSON number or string into a decimal, zero on failure.
func parseRawAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseDisplayAmount(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// displayNumber is the first number in a display string: an optional sign,
// digits grouped by commas or spaces, an optional fraction.
var displayNumber = regexp.MustCompile(`-?\d[\d,\s]*(?:\.\d+)?`)

// ParseDisplayAmount parses a display price. Currency symbols and words around
// the number are ignored, as are whitespace and thousands separators inside
// it. Non-numeric input yields zero.
func ParseDisplayAmount(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, displayNumber.FindString(s))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DiscountedAmount applies a percentage discount and rounds to whole units.
// The rounding is applied even when there is no discount, so a base of
// 999.6 with no discount becomes 1000.
func DiscountedAmount(base decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsZero() {
		return base.Round(0)
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	return base.Mul(factor).Round(0)
}

// groupThousands formats a decimal with comma separators, keeping at most two
// fraction digits and dropping them entirely for whole amounts.
func groupThousands(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" && frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
