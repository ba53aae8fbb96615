// Package money converts between user-typed decimal strings and integer
// minor-unit amounts, and renders minor units for display.
package money

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	dErrors "digibank/pkg/domain-errors"
)

// MinorDigits is the number of fractional digits every supported currency uses.
const MinorDigits = 2

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts an unsigned decimal string with at most two fractional
// digits into minor units. Zero is a valid format; positivity is a business
// rule enforced by callers.
func ParseAmount(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if !amountPattern.MatchString(s) {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a non-negative number with at most 2 decimals")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidAmount, "amount is not a number")
	}
	minor := d.Shift(MinorDigits)
	if minor.GreaterThan(maxMinor) {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount is too large")
	}
	return minor.IntPart(), nil
}

// FormatPlain renders minor units as a bare decimal string ("10.50").
// ParseAmount(FormatPlain(n)) == n for every n >= 0.
func FormatPlain(minor int64) string {
	return decimal.New(minor, -MinorDigits).StringFixed(MinorDigits)
}

// Formatter renders amounts for one locale.
type Formatter struct {
	tag language.Tag
}

// NewFormatter returns a Formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{tag: tag}
}

// ParseLocale resolves a BCP 47 tag, falling back to DefaultLocale.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return DefaultLocale
	}
	return tag
}

// DefaultLocale matches the backend's default currency region.
var DefaultLocale = language.MustParse("en-CA")

var defaultFormatter = NewFormatter(DefaultLocale)

// FormatAmount formats with the default locale. The currency symbol always
// leads the amount, whatever the locale's own placement; digits, grouping and
// the decimal separator follow the locale.
func FormatAmount(minor int64, currencyCode string) string {
	return defaultFormatter.Format(minor, currencyCode)
}

// Format renders minor units as a locale-aware currency string with the
// symbol in front. The value is never converted to floating point, so every
// int64 renders exactly. Unknown currency codes render as "<code> <amount>"
// instead of failing.
func (f *Formatter) Format(minor int64, currencyCode string) (out string) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	defer func() {
		if r := recover(); r != nil {
			out = fallback(minor, code)
		}
	}()

	unit, err := currency.ParseISO(code)
	if err != nil {
		return fallback(minor, code)
	}

	p := message.NewPrinter(f.tag)
	sign := ""
	abs := uint64(minor)
	if minor < 0 {
		sign = "-"
		// -(minor+1) cannot overflow, including at math.MinInt64.
		abs = uint64(-(minor + 1)) + 1
	}
	symbol := p.Sprint(currency.Symbol(unit))
	whole := p.Sprint(number.Decimal(abs / 100))
	frac := p.Sprint(number.Decimal(abs%100, number.MinIntegerDigits(MinorDigits)))
	return sign + symbol + whole + decimalSeparator(p) + frac
}

// decimalSeparator reads the locale's separator off a formatted 0.5.
func decimalSeparator(p *message.Printer) string {
	r := []rune(p.Sprint(number.Decimal(0.5, number.Scale(1))))
	if len(r) < 3 {
		return "."
	}
	return string(r[1 : len(r)-1])
}

func fallback(minor int64, code string) string {
	if code == "" {
		return FormatPlain(minor)
	}
	return code + " " + FormatPlain(minor)
}
