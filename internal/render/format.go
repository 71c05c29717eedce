package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dateLayout = "02 Jan 2006"

// CurrencyScale returns the standard ISO 4217 minor-unit digits for a
// currency code. Cash rounding tables are the wrong source here: they report
// zero decimals for currencies like TWD and HUF whose standard minor unit is
// two, which would truncate invoice cents. Unknown codes fall back to two
// digits.
func CurrencyScale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// currencySymbols maps the codes the service commonly sees to display symbols.
// Codes outside the map render as "CODE amount".
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF ",
	"AUD": "A$",
	"CAD": "C$",
	"IDR": "Rp",
}

// FormatMoney renders an amount with its currency symbol using the owner's
// locale for digit grouping. The amount must already be rounded to the
// currency's minor units; it never goes through binary floating point.
func FormatMoney(amount decimal.Decimal, code, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	scale := CurrencyScale(code)
	p := message.NewPrinter(tag)
	formatted := localizeFixed(p, amount.StringFixed(scale))
	if sym, ok := currencySymbols[code]; ok {
		return sym + formatted
	}
	return code + " " + formatted
}

// localizeFixed applies the locale's digit grouping and decimal mark to an
// exact fixed-point string. The integer digits travel as int64, which covers
// any total the computation engine can produce; on overflow the plain fixed
// string is returned unlocalized.
func localizeFixed(p *message.Printer, fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intDigits, fracDigits, hasFrac := strings.Cut(fixed, ".")
	units, err := strconv.ParseInt(intDigits, 10, 64)
	if err != nil {
		return sign + fixed
	}
	grouped := p.Sprintf("%v", number.Decimal(units))
	if !hasFrac {
		return sign + grouped
	}
	return sign + grouped + decimalMark(p) + fracDigits
}

// decimalMark reads the locale's decimal separator off a formatted zero with
// one forced fraction digit ("0.0" in en, "0,0" in de).
func decimalMark(p *message.Printer) string {
	s := p.Sprintf("%v", number.Decimal(int64(0), number.MinFractionDigits(1)))
	if len(s) >= 3 {
		return s[1 : len(s)-1]
	}
	return "."
}

// FormatQuantity renders a quantity without trailing zero noise.
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}

// FormatDate renders t in the given IANA timezone. Zero times render empty.
func FormatDate(t time.Time, timezone string) string {
	if t.IsZero() {
		return ""
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}
