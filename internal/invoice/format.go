package invoice

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the canonical on-disk date layout (rendered uppercase, e.g. 05-JAN-2024)
const DateLayout = "02-Jan-2006"

// dateTimeLayout covers extraction payloads that carry a time of day
const dateTimeLayout = "02-Jan-2006 3:04 PM"

// amountPrinter renders amounts with en-US thousands grouping
var amountPrinter = message.NewPrinter(language.English)

// round2 rounds x to 2 decimal places
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// normalizeMonthCase rewrites the month abbreviation of a DD-MMM-YYYY string
// into the mixed case time.Parse expects. Input that doesn't look like a
// stored date is returned unchanged.
func normalizeMonthCase(s string) string {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 || len(parts[1]) != 3 {
		return s
	}
	m := parts[1]
	parts[1] = strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	return strings.Join(parts, "-")
}

// ParseStoredDate parses a canonical DD-MMM-YYYY string, tolerating any month
// abbreviation casing and an optional h:mm AM/PM suffix.
func ParseStoredDate(s string) (time.Time, error) {
	s = normalizeMonthCase(strings.TrimSpace(s))
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, s)
}

// FormatDate re-renders a stored date string in display form (uppercased
// month, time of day preserved when present). Unparseable input is returned
// unchanged rather than erroring.
func FormatDate(raw string) string {
	t, err := ParseStoredDate(raw)
	if err != nil {
		return raw
	}
	out := strings.ToUpper(t.Format(DateLayout))
	if t.Hour() != 0 || t.Minute() != 0 {
		out += t.Format(" 3:04 PM")
	}
	return out
}

// ParseDisplayDate converts a date-picker value (YYYY-MM-DD) into the
// canonical DD-MMM-YYYY form. Unparseable input is returned unchanged.
func ParseDisplayDate(display string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(display))
	if err != nil {
		return display
	}
	return strings.ToUpper(t.Format(DateLayout))
}

// FormatFigures renders an amount with two fractional digits and thousands
// separators, e.g. 1234.5 -> "1,234.50".
func FormatFigures(amount float64) string {
	return amountPrinter.Sprintf("%.2f", amount)
}

// FormatAmount float-coerces a raw value and formats it; coercion failure
// falls back to the raw input. Negative and zero amounts format normally.
func FormatAmount(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return FormatFigures(f)
}

// FormatCurrency prefixes a formatted amount with the currency symbol. An
// empty symbol yields a leading space, which is cosmetic and acceptable.
func FormatCurrency(amount float64, symbol string) string {
	return symbol + " " + FormatFigures(amount)
}

// CapitalizeWords lower-cases the string and upper-cases the first letter of
// each whitespace-separated token. Empty input yields "N/A".
func CapitalizeWords(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	runes := []rune(strings.ToLower(s))
	atStart := true
	for i, r := range runes {
		if unicode.IsSpace(r) {
			atStart = true
			continue
		}
		if atStart {
			runes[i] = unicode.ToUpper(r)
			atStart = false
		}
	}
	return string(runes)
}
