package retail

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonPriceChars = regexp.MustCompile(`[^\d,.]`)

// ParsePrice converts a pt-BR formatted price string into a decimal value.
// Currency symbols and whitespace are stripped first.
//
//	"3.254,99" → 3254.99   comma is the decimal separator
//	"5.950"    → 5950      one period followed by exactly 3 digits: thousands
//	"10.5"     → 10.5      otherwise the period is a decimal separator
//	"10,50"    → 10.5
//
// Unparseable or empty input reports ok=false, never an error: absence of a
// price is a valid extraction result.
//
// The heuristic is inherently lossy when a period is followed by anything
// but exactly 3 digits: "1.0000" meaning ten thousand parses as 1.0. The
// supported retailers never emit that shape, so this stays a documented
// limitation rather than a guess.
func ParsePrice(raw string) (float64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return 0, false
	}

	if strings.Contains(cleaned, ",") {
		// every period before the comma is a thousands separator
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if strings.Contains(cleaned, ".") {
		parts := strings.Split(cleaned, ".")
		last := parts[len(parts)-1]
		if len(parts) > 2 || (len(parts) == 2 && len(last) == 3) {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// DeriveDiscount computes a "-N%" label from the two prices. Retailer
// native labels always take precedence over a derived one; this only runs
// when the page carried no label of its own.
func DeriveDiscount(price, originalPrice float64) string {
	if originalPrice <= price || originalPrice <= 0 {
		return ""
	}
	pct := math.Round((originalPrice - price) / originalPrice * 100)
	return fmt.Sprintf("-%d%%", int(pct))
}
