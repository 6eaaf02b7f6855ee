package postgres

import (
	"fmt"
	"strconv"
	"strings"
)

// Balances and amounts are NUMERIC(15,2) columns. They are read as text and
// converted without passing through float64 so large balances stay exact.

// numericStringToCents parses a NUMERIC rendered by Postgres, such as
// "-1234.50", into integer cents. Digits past the second decimal are rounded
// half away from zero.
func numericStringToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric string")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse numeric %q: no digits", s)
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("parse numeric %q: invalid syntax", s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	frac += "000"
	cents := int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		cents++
	}

	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

func centsToNumericString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
