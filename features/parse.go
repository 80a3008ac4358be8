package features

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// currencyRegexp matches the currency markers seen in listing prices.
	currencyRegexp = regexp.MustCompile(`(?i)€|\$|\beur\b|\brsd\b|\bdin\.?`)
	// areaUnitRegexp matches a trailing square-metre unit.
	areaUnitRegexp = regexp.MustCompile(`(?i)m2|m²|kvm`)
)

// ParsePrice converts a formatted listing price such as "125.000 €" or
// "98.500,50 EUR" to a number. Dots are thousands separators and a comma
// is the decimal mark.
func ParsePrice(raw string) (float64, error) {
	s := currencyRegexp.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseNumber(s, raw)
}

// ParseArea converts an area string such as "45,5" or "62 m²" to a number.
func ParseArea(raw string) (float64, error) {
	s := areaUnitRegexp.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseNumber(s, raw)
}

func parseNumber(s, raw string) (float64, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0, fmt.Errorf("empty value %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number %q", raw)
	}
	return v, nil
}
