package coredb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFloat converts a textual metadata value to a float64. The CoRe
// metadata files use the empty string for missing values, so "" parses to
// NaN rather than failing. "NAN" and "Inf" spellings are accepted. Any other
// non-numeric text is a conversion error.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to float", s)
	}
	return f, nil
}
