package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePriceRange parses free-text price-range input of the form "NNN-MMM"
// (major currency units) into minor units. Spaces are ignored; the lower
// bound must not exceed the upper one.
func ParsePriceRange(text string) (from, upTo int64, err error) {
	text = strings.ReplaceAll(text, " ", "")
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected NNN-MMM, got %q", text)
	}

	lo, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lower bound %q", parts[0])
	}
	hi, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid upper bound %q", parts[1])
	}
	if lo < 0 {
		return 0, 0, fmt.Errorf("negative lower bound %d", lo)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("lower bound %d above upper bound %d", lo, hi)
	}

	return lo * 100, hi * 100, nil
}
