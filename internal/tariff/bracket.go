package tariff

import "math"

// MatchBracket returns the price of the first bracket with min <= value and
// (max unbounded or value <= max). Brackets are scanned in the given order and
// may be non-monotonic. Non-positive and non-finite values never match.
func MatchBracket(value float64, brackets []Bracket) (float64, bool) {
	if !(value > 0) || math.IsInf(value, 0) {
		return 0, false
	}
	for _, b := range brackets {
		lo := 0.0
		if b.Min != nil {
			lo = *b.Min
		}
		if value < lo {
			continue
		}
		if b.Max != nil && value > *b.Max {
			continue
		}
		return b.Price, true
	}
	return 0, false
}
