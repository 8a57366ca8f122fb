package tariff

import (
	"sort"
	"strings"
)

// MatchKind tells how a province code was found in a groupage table.
type MatchKind string

const (
	MatchDirect MatchKind = "direct"
	MatchGroup  MatchKind = "group"
)

// ProvinceMatch is the outcome of a successful province resolution.
type ProvinceMatch struct {
	Code      string        `json:"code"`
	Key       string        `json:"matched_key"`
	MatchedBy MatchKind     `json:"matched_by"`
	Entry     GroupageEntry `json:"entry"`
}

// provinceAliasesV1 maps retired province codes to their replacement.
// Carbonia-Iglesias was merged into Sud Sardegna; older tables still use CI.
var provinceAliasesV1 = map[string]string{
	"CI": "SU",
}

// legacySpellings is the reverse of provinceAliasesV1.
var legacySpellings = func() map[string][]string {
	out := make(map[string][]string, len(provinceAliasesV1))
	for legacy, current := range provinceAliasesV1 {
		out[current] = append(out[current], legacy)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}()

// NormalizeProvince trims, uppercases and maps retired codes to current ones.
func NormalizeProvince(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if current, ok := provinceAliasesV1[c]; ok {
		return current
	}
	return c
}

// ResolveProvince finds the groupage entry billing a province. The current
// spelling is tried first, directly and then inside composite keys such as
// "FR LT" or "MT / PZ"; after that any legacy spelling the table may still use.
// Group keys are scanned in table order and the first hit wins.
func ResolveProvince(code string, table *ProvinceTable) (ProvinceMatch, bool) {
	norm := NormalizeProvince(code)
	if norm == "" || table == nil {
		return ProvinceMatch{}, false
	}
	candidates := append([]string{norm}, legacySpellings[norm]...)
	for _, c := range candidates {
		if e, ok := table.Get(c); ok {
			return ProvinceMatch{Code: norm, Key: c, MatchedBy: MatchDirect, Entry: e}, true
		}
		for _, key := range table.Keys() {
			if containsToken(KeyTokens(key), c) {
				e, _ := table.Get(key)
				return ProvinceMatch{Code: norm, Key: key, MatchedBy: MatchGroup, Entry: e}, true
			}
		}
	}
	return ProvinceMatch{}, false
}

// KeyTokens splits a table key on whitespace, slash, hyphen, comma and
// semicolon and keeps only two-letter alphabetic tokens, uppercased.
func KeyTokens(key string) []string {
	fields := strings.FieldsFunc(key, func(r rune) bool {
		switch r {
		case '/', '-', ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) == 2 && isLetter(f[0]) && isLetter(f[1]) {
			out = append(out, strings.ToUpper(f))
		}
	}
	return out
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func containsToken(tokens []string, code string) bool {
	for _, t := range tokens {
		if t == code {
			return true
		}
	}
	return false
}

// ProvinceCodes returns every two-letter code billed by the table, sorted.
func ProvinceCodes(table *ProvinceTable) []string {
	if table == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, key := range table.Keys() {
		for _, t := range KeyTokens(key) {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ProvincesForRegion returns the provinces offerable for a region. With a
// GeoMap the region's own list is used; without one every code in the
// groupage table is offered.
func ProvincesForRegion(region string, geo GeoMap, table *ProvinceTable) []string {
	if geo == nil {
		return ProvinceCodes(table)
	}
	codes := geo[region]
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeProvince(c)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
