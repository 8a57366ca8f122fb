package rate

import (
	"shipquote/internal/tariff"
)

// Groupage metric names, as they appear in pick tags.
const (
	MetricLinearMeters = "lm"
	MetricQuintali     = "quintali"
	MetricPallets      = "pallets"
)

type candidate struct {
	metric string
	price  float64
}

// GroupageResolver prices consolidated loads by province and bracket.
type GroupageResolver struct {
	Table *tariff.GroupageRateTable
}

func NewGroupageResolver(t *tariff.GroupageRateTable) *GroupageResolver {
	return &GroupageResolver{Table: t}
}

func (g *GroupageResolver) Resolve(req Request) Result {
	res := newResult()
	if req.Province == "" {
		return res.unpriced("missingProvince", "Seleziona una provincia.")
	}

	var provinces *tariff.ProvinceTable
	var meta tariff.GroupageMeta
	if g.Table != nil {
		provinces = &g.Table.Provinces
		meta = g.Table.Meta
	}
	m, ok := tariff.ResolveProvince(req.Province, provinces)
	if !ok {
		return res.unpriced("provinceNotFound", "Nessuna tariffa groupage per %s.", tariff.NormalizeProvince(req.Province))
	}
	if m.MatchedBy == tariff.MatchGroup {
		res.tag("provGroup:" + m.Key)
		res.alert("Provincia %s tariffata nel gruppo \"%s\".", m.Code, m.Key)
	}

	cands := bracketCandidates(m.Entry, req)
	if len(cands) == 0 {
		return res.unpriced("noBracket", "Inserisci almeno uno tra Metri lineari / Quintali / N° bancali con valori coerenti alle fasce.")
	}

	mode := meta.Selection()
	pick := selectCandidate(cands, mode)
	res.tag("pick:" + string(mode) + ":" + pick.metric)

	base := applySurcharges(pick.price, Groupage, 1, meta.SurchargeMeta, req.Options, &res)

	requestAdvisories(req, &res)
	return res.price(base)
}

// bracketCandidates runs the bracket matcher on every supplied metric the
// entry prices, in lm, quintali, pallets order.
func bracketCandidates(e tariff.GroupageEntry, req Request) []candidate {
	metrics := []struct {
		name     string
		value    float64
		brackets []tariff.Bracket
	}{
		{MetricLinearMeters, req.LinearMeters, e.LinearMeters},
		{MetricQuintali, req.Quintali, e.Quintali},
		{MetricPallets, req.Pallets, e.Pallets},
	}
	var out []candidate
	for _, m := range metrics {
		if !(m.value > 0) || len(m.brackets) == 0 {
			continue
		}
		if price, ok := tariff.MatchBracket(m.value, m.brackets); ok {
			out = append(out, candidate{metric: m.name, price: price})
		}
	}
	return out
}

// selectCandidate picks the highest price by default; SelectMin picks the lowest.
// Ties keep the earlier metric.
func selectCandidate(cands []candidate, mode tariff.SelectionMode) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if mode == tariff.SelectMin && c.price < best.price {
			best = c
		}
		if mode != tariff.SelectMin && c.price > best.price {
			best = c
		}
	}
	return best
}
