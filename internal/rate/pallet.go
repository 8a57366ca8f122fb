package rate

import (
	"slices"

	"shipquote/internal/catalog"
	"shipquote/internal/tariff"
)

// PalletResolver prices per-pallet shipments by region and pallet size.
type PalletResolver struct {
	Table *tariff.PalletRateTable
}

func NewPalletResolver(t *tariff.PalletRateTable) *PalletResolver {
	return &PalletResolver{Table: t}
}

func (p *PalletResolver) Resolve(req Request) Result {
	res := newResult()
	if req.Region == "" {
		return res.unpriced("missingRegion", "Seleziona una regione.")
	}
	if req.PalletType == "" {
		return res.unpriced("missingPalletType", "Seleziona taglia bancale (MINI/HALF/...).")
	}

	unit, ok := p.Table.Rate(req.Region, req.PalletType)
	if !ok {
		return res.unpriced("rateNotFound", "Nessuna tariffa bancale per %s / %s.", req.Region, req.PalletType)
	}

	qty := max(req.Quantity, 1)
	perShipment := p.Table.MaxPerShipment()
	shipments := (qty + perShipment - 1) / perShipment
	if shipments > 1 {
		res.tag(splitTag(shipments))
		res.alert("Quantità > %d: l'app divide in %d spedizioni (stima).", perShipment, shipments)
	}

	base := unit * float64(qty)
	var meta tariff.SurchargeMeta
	if p.Table != nil {
		meta = p.Table.Meta.SurchargeMeta
	}
	base = applySurcharges(base, Pallet, shipments, meta, req.Options, &res)

	requestAdvisories(req, &res)
	return res.price(base)
}

// requestAdvisories runs articleAdvisories for the request article and then
// for every loaded companion not already seen.
func requestAdvisories(req Request, res *Result) {
	seen := make(map[*catalog.Article]bool, len(req.Companions)+1)
	for _, a := range append([]*catalog.Article{req.Article}, req.Companions...) {
		if a == nil || seen[a] {
			continue
		}
		seen[a] = true
		articleAdvisories(a, req.Options, res)
	}
}

// articleAdvisories appends the article's non-blocking flags. Force-quote is
// tagged but never clears the cost.
func articleAdvisories(a *catalog.Article, opts Options, res *Result) {
	if a == nil {
		return
	}
	if a.Rules.ForceQuote {
		if !slices.Contains(res.Rules, "forceQuote") {
			res.tag("forceQuote")
		}
		res.alertOnce("Articolo marcato \"preventivo necessario\": %s", orDefault(a.Rules.ForceQuoteReason, "vedi note"))
	}
	if a.Rules.SuggestGLS {
		res.alertOnce("Articolo consigliato GLS: %s", orDefault(a.Rules.SuggestGLSReason, "vedi note"))
	}
	if a.Rules.NoSponda {
		if opts.Sponda {
			res.alertOnce("NO SPONDA: sponda richiesta ma l'articolo non la consente. Valuta groupage / preventivo.")
		} else {
			res.alertOnce("NO SPONDA: per questo articolo potrebbe non essere possibile in consegna.")
		}
	}
}
