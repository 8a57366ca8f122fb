package cart

import (
	"math"

	"shipquote/internal/catalog"
	"shipquote/internal/money"
)

// Aggregate holds the billable metrics of a whole load.
type Aggregate struct {
	LinearMetersUsed   float64 `json:"linear_meters_used"`
	LinearMetersBilled float64 `json:"linear_meters_billed"`
	QuintaliTotal      float64 `json:"quintali_total"`
	PalletsTotal       float64 `json:"pallets_total"`
}

// AggregateCart folds a cart into groupage metrics.
//
// The base occupies its footprint once however many units are nested in it.
// Every other non-stackable item adds lm x quantity of floor; stackable items
// ride on top and add no floor. Floor used is the larger of the two. Weight
// and pallet totals sum every item times its quantity. Billed linear meters
// round used up to a multiple of step (1 when step <= 0).
func AggregateCart(c *Cart, step float64) Aggregate {
	if c == nil || c.Len() == 0 {
		return Aggregate{}
	}
	if step <= 0 {
		step = 1.0
	}

	var baseLM, looseLM, quintali, pallets float64
	for _, it := range c.items {
		p := it.Article.GroupageParams()
		q := float64(it.Quantity)
		quintali += p.Quintali * q
		pallets += p.Pallets * q

		switch {
		case it.Article.ID == c.baseID:
			baseLM = p.LinearMeters
		case it.Stackable:
		default:
			looseLM += p.LinearMeters * q
		}
	}

	used := money.Round2(math.Max(baseLM, looseLM))
	return Aggregate{
		LinearMetersUsed:   used,
		LinearMetersBilled: roundUpToStep(used, step),
		QuintaliTotal:      money.Round2(quintali),
		PalletsTotal:       money.Round2(pallets),
	}
}

func roundUpToStep(v, step float64) float64 {
	if v <= 0 {
		return 0
	}
	// Trim float noise so 1.2/0.1 does not ceil to 13.
	n := math.Round(v/step*1e6) / 1e6
	return money.Round2(math.Ceil(n) * step)
}

// ForArticle is the load of qty units of one article shipped on their own.
// Stackable units share one footprint; otherwise each unit takes its own floor.
func ForArticle(a *catalog.Article, qty int, step float64) Aggregate {
	if a == nil {
		return Aggregate{}
	}
	if step <= 0 {
		step = 1.0
	}
	p := a.GroupageParams()
	q := float64(max(qty, 1))
	lm := p.LinearMeters * q
	if a.Rules.Stackable {
		lm = p.LinearMeters
	}
	used := money.Round2(lm)
	return Aggregate{
		LinearMetersUsed:   used,
		LinearMetersBilled: roundUpToStep(used, step),
		QuintaliTotal:      money.Round2(p.Quintali * q),
		PalletsTotal:       money.Round2(p.Pallets * q),
	}
}
