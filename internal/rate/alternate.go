package rate

import (
	"shipquote/internal/tariff"
)

// AlternateResolver prices the courier (GLS) service from a flat per-region
// base times quantity. The service is off unless the pallet table lists a
// base for the region.
type AlternateResolver struct {
	Table *tariff.PalletRateTable
}

func NewAlternateResolver(t *tariff.PalletRateTable) *AlternateResolver {
	return &AlternateResolver{Table: t}
}

func (a *AlternateResolver) Resolve(req Request) Result {
	res := newResult()
	if req.Region == "" {
		return res.unpriced("missingRegion", "Seleziona una regione.")
	}
	unit, ok := a.Table.GLSBase(req.Region)
	if !ok {
		return res.unpriced("glsNotConfigured", "Listino GLS non configurato per %s (meta.gls_base_by_region).", req.Region)
	}

	base := unit * float64(max(req.Quantity, 1))
	res.tag("gls")

	// The courier base takes insurance only. The km threshold stays so extra
	// distance is still disclosed.
	var meta tariff.SurchargeMeta
	if a.Table != nil {
		meta = tariff.SurchargeMeta{
			InsurancePct: a.Table.Meta.InsurancePct,
			KmThreshold:  a.Table.Meta.KmThreshold,
		}
	}
	base = applySurcharges(base, Alternate, 1, meta, req.Options, &res)

	requestAdvisories(req, &res)
	return res.price(base)
}
