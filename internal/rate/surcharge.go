package rate

import (
	"strconv"

	"shipquote/internal/tariff"
)

// applySurcharges layers the optional fees on top of base in a fixed order:
// liftgate, advance notice, insurance, extra distance, remote area.
// Insurance runs after the additive fees so it covers them. Per-shipment fees
// scale by shipments only for the pallet service.
//
// A requested option with no configured fee is disclosed as an alert and not
// charged. Extra distance and remote area always alert.
func applySurcharges(base float64, svc Service, shipments int, meta tariff.SurchargeMeta, opts Options, res *Result) float64 {
	mult := 1.0
	if svc == Pallet && shipments > 1 {
		mult = float64(shipments)
	}

	if opts.Sponda {
		switch {
		case svc != Groupage:
			res.alert("Sponda richiesta: non prevista dal listino %s, verificare con il vettore.", svc)
		case meta.LiftgateFee != nil:
			base += *meta.LiftgateFee
			res.tag("sponda")
		default:
			res.alert("Sponda richiesta ma tariffa non configurata: costo non incluso.")
		}
	}

	if opts.Preavviso {
		switch {
		case svc == Alternate:
			res.alert("Preavviso richiesto: non previsto dal listino %s, verificare con il vettore.", svc)
		case meta.PreavvisoFee != nil:
			base += *meta.PreavvisoFee * mult
			res.tag("preavviso")
		default:
			res.alert("Preavviso richiesto ma tariffa non configurata: costo non incluso.")
		}
	}

	if opts.Assicurazione {
		if meta.InsurancePct != nil {
			base *= 1 + *meta.InsurancePct
			res.tag("assicurazione")
		} else {
			res.alert("Assicurazione richiesta ma percentuale non configurata: costo non incluso.")
		}
	}

	if opts.KmExtra > 0 {
		km := strconv.FormatFloat(opts.KmExtra, 'f', -1, 64)
		if meta.KmThreshold != nil {
			res.alert("Distanza extra: %s km oltre la soglia di %s km.", km, strconv.FormatFloat(*meta.KmThreshold, 'f', -1, 64))
		} else {
			res.alert("Distanza extra: %s km oltre soglia.", km)
		}
		if meta.KmExtraRate != nil && *meta.KmExtraRate != 0 {
			base += opts.KmExtra * *meta.KmExtraRate * mult
			res.tag("km+" + km)
		} else {
			res.alert("Tariffa km extra non configurata: supplemento da quotare a parte.")
		}
	}

	if opts.Disagiata {
		res.alert("Località disagiata: verificare accessibilità e tempi di consegna.")
		if meta.DisagiataFee != nil && *meta.DisagiataFee != 0 {
			base += *meta.DisagiataFee * mult
			res.tag("disagiata")
		} else {
			res.alert("Supplemento località disagiata non configurato: da quotare a parte.")
		}
	}

	return base
}
