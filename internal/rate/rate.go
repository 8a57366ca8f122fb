package rate

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"shipquote/internal/cart"
	"shipquote/internal/tariff"
)

// Resolver turns a request into a priced (or unpriced) result for one service.
type Resolver interface {
	Resolve(req Request) Result
}

// Engine dispatches requests to the resolver of their service. Tables are
// read-only after construction, so an Engine is safe for concurrent use.
type Engine struct {
	pallet    *PalletResolver
	groupage  *GroupageResolver
	alternate *AlternateResolver
	groupMeta tariff.GroupageMeta
	logger    *zap.Logger
}

func NewEngine(pallet *tariff.PalletRateTable, groupage *tariff.GroupageRateTable, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		pallet:    NewPalletResolver(pallet),
		groupage:  NewGroupageResolver(groupage),
		alternate: NewAlternateResolver(pallet),
		logger:    logger,
	}
	if groupage != nil {
		e.groupMeta = groupage.Meta
	}
	return e
}

// ResolverFor returns the resolver of a service.
func (e *Engine) ResolverFor(s Service) (Resolver, error) {
	switch s {
	case Pallet:
		return e.pallet, nil
	case Groupage:
		return e.groupage, nil
	case Alternate:
		return e.alternate, nil
	default:
		return nil, ErrUnknownService
	}
}

// PriceShipment prices one request. It never fails: every problem is
// reported through a nil cost and alerts.
func (e *Engine) PriceShipment(req Request) Result {
	r, err := e.ResolverFor(req.Service)
	if err != nil {
		res := newResult()
		return res.unpriced("unknownService", "Servizio non riconosciuto: %q.", string(req.Service))
	}
	if name, bad := req.invalidField(); bad {
		res := newResult()
		return res.unpriced("invalidInput", "Valore non valido per %s.", name)
	}
	res := r.Resolve(req)
	if ce := e.logger.Check(zap.DebugLevel, "shipment priced"); ce != nil {
		fields := []zap.Field{
			zap.String("service", string(req.Service)),
			zap.Strings("rules", res.Rules),
			zap.Int("alerts", len(res.Alerts)),
		}
		if res.Cost != nil {
			fields = append(fields, zap.Float64("cost", *res.Cost))
		}
		ce.Write(fields...)
	}
	return res
}

// FillFromArticle completes a request from its article's pack data: the
// pallet size for pallet quotes and, when no metric was supplied, the
// groupage metrics of qty units. Requests without an article come back as is.
func (e *Engine) FillFromArticle(req Request) Request {
	a := req.Article
	if a == nil {
		return req
	}
	if req.Service == Pallet && req.PalletType == "" {
		req.PalletType = strings.ToUpper(strings.TrimSpace(a.Pack.PalletSize))
	}
	if req.Service != Groupage || req.LinearMeters > 0 || req.Quintali > 0 || req.Pallets > 0 {
		return req
	}
	agg := cart.ForArticle(a, req.Quantity, e.GroupageStep())
	req.LinearMeters = agg.LinearMetersBilled
	req.Quintali = agg.QuintaliTotal
	req.Pallets = agg.PalletsTotal
	return req
}

// GroupageStep is the billed linear meter step of the groupage table.
func (e *Engine) GroupageStep() float64 { return e.groupMeta.Step() }

func splitTag(shipments int) string { return "split:" + strconv.Itoa(shipments) }

func orDefault(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}
