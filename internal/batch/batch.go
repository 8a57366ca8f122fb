package batch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shipquote/internal/catalog"
	"shipquote/internal/money"
	"shipquote/internal/rate"
)

// Row is one input line of a batch.
type Row struct {
	Code         string       `json:"code"`
	Service      string       `json:"service,omitempty"`
	Region       string       `json:"region,omitempty"`
	Province     string       `json:"province,omitempty"`
	PalletType   string       `json:"pallet_type,omitempty"`
	Quantity     int          `json:"qty,omitempty"`
	LinearMeters float64      `json:"lm,omitempty"`
	Quintali     float64      `json:"quintali,omitempty"`
	Pallets      float64      `json:"pallets,omitempty"`
	Options      rate.Options `json:"options"`

	// Problems found while decoding the row; surfaced as alerts.
	Problems []string `json:"-"`
}

// Output is the priced counterpart of a Row.
type Output struct {
	Row     Row      `json:"row"`
	Service string   `json:"service"`
	Cost    *float64 `json:"cost"`
	Price   string   `json:"price"`
	Rules   string   `json:"rules"`
	Alerts  string   `json:"alerts"`
}

func (o Output) Priced() bool { return o.Cost != nil }

// Options steer a batch run.
type Options struct {
	PickCheapest bool            `json:"pick_cheapest"`
	ClientMode   rate.ClientMode `json:"client_mode,omitempty"`
	ClientPct    float64         `json:"client_pct,omitempty"`
	Workers      int             `json:"-"`
}

// Runner resolves batches against one engine and catalog.
type Runner struct {
	engine  *rate.Engine
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func NewRunner(engine *rate.Engine, cat *catalog.Catalog, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, catalog: cat, logger: logger}
}

// Run prices every row, up to opts.Workers rows at a time. Output order
// matches input order. A row that cannot be priced is marked and the run
// continues; only context cancellation stops it.
func (r *Runner) Run(ctx context.Context, rows []Row, opts Options) ([]Output, error) {
	out := make([]Output, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i := range rows {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.resolveSafe(i, rows[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priced := 0
	for _, o := range out {
		if o.Priced() {
			priced++
		}
	}
	r.logger.Info("batch resolved",
		zap.Int("rows", len(rows)),
		zap.Int("priced", priced),
		zap.Int("unpriced", len(rows)-priced),
	)
	return out, nil
}

func (r *Runner) resolveSafe(i int, row Row, opts Options) (o Output) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("batch row panicked", zap.Int("row", i), zap.Any("panic", p))
			o = Output{Row: row, Service: row.Service, Alerts: "Errore interno nel calcolo della riga."}
		}
	}()
	o = r.ResolveRow(row, opts)
	if !o.Priced() {
		r.logger.Warn("batch row unpriced", zap.Int("row", i), zap.String("code", row.Code), zap.String("alerts", o.Alerts))
	}
	return o
}

// ResolveRow prices a single row.
func (r *Runner) ResolveRow(row Row, opts Options) Output {
	var pre []string
	pre = append(pre, row.Problems...)

	var art *catalog.Article
	if strings.TrimSpace(row.Code) != "" {
		a, ok := r.catalog.ByCode(row.Code)
		if ok {
			art = a
		} else {
			pre = append(pre, fmt.Sprintf("Articolo %q non trovato in catalogo.", row.Code))
		}
	}

	req := rate.Request{
		Region:       strings.TrimSpace(row.Region),
		Province:     strings.TrimSpace(row.Province),
		PalletType:   strings.ToUpper(strings.TrimSpace(row.PalletType)),
		Quantity:     row.Quantity,
		LinearMeters: row.LinearMeters,
		Quintali:     row.Quintali,
		Pallets:      row.Pallets,
		Options:      row.Options,
		Article:      art,
	}

	var res rate.Result
	switch {
	case strings.TrimSpace(row.Service) != "":
		svc, err := rate.ParseService(row.Service)
		if err != nil {
			return Output{
				Row:     row,
				Service: row.Service,
				Rules:   "unknownService",
				Alerts:  joinAlerts(append(pre, fmt.Sprintf("Servizio non riconosciuto: %q.", row.Service))),
			}
		}
		req.Service = svc
		res = r.engine.PriceShipment(r.engine.FillFromArticle(req))
	case opts.PickCheapest:
		req.Service, res = r.cheapest(req)
	default:
		req.Service = rate.Pallet
		res = r.engine.PriceShipment(r.engine.FillFromArticle(req))
	}

	o := Output{
		Row:     row,
		Service: string(req.Service),
		Cost:    res.Cost,
		Rules:   strings.Join(res.Rules, " | "),
		Alerts:  joinAlerts(append(pre, res.Alerts...)),
	}
	price := res.Cost
	if opts.ClientPct > 0 || opts.ClientMode == rate.ClientMargin {
		price = rate.TransformClientPrice(res.Cost, opts.ClientMode, opts.ClientPct)
	}
	if price != nil {
		o.Price = money.FormatEUR(price)
	}
	return o
}

// cheapest runs every service and keeps the lowest non-nil cost, the
// earlier service winning ties. When nothing prices it falls back to pallet.
func (r *Runner) cheapest(req rate.Request) (rate.Service, rate.Result) {
	var (
		bestSvc rate.Service
		best    rate.Result
		found   bool
		results = make(map[rate.Service]rate.Result, len(rate.Services))
	)
	for _, svc := range rate.Services {
		req.Service = svc
		res := r.engine.PriceShipment(r.engine.FillFromArticle(req))
		results[svc] = res
		if res.Cost == nil {
			continue
		}
		if !found || *res.Cost < *best.Cost {
			bestSvc, best, found = svc, res, true
		}
	}
	if !found {
		return rate.Pallet, results[rate.Pallet]
	}
	best.Rules = append([]string{"cheapest:" + string(bestSvc)}, best.Rules...)
	return bestSvc, best
}

func joinAlerts(alerts []string) string { return strings.Join(alerts, " | ") }
