package rate

import (
	"fmt"
	"math"
	"slices"

	"shipquote/internal/catalog"
	"shipquote/internal/money"
)

// Options are the service options a caller may request.
type Options struct {
	Preavviso     bool    `json:"preavviso"`
	Assicurazione bool    `json:"assicurazione"`
	Sponda        bool    `json:"sponda"`
	Disagiata     bool    `json:"disagiata"`
	KmExtra       float64 `json:"km_extra"`
}

// Request is one pricing call. Region and PalletType drive the pallet and
// alternate services, Province and the three metrics drive groupage. A zero
// metric means "not supplied".
type Request struct {
	Service      Service          `json:"service"`
	Region       string           `json:"region,omitempty"`
	Province     string           `json:"province,omitempty"`
	PalletType   string           `json:"pallet_type,omitempty"`
	Quantity     int              `json:"qty,omitempty"`
	LinearMeters float64          `json:"lm,omitempty"`
	Quintali     float64          `json:"quintali,omitempty"`
	Pallets      float64          `json:"pallets,omitempty"`
	Options      Options          `json:"options"`
	Article      *catalog.Article `json:"-"`

	// Companions are the other articles loaded with Article, as in a cart.
	// Their advisories are reported too.
	Companions []*catalog.Article `json:"-"`
}

// invalidField names the first numeric field that is NaN or infinite.
func (r Request) invalidField() (string, bool) {
	fields := []struct {
		name string
		v    float64
	}{
		{"lm", r.LinearMeters},
		{"quintali", r.Quintali},
		{"pallets", r.Pallets},
		{"km_extra", r.Options.KmExtra},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return f.name, true
		}
	}
	return "", false
}

// Result is the outcome of a pricing call. A nil Cost means the shipment
// cannot be priced automatically; Alerts are meaningful either way.
type Result struct {
	Cost   *float64 `json:"cost"`
	Rules  []string `json:"rules"`
	Alerts []string `json:"alerts"`
}

func newResult() Result {
	return Result{Rules: []string{}, Alerts: []string{}}
}

// Priced reports whether the result carries a cost.
func (r Result) Priced() bool { return r.Cost != nil }

func (r *Result) tag(rule string) { r.Rules = append(r.Rules, rule) }

func (r *Result) alert(format string, args ...any) {
	r.Alerts = append(r.Alerts, fmt.Sprintf(format, args...))
}

// alertOnce appends an alert unless the same text is already present.
func (r *Result) alertOnce(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !slices.Contains(r.Alerts, msg) {
		r.Alerts = append(r.Alerts, msg)
	}
}

// unpriced appends a tag and an alert and leaves Cost nil.
func (r *Result) unpriced(rule, format string, args ...any) Result {
	r.tag(rule)
	r.alert(format, args...)
	r.Cost = nil
	return *r
}

func (r *Result) price(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return r.unpriced("invalidAmount", "Importo calcolato non valido: da quotare a parte.")
	}
	r.Cost = money.Ptr(money.Round2(v))
	return *r
}
