package catalog

import (
	"strings"

	"shipquote/internal/money"
)

// TruckWidthCm is the usable width of a trailer. A footprint of
// length x width occupies footprint/TruckWidthCm centimetres of floor.
const TruckWidthCm = 240.0

// Dimensions are in centimetres.
type Dimensions struct {
	LengthCm float64 `json:"l"`
	WidthCm  float64 `json:"w"`
	HeightCm float64 `json:"h"`
}

// Pack describes how an article ships.
type Pack struct {
	PalletSize string     `json:"palletSize,omitempty"`
	WeightKg   float64    `json:"weightKg,omitempty"`
	Dims       Dimensions `json:"dims"`
}

// GroupageParams are the groupage billing metrics of one unit.
type GroupageParams struct {
	LinearMeters float64 `json:"lm"`
	Quintali     float64 `json:"quintali"`
	Pallets      float64 `json:"pallets"`
}

// Rules are the per-article flags that steer pricing.
type Rules struct {
	ForceQuote       bool            `json:"forceQuote,omitempty"`
	ForceQuoteReason string          `json:"forceQuoteReason,omitempty"`
	SuggestGLS       bool            `json:"suggestGLS,omitempty"`
	SuggestGLSReason string          `json:"suggestGLSReason,omitempty"`
	NoSponda         bool            `json:"noSponda,omitempty"`
	Groupage         *GroupageParams `json:"groupage,omitempty"`
	GroupageAuto     bool            `json:"groupageAuto,omitempty"`
	Stackable        bool            `json:"stackable,omitempty"`
}

// Article is a catalog entry. The engine never mutates it.
type Article struct {
	ID    string   `json:"id"`
	Brand string   `json:"brand,omitempty"`
	Name  string   `json:"name"`
	Code  string   `json:"code,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Pack  Pack     `json:"pack"`
	Rules Rules    `json:"rules"`
}

// Label is the short human description used in summaries and pickers.
func (a *Article) Label() string {
	if a == nil {
		return ""
	}
	ref := a.Code
	if ref == "" {
		ref = a.ID
	}
	return strings.TrimSpace(strings.TrimSpace(a.Brand+" "+a.Name) + " (" + ref + ")")
}

// GroupageParams returns the article's per-unit groupage metrics. Fixed
// values from the rules win field by field; the remaining fields are derived
// from the pack descriptor only when the article opts in with groupageAuto.
func (a *Article) GroupageParams() GroupageParams {
	if a == nil {
		return GroupageParams{}
	}
	var p GroupageParams
	if a.Rules.Groupage != nil {
		p = *a.Rules.Groupage
	}
	if !a.Rules.GroupageAuto {
		return p
	}
	auto := a.derivedParams()
	if p.LinearMeters <= 0 {
		p.LinearMeters = auto.LinearMeters
	}
	if p.Quintali <= 0 {
		p.Quintali = auto.Quintali
	}
	if p.Pallets <= 0 {
		p.Pallets = auto.Pallets
	}
	return p
}

func (a *Article) derivedParams() GroupageParams {
	var p GroupageParams
	d := a.Pack.Dims
	if d.LengthCm > 0 && d.WidthCm > 0 {
		p.LinearMeters = money.Round2(d.LengthCm * d.WidthCm / TruckWidthCm / 100)
	}
	if a.Pack.WeightKg > 0 {
		p.Quintali = money.Round2(a.Pack.WeightKg / 100)
	}
	if a.Pack.PalletSize != "" {
		p.Pallets = 1
	}
	return p
}
