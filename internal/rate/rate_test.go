package rate

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"shipquote/internal/catalog"
	"shipquote/internal/tariff"
)

func f(v float64) *float64 { return &v }

func palletTable() *tariff.PalletRateTable {
	return &tariff.PalletRateTable{
		Meta: tariff.PalletMeta{
			SurchargeMeta: tariff.SurchargeMeta{
				PreavvisoFee: f(10),
				InsurancePct: f(0.10),
				KmExtraRate:  f(0.5),
				DisagiataFee: f(20),
			},
			MaxPalletsPerShipment: 5,
			GLSBaseByRegion:       map[string]float64{"Lazio": 12},
		},
		Rates: map[string]map[string]*float64{
			"Lazio": {"HALF": f(60), "FULL": f(100)},
		},
	}
}

func groupageTable(mode tariff.SelectionMode) *tariff.GroupageRateTable {
	g := &tariff.GroupageRateTable{
		Meta: tariff.GroupageMeta{
			SurchargeMeta: tariff.SurchargeMeta{
				LiftgateFee:  f(35),
				PreavvisoFee: f(10),
				InsurancePct: f(0.10),
				KmThreshold:  f(50),
			},
			SelectionMode: mode,
		},
	}
	g.Provinces.Set("RM", tariff.GroupageEntry{
		LinearMeters: []tariff.Bracket{{Min: f(0), Max: f(1), Price: 80}, {Min: f(1), Price: 150}},
		Quintali:     []tariff.Bracket{{Min: f(0), Max: f(5), Price: 95}, {Min: f(5), Price: 200}},
		Pallets:      []tariff.Bracket{{Min: f(0), Max: f(2), Price: 70}},
	})
	g.Provinces.Set("FR LT", tariff.GroupageEntry{
		Quintali: []tariff.Bracket{{Price: 60}},
	})
	return g
}

func engine(mode tariff.SelectionMode) *Engine {
	return NewEngine(palletTable(), groupageTable(mode), nil)
}

func costOf(t *testing.T, res Result) float64 {
	t.Helper()
	if res.Cost == nil {
		t.Fatalf("expected a cost, got nil (rules=%v alerts=%v)", res.Rules, res.Alerts)
	}
	return *res.Cost
}

func hasRule(res Result, rule string) bool {
	for _, r := range res.Rules {
		if r == rule {
			return true
		}
	}
	return false
}

func alertContains(res Result, sub string) bool {
	for _, a := range res.Alerts {
		if strings.Contains(a, sub) {
			return true
		}
	}
	return false
}

func TestPallet_MissingInputs(t *testing.T) {
	e := engine("")
	res := e.PriceShipment(Request{Service: Pallet, PalletType: "HALF", Quantity: 1})
	if res.Cost != nil || !reflect.DeepEqual(res.Rules, []string{"missingRegion"}) {
		t.Fatalf("unexpected result %+v", res)
	}
	res = e.PriceShipment(Request{Service: Pallet, Region: "Lazio", Quantity: 1})
	if res.Cost != nil || !reflect.DeepEqual(res.Rules, []string{"missingPalletType"}) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPallet_RateNotFound(t *testing.T) {
	res := engine("").PriceShipment(Request{Service: Pallet, Region: "Molise", PalletType: "HALF", Quantity: 1})
	if res.Cost != nil || !hasRule(res, "rateNotFound") || !alertContains(res, "Molise / HALF") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPallet_Base(t *testing.T) {
	res := engine("").PriceShipment(Request{Service: Pallet, Region: "Lazio", PalletType: "HALF", Quantity: 2})
	if got := costOf(t, res); got != 120 {
		t.Fatalf("expected 120, got %v", got)
	}
	if len(res.Rules) != 0 || len(res.Alerts) != 0 {
		t.Fatalf("expected no rules or alerts, got %+v", res)
	}
}

func TestPallet_ZeroQuantityCountsAsOne(t *testing.T) {
	res := engine("").PriceShipment(Request{Service: Pallet, Region: "Lazio", PalletType: "HALF"})
	if got := costOf(t, res); got != 60 {
		t.Fatalf("expected 60, got %v", got)
	}
}

func TestPallet_SplitScalesPerShipmentFees(t *testing.T) {
	req := Request{
		Service:    Pallet,
		Region:     "Lazio",
		PalletType: "HALF",
		Quantity:   11,
		Options:    Options{Preavviso: true, KmExtra: 10, Disagiata: true},
	}
	res := engine("").PriceShipment(req)
	// 60*11 + 10*3 preavviso + 10km*0.5*3 + 20*3 disagiata
	if got := costOf(t, res); got != 660+30+15+60 {
		t.Fatalf("expected 765, got %v", got)
	}
	want := []string{"split:3", "preavviso", "km+10", "disagiata"}
	if !reflect.DeepEqual(res.Rules, want) {
		t.Fatalf("expected rules %v, got %v", want, res.Rules)
	}
	if !alertContains(res, "3 spedizioni") {
		t.Fatalf("expected split disclosure, got %v", res.Alerts)
	}
}

func TestPallet_InsuranceCoversFees(t *testing.T) {
	req := Request{
		Service:    Pallet,
		Region:     "Lazio",
		PalletType: "FULL",
		Quantity:   1,
		Options:    Options{Preavviso: true, Assicurazione: true},
	}
	res := engine("").PriceShipment(req)
	if got := costOf(t, res); got != 121 {
		t.Fatalf("expected (100+10)*1.10 = 121, got %v", got)
	}
	if !reflect.DeepEqual(res.Rules, []string{"preavviso", "assicurazione"}) {
		t.Fatalf("unexpected rules %v", res.Rules)
	}
}

func TestPallet_SpondaIsNotPriced(t *testing.T) {
	req := Request{Service: Pallet, Region: "Lazio", PalletType: "HALF", Quantity: 1, Options: Options{Sponda: true}}
	res := engine("").PriceShipment(req)
	if got := costOf(t, res); got != 60 {
		t.Fatalf("expected 60, got %v", got)
	}
	if hasRule(res, "sponda") || !alertContains(res, "Sponda richiesta") {
		t.Fatalf("expected liftgate disclosure only, got %+v", res)
	}
}

func TestForceQuote_NeverNullsCost(t *testing.T) {
	art := &catalog.Article{ID: "a", Name: "Armadio", Rules: catalog.Rules{
		ForceQuote:       true,
		ForceQuoteReason: "misure fuori standard",
		SuggestGLS:       true,
		NoSponda:         true,
	}}
	e := engine("")
	reqs := []Request{
		{Service: Pallet, Region: "Lazio", PalletType: "HALF", Quantity: 1, Article: art},
		{Service: Groupage, Province: "RM", Quintali: 3, Article: art},
		{Service: Alternate, Region: "Lazio", Quantity: 1, Article: art},
	}
	for _, req := range reqs {
		res := e.PriceShipment(req)
		costOf(t, res)
		if !hasRule(res, "forceQuote") || !alertContains(res, "misure fuori standard") {
			t.Fatalf("%s: expected force-quote disclosure, got %+v", req.Service, res)
		}
		if !alertContains(res, "GLS") || !alertContains(res, "NO SPONDA") {
			t.Fatalf("%s: expected article advisories, got %v", req.Service, res.Alerts)
		}
	}
}

func TestGroupage_SelectionMode(t *testing.T) {
	req := Request{Service: Groupage, Province: "RM", LinearMeters: 0.5, Quintali: 3}

	res := engine("").PriceShipment(req)
	if got := costOf(t, res); got != 95 {
		t.Fatalf("expected default max to pick 95, got %v", got)
	}
	if !reflect.DeepEqual(res.Rules, []string{"pick:max:quintali"}) {
		t.Fatalf("unexpected rules %v", res.Rules)
	}

	res = engine(tariff.SelectMin).PriceShipment(req)
	if got := costOf(t, res); got != 80 {
		t.Fatalf("expected min to pick 80, got %v", got)
	}
	if !reflect.DeepEqual(res.Rules, []string{"pick:min:lm"}) {
		t.Fatalf("unexpected rules %v", res.Rules)
	}
}

func TestGroupage_AllThreeMetrics(t *testing.T) {
	req := Request{Service: Groupage, Province: "RM", LinearMeters: 2, Quintali: 3, Pallets: 1}
	res := engine(tariff.SelectMax).PriceShipment(req)
	if got := costOf(t, res); got != 150 {
		t.Fatalf("expected 150, got %v", got)
	}
	if !hasRule(res, "pick:max:lm") {
		t.Fatalf("unexpected rules %v", res.Rules)
	}
}

func TestGroupage_GroupMatch(t *testing.T) {
	res := engine("").PriceShipment(Request{Service: Groupage, Province: " lt", Quintali: 2})
	if got := costOf(t, res); got != 60 {
		t.Fatalf("expected 60, got %v", got)
	}
	if !hasRule(res, "provGroup:FR LT") || !alertContains(res, "FR LT") {
		t.Fatalf("expected group disclosure, got %+v", res)
	}
}

func TestGroupage_ProvinceNotFoundVsNoBracket(t *testing.T) {
	e := engine("")
	res := e.PriceShipment(Request{Service: Groupage, Province: "AO", Quintali: 2})
	if res.Cost != nil || !hasRule(res, "provinceNotFound") || !alertContains(res, "AO") {
		t.Fatalf("unexpected result %+v", res)
	}
	res = e.PriceShipment(Request{Service: Groupage, Province: "RM", Pallets: 5})
	if res.Cost != nil || !hasRule(res, "noBracket") {
		t.Fatalf("unexpected result %+v", res)
	}
	res = e.PriceShipment(Request{Service: Groupage, Province: "RM"})
	if res.Cost != nil || !hasRule(res, "noBracket") {
		t.Fatalf("expected noBracket with no metrics, got %+v", res)
	}
	res = e.PriceShipment(Request{Service: Groupage, Quintali: 1})
	if res.Cost != nil || !reflect.DeepEqual(res.Rules, []string{"missingProvince"}) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGroupage_SurchargeOrder(t *testing.T) {
	req := Request{
		Service:  Groupage,
		Province: "RM",
		Quintali: 3,
		Options:  Options{Sponda: true, Preavviso: true, Assicurazione: true},
	}
	res := engine("").PriceShipment(req)
	if got := costOf(t, res); got != 154 {
		t.Fatalf("expected (95+35+10)*1.10 = 154, got %v", got)
	}
	want := []string{"pick:max:quintali", "sponda", "preavviso", "assicurazione"}
	if !reflect.DeepEqual(res.Rules, want) {
		t.Fatalf("expected %v, got %v", want, res.Rules)
	}
}

func TestGroupage_ConfigurationGapAlertsWithoutCharging(t *testing.T) {
	req := Request{
		Service:  Groupage,
		Province: "RM",
		Quintali: 3,
		Options:  Options{KmExtra: 30, Disagiata: true},
	}
	res := engine("").PriceShipment(req)
	if got := costOf(t, res); got != 95 {
		t.Fatalf("expected uncharged 95, got %v", got)
	}
	if hasRule(res, "km+30") || hasRule(res, "disagiata") {
		t.Fatalf("expected no charge tags, got %v", res.Rules)
	}
	if !alertContains(res, "30 km oltre la soglia di 50 km") || !alertContains(res, "disagiata") {
		t.Fatalf("expected disclosure alerts, got %v", res.Alerts)
	}
}

func TestAlternate(t *testing.T) {
	e := engine("")
	res := e.PriceShipment(Request{Service: Alternate, Region: "Lazio", Quantity: 3, Options: Options{Assicurazione: true}})
	if got := costOf(t, res); got != 39.6 {
		t.Fatalf("expected 12*3*1.1 = 39.6, got %v", got)
	}
	if !reflect.DeepEqual(res.Rules, []string{"gls", "assicurazione"}) {
		t.Fatalf("unexpected rules %v", res.Rules)
	}
	res = e.PriceShipment(Request{Service: Alternate, Region: "Molise", Quantity: 1})
	if res.Cost != nil || !hasRule(res, "glsNotConfigured") {
		t.Fatalf("unexpected result %+v", res)
	}
	res = e.PriceShipment(Request{Service: Alternate})
	if res.Cost != nil || !hasRule(res, "missingRegion") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAlternate_ChargesInsuranceOnly(t *testing.T) {
	e := engine("")
	res := e.PriceShipment(Request{Service: Alternate, Region: "Lazio", Quantity: 1, Options: Options{
		Preavviso: true,
		Disagiata: true,
		KmExtra:   30,
	}})
	if got := costOf(t, res); got != 12 {
		t.Fatalf("expected GLS base 12 without surcharges, got %v", got)
	}
	if !reflect.DeepEqual(res.Rules, []string{"gls"}) {
		t.Fatalf("unexpected rules %v", res.Rules)
	}
	if !alertContains(res, "Preavviso") || !alertContains(res, "Distanza extra") || !alertContains(res, "disagiata") {
		t.Fatalf("expected disclosure alerts, got %v", res.Alerts)
	}
}

func TestNonFiniteInputIsNotPriced(t *testing.T) {
	e := engine("")
	reqs := []Request{
		{Service: Groupage, Province: "RM", Quintali: math.NaN()},
		{Service: Groupage, Province: "RM", LinearMeters: math.Inf(1)},
		{Service: Pallet, Region: "Lazio", PalletType: "HALF", Quantity: 1, Options: Options{KmExtra: math.Inf(1)}},
		{Service: Alternate, Region: "Lazio", Quantity: 1, Options: Options{KmExtra: math.NaN()}},
	}
	for _, req := range reqs {
		res := e.PriceShipment(req)
		if res.Cost != nil || !hasRule(res, "invalidInput") {
			t.Fatalf("%s: expected invalidInput, got %+v", req.Service, res)
		}
	}
}

func TestCompanionAdvisories(t *testing.T) {
	base := &catalog.Article{ID: "base", Name: "Divano"}
	marble := &catalog.Article{ID: "m", Name: "Tavolo", Rules: catalog.Rules{ForceQuote: true, ForceQuoteReason: "marmo fragile"}}
	glass := &catalog.Article{ID: "g", Name: "Vetrina", Rules: catalog.Rules{ForceQuote: true, NoSponda: true}}
	res := engine("").PriceShipment(Request{
		Service:    Groupage,
		Province:   "RM",
		Quintali:   3,
		Article:    base,
		Companions: []*catalog.Article{marble, glass, marble, nil},
	})
	if got := costOf(t, res); got != 95 {
		t.Fatalf("expected 95, got %v", got)
	}
	if !alertContains(res, "marmo fragile") || !alertContains(res, "vedi note") || !alertContains(res, "NO SPONDA") {
		t.Fatalf("expected companion advisories, got %v", res.Alerts)
	}
	n := 0
	for _, r := range res.Rules {
		if r == "forceQuote" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected a single forceQuote tag, got %v", res.Rules)
	}
	if len(res.Alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %v", res.Alerts)
	}
}

func TestUnknownService(t *testing.T) {
	res := engine("").PriceShipment(Request{Service: "TRUCK"})
	if res.Cost != nil || !hasRule(res, "unknownService") {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := engine("").ResolverFor("TRUCK"); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestNilTablesNeverPanic(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	for _, s := range Services {
		res := e.PriceShipment(Request{Service: s, Region: "Lazio", Province: "RM", PalletType: "HALF", Quintali: 1})
		if res.Cost != nil {
			t.Fatalf("%s: expected nil cost without tables", s)
		}
	}
	if e.GroupageStep() != 1 {
		t.Fatalf("expected default step")
	}
}

func TestParseService(t *testing.T) {
	cases := map[string]Service{"pallet": Pallet, " Groupage ": Groupage, "gls": Alternate, "BANCALE": Pallet}
	for in, want := range cases {
		got, err := ParseService(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseService("drone"); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestTransformClientPrice(t *testing.T) {
	cost := f(100)
	if got := TransformClientPrice(cost, ClientMargin, 20); got == nil || *got != 125 {
		t.Fatalf("expected margin 20%% to give 125, got %v", got)
	}
	if got := TransformClientPrice(cost, ClientMargin, 100); got != nil {
		t.Fatalf("expected margin 100%% to be not applicable, got %v", *got)
	}
	if got := TransformClientPrice(cost, ClientMarkup, 20); got == nil || *got != 120 {
		t.Fatalf("expected markup 20%% to give 120, got %v", got)
	}
	if got := TransformClientPrice(cost, ParseClientMode("whatever"), 10); got == nil || *got != 110 {
		t.Fatalf("expected unknown mode to fall back to markup, got %v", got)
	}
	if got := TransformClientPrice(nil, ClientMarkup, 10); got != nil {
		t.Fatalf("expected nil cost to be not applicable")
	}
	if got := TransformClientPrice(cost, ClientMarkup, -5); got != nil {
		t.Fatalf("expected negative percentage to be not applicable")
	}
	if ParseClientMode(" MARGIN ") != ClientMargin {
		t.Fatalf("expected margin mode")
	}
}

func TestSummary(t *testing.T) {
	req := Request{
		Service:    Pallet,
		Region:     "Lazio",
		PalletType: "FULL",
		Quantity:   1,
		Options:    Options{Preavviso: true, Assicurazione: true},
		Article:    &catalog.Article{ID: "a1", Brand: "Acme", Name: "Divano", Code: "DV-1"},
	}
	res := engine("").PriceShipment(req)
	s := Summary(req, res, " consegna al piano ")
	for _, want := range []string{
		"SERVIZIO: PALLET",
		"DESTINAZIONE: Lazio",
		"ARTICOLO: Acme Divano (DV-1)",
		"Bancale: FULL",
		"OPZIONI: preavviso, assicurazione",
		"NOTE EXTRA: consegna al piano",
		"COSTO STIMATO: 121,00 €",
		"REGOLE: preavviso | assicurazione",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}

	unpriced := Summary(Request{Service: Groupage, Province: "AO"}, Result{Alerts: []string{"x"}}, "")
	if !strings.Contains(unpriced, "COSTO STIMATO: —") || !strings.Contains(unpriced, "- x") {
		t.Fatalf("unexpected unpriced summary:\n%s", unpriced)
	}
	if !strings.Contains(unpriced, "DESTINAZIONE: AO / —") {
		t.Fatalf("unexpected destination:\n%s", unpriced)
	}
}
