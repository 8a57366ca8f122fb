package catalog

import (
	"encoding/json"
	"testing"
)

func sampleArticles() []Article {
	return []Article{
		{ID: "a1", Brand: "Acme", Name: "Divano 3 posti", Code: "DV-300/B", Tags: []string{"divani"}},
		{ID: "a2", Brand: "Lumo", Name: "Lampada", Code: "LMP 01", Tags: []string{"luce", "fragile"}},
		{ID: "a3", Name: "Tavolo", Code: "tv.200"},
	}
}

func TestByCode_IgnoresCaseAndPunctuation(t *testing.T) {
	c := New(sampleArticles())
	for _, code := range []string{"DV-300/B", "dv300b", " Dv 300 b ", "DV.300.B"} {
		a, ok := c.ByCode(code)
		if !ok || a.ID != "a1" {
			t.Fatalf("%q: expected a1, got %+v ok=%v", code, a, ok)
		}
	}
	if _, ok := c.ByCode("nope"); ok {
		t.Fatalf("expected unknown code to miss")
	}
	if _, ok := c.ByCode("--"); ok {
		t.Fatalf("expected punctuation-only code to miss")
	}
}

func TestByID(t *testing.T) {
	c := New(sampleArticles())
	if a, ok := c.ByID("a3"); !ok || a.Name != "Tavolo" {
		t.Fatalf("expected Tavolo, got %+v ok=%v", a, ok)
	}
	if _, ok := c.ByID("zz"); ok {
		t.Fatalf("expected miss")
	}
}

func TestSearch(t *testing.T) {
	c := New(sampleArticles())
	if got := c.Search("", 0); len(got) != 3 {
		t.Fatalf("expected all articles on empty query, got %d", len(got))
	}
	got := c.Search("FRAGILE", 10)
	if len(got) != 1 || got[0].ID != "a2" {
		t.Fatalf("expected tag match a2, got %+v", got)
	}
	got = c.Search("acme", 10)
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("expected brand match a1, got %+v", got)
	}
	if got := c.Search("", 2); len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
}

func TestGroupageParams_Fixed(t *testing.T) {
	a := Article{Rules: Rules{Groupage: &GroupageParams{LinearMeters: 2, Quintali: 3.5, Pallets: 1}}}
	p := a.GroupageParams()
	if p.LinearMeters != 2 || p.Quintali != 3.5 || p.Pallets != 1 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestGroupageParams_AutoRequiresOptIn(t *testing.T) {
	a := Article{Pack: Pack{PalletSize: "FULL", WeightKg: 250, Dims: Dimensions{LengthCm: 120, WidthCm: 80}}}
	if p := a.GroupageParams(); p != (GroupageParams{}) {
		t.Fatalf("expected zero params without opt-in, got %+v", p)
	}
	a.Rules.GroupageAuto = true
	p := a.GroupageParams()
	// 120 x 80 on a 240 cm trailer is 40 cm of floor.
	if p.LinearMeters != 0.4 || p.Quintali != 2.5 || p.Pallets != 1 {
		t.Fatalf("unexpected derived params %+v", p)
	}
}

func TestGroupageParams_DerivedRoundsHalfAwayFromZero(t *testing.T) {
	// 101 x 120 on a 240 cm trailer is 0.505 m, which a float multiply-and-round drops to 0.50.
	a := Article{Pack: Pack{WeightKg: 100.5, Dims: Dimensions{LengthCm: 101, WidthCm: 120}}, Rules: Rules{GroupageAuto: true}}
	p := a.GroupageParams()
	if p.LinearMeters != 0.51 || p.Quintali != 1.01 {
		t.Fatalf("expected 0.51 lm and 1.01 quintali, got %+v", p)
	}
}

func TestGroupageParams_FixedOverridesAutoPerField(t *testing.T) {
	a := Article{
		Pack:  Pack{WeightKg: 90, Dims: Dimensions{LengthCm: 240, WidthCm: 100}},
		Rules: Rules{GroupageAuto: true, Groupage: &GroupageParams{LinearMeters: 1.5}},
	}
	p := a.GroupageParams()
	if p.LinearMeters != 1.5 || p.Quintali != 0.9 || p.Pallets != 0 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestArticleJSON(t *testing.T) {
	raw := `{"id":"x","name":"Armadio","code":"AR-1","pack":{"palletSize":"HALF","weightKg":80,"dims":{"l":100,"w":60,"h":200}},
	"rules":{"forceQuote":true,"forceQuoteReason":"fuori misura","stackable":true,"groupage":{"lm":1.2}}}`
	var a Article
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Rules.ForceQuote || a.Rules.ForceQuoteReason != "fuori misura" || !a.Rules.Stackable {
		t.Fatalf("unexpected rules %+v", a.Rules)
	}
	if a.Pack.Dims.HeightCm != 200 || a.Rules.Groupage.LinearMeters != 1.2 {
		t.Fatalf("unexpected pack %+v", a.Pack)
	}
	if a.Label() != "Armadio (AR-1)" {
		t.Fatalf("unexpected label %q", a.Label())
	}
}
