package money

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{121.00000000000001, 121},
		{1.005, 1.01},
		{2.675, 2.68},
		{-1.005, -1.01},
		{10, 10},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Fatalf("Round2(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestFormatEUR(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "—"},
		{Ptr(0), "0,00 €"},
		{Ptr(12.5), "12,50 €"},
		{Ptr(1234.567), "1.234,57 €"},
		{Ptr(1234567), "1.234.567,00 €"},
		{Ptr(-99.9), "-99,90 €"},
	}
	for _, c := range cases {
		if got := FormatEUR(c.in); got != c.want {
			t.Fatalf("expected %q, got %q", c.want, got)
		}
	}
}

func TestFormatPlain(t *testing.T) {
	if got := FormatPlain(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := FormatPlain(Ptr(125)); got != "125.00" {
		t.Fatalf("expected 125.00, got %q", got)
	}
}
