package group

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"MegaCap Tech":      "megacap-tech",
		"  My Watchlist  ":  "my-watchlist",
		"--AI & Chips!--":   "ai-chips",
		"Semis/Equipment 2": "semis-equipment-2",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUniqueSymbols(t *testing.T) {
	got := UniqueSymbols([]string{"aapl", "MSFT", " AAPL ", "", "nvda", "msft"})
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestTypeValid(t *testing.T) {
	if !TypeSector.Valid() {
		t.Fatalf("sector should be valid")
	}
	if Type("portfolio").Valid() {
		t.Fatalf("portfolio should be invalid")
	}
}

func TestTemplatesAreCopies(t *testing.T) {
	first := Templates()
	if len(first) == 0 {
		t.Fatalf("expected built-in templates")
	}
	first[0].Symbols[0] = "CHANGED"

	second := Templates()
	if second[0].Symbols[0] == "CHANGED" {
		t.Fatalf("templates must not share backing arrays")
	}
}

func TestTemplateIDs(t *testing.T) {
	want := []string{
		"mega-cap-tech",
		"semiconductors",
		"us-banks",
		"energy-majors",
		"consumer-staples",
		"healthcare-leaders",
		"broad-market-etfs",
	}
	tpls := Templates()
	if len(tpls) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(tpls))
	}
	for i, tpl := range tpls {
		if tpl.ID != want[i] {
			t.Errorf("template %d: expected id %q, got %q", i, want[i], tpl.ID)
		}
		if len(tpl.Symbols) == 0 {
			t.Errorf("template %q has no symbols", tpl.ID)
		}
	}
}
