package marketdata

import "testing"

func TestPriceBarValidate(t *testing.T) {
	good := PriceBar{Date: "2024-01-02", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: Int64Ptr(100)}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := PriceBar{Date: "02/01/2024", Open: 0, High: 5, Low: 9, Close: 10, Volume: Int64Ptr(-1)}
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	ve := err.(*ValidationError)
	if len(ve.Reasons) != 4 {
		t.Fatalf("expected 4 reasons, got %v", ve.Reasons)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  brk.b "); got != "BRK.B" {
		t.Fatalf("got %q", got)
	}
}
