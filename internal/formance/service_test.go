package formance

import "testing"

func TestFormanceAsset(t *testing.T) {
	if got := formanceAsset("USD"); got != "USD/2" {
		t.Errorf("Expected USD/2, got %s", got)
	}
	// Cause tokens fall back to the default precision.
	if got := formanceAsset("RIV"); got != "RIV/6" {
		t.Errorf("Expected RIV/6, got %s", got)
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		symbol string
		want   string
	}{
		{95.0, "USD", "9500"},
		{0.008, "RIV", "8000"},
		{9087.1, "RIV", "9087100000"},
		{0.0000001, "RIV", "0"},
	}
	for _, tt := range tests {
		if got := minorUnits(tt.amount, tt.symbol); got != tt.want {
			t.Errorf("minorUnits(%v, %s) = %s, want %s", tt.amount, tt.symbol, got, tt.want)
		}
	}
}
