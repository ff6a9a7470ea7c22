package commands

import "testing"

func TestFormatTON(t *testing.T) {
	tests := []struct {
		nano uint64
		want string
	}{
		{0, "0"},
		{1_000_000_000, "1"},
		{1_500_000_000, "1.5"},
		{1, "0.000000001"},
		{12_345_000_000, "12.345"},
	}
	for _, tt := range tests {
		if got := formatTON(tt.nano); got != tt.want {
			t.Fatalf("formatTON(%d) = %q, want %q", tt.nano, got, tt.want)
		}
	}
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"y", "Y", "yes", " YES \n"} {
		if !isYes(s) {
			t.Fatalf("isYes(%q) = false", s)
		}
	}
	for _, s := range []string{"", "n", "no", "yep"} {
		if isYes(s) {
			t.Fatalf("isYes(%q) = true", s)
		}
	}
}
