package render

import "testing"

func TestFormatSolutionRounding(t *testing.T) {
	tests := []struct {
		name     string
		solution string
		order    int
		rounding string
		want     string
	}{
		{"rounds to four digits", "y = 1.23456789*x", 1, "4", "y = 1.2346*x"},
		{"rounds to six digits", "y = 1.23456789*x", 1, "6", "y = 1.234568*x"},
		{"no rounding keeps literal", "y = 1.23456789*x", 1, "16", "y = 1.23456789*x"},
		{"integers untouched", "y = 3*x + 12", 1, "4", "y = 3*x + 12"},
		{"scientific notation", "y = 1.23456789e-05*x", 1, "4", "y = 0*x"},
		{"trailing zeros dropped", "y = 0.50000001*x", 1, "4", "y = 0.5*x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSolution(tt.solution, tt.order, tt.rounding)
			if got != tt.want {
				t.Errorf("FormatSolution(%q, %d, %q) = %q, want %q", tt.solution, tt.order, tt.rounding, got, tt.want)
			}
		})
	}
}

func TestFormatSolutionComponents(t *testing.T) {
	got := FormatSolution("x + 1; x*x", 2, "16")
	want := "y = x + 1\nz = x*x"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Components already carrying "=" keep their own labels.
	got = FormatSolution("y = x + 1; z = x*x", 2, "16")
	want = "y = x + 1\nz = x*x"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// A first-order solution is never relabeled.
	got = FormatSolution("x + 1", 1, "16")
	if got != "x + 1" {
		t.Errorf("got %q, want %q", got, "x + 1")
	}
}

func TestVariableName(t *testing.T) {
	names := []string{"y", "z", "w", "u", "y4", "y5"}
	for i, want := range names {
		if got := VariableName(i); got != want {
			t.Errorf("VariableName(%d) = %q, want %q", i, got, want)
		}
	}
}
