package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"---", ""},
		{"BMW", "bmw"},
		{"  E90 ", "e90"},
		{"2.0 TDI", "2 0 tdi"},
		{"Mercedes-Benz", "mercedes benz"},
		{"A4//B8", "a4 b8"},
		{"N47D20", "n47d20"},
		{"Golf   VII", "golf vii"},
		{"!!!BMW***E90!!!", "bmw e90"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "BMW E90", "  2.0-TDI  ", "ünïcödé", "a b c", "X5 xDrive30d"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_NeverWhitespaceOnly(t *testing.T) {
	for _, in := range []string{" ", "\t\n", "-- --", "...", "§§"} {
		got := Normalize(in)
		if got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"BMW", "E90"}, "bmw e90"},
		{[]string{"bmw", "", "e90"}, "bmw e90"},
		{[]string{"", ""}, ""},
		{[]string{"Audi", "A4", "B8"}, "audi a4 b8"},
	}
	for _, tt := range tests {
		if got := Join(tt.parts...); got != tt.want {
			t.Errorf("Join(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
