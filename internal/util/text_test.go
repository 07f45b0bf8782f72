package util

import "testing"

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{" liv-001 ", "LIV-001"},
		{"978 2070 368228", "9782070368228"},
		{"réf/a.b_c", "RÉF/A.B_C"},
		{"a#b!c", "ABC"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeCode(tc.in); got != tc.want {
				t.Fatalf("NormalizeCode(%q)=%q want %q", tc.in, got, tc.want)
			}
		})
	}
}
