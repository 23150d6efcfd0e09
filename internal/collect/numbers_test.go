package collect

import "testing"

func TestParseCount(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"1,234,567", 1234567, true},
		{"1234567", 1234567, true},
		{"12.3만", 123000, true},
		{"830만", 8300000, true},
		{"1.2M", 1200000, true},
		{"4m", 4000000, true},
		{"830.4K", 830400, true},
		{"2k", 2000, true},
		{"  42  ", 42, true},
		{"0", 0, true},
		{"", 0, false},
		{"-", 0, false},
		{"none", 0, false},
		{"재생수", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseCount(tc.text)
		if ok != tc.ok {
			t.Fatalf("ParseCount(%q) ok = %v, want %v", tc.text, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseCount(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestExtractCountFindsTokenInLabelledText(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"전체 재생수 1,234,567", 1234567, true},
		{"plays: 12.3만 today", 123000, true},
		{"listeners 830.4K and climbing", 830400, true},
		{"no numbers here", 0, false},
	}

	for _, tc := range cases {
		got, ok := extractCount(tc.text)
		if ok != tc.ok {
			t.Fatalf("extractCount(%q) ok = %v, want %v", tc.text, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("extractCount(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
