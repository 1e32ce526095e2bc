package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{"490", 49000, true},
		{"0.01", 1, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestParseSignedCents(t *testing.T) {
	got, err := ParseSignedCents("-15000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -1_500_000 {
		t.Fatalf("got %d, want -1500000", got)
	}
	if _, err := ParseSignedCents("0"); err == nil {
		t.Fatalf("zero should be rejected")
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := Money{Cents: 224_889}
	if got := MoneyFromDecimal(m.Decimal()); got != m {
		t.Fatalf("round trip changed value: %v -> %v", m, got)
	}
	if m.Float() != 2248.89 {
		t.Fatalf("float = %v, want 2248.89", m.Float())
	}
}
