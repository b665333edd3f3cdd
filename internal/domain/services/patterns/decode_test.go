package patterns

import (
	"strings"
	"testing"
)

func variantSteps(t *testing.T, variants []Variant, substr string) int {
	t.Helper()
	for _, v := range variants {
		if strings.Contains(v.Text, substr) {
			return v.Steps
		}
	}
	t.Fatalf("no variant contains %q in %v", substr, variants)
	return 0
}

func TestDecodeNumberWords(t *testing.T) {
	variants := Decode("nine eight seven six five four three two one zero, paytm at ybl")

	// the full phone number must appear after a single decoding step
	if steps := variantSteps(t, variants, "9876543210"); steps != 1 {
		t.Errorf("number-word decoding charged %d steps, want 1", steps)
	}
	// the assembled UPI id must also be one step away from the raw text
	if steps := variantSteps(t, variants, "paytm@ybl"); steps != 1 {
		t.Errorf("symbol decoding charged %d steps, want 1", steps)
	}
}

func TestDecodeHindiNumberWords(t *testing.T) {
	variants := Decode("nau aath saat che panch char teen do ek shunya pe bhejo")
	if steps := variantSteps(t, variants, "9876543210"); steps != 1 {
		t.Errorf("hindi number words charged %d steps, want 1", steps)
	}
}

func TestDecodeSpacedDigits(t *testing.T) {
	variants := Decode("number is 9 8 7 6 5 4 3 2 1 0 ok")
	if steps := variantSteps(t, variants, "9876543210"); steps != 1 {
		t.Errorf("digit despacing charged %d steps, want 1", steps)
	}
}

func TestDecodeSymbols(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fraud (at) paytm", "fraud@paytm"},
		{"fraud [at] okaxis", "fraud@okaxis"},
		{"visit example dot com", "example.com"},
	}
	for _, tt := range tests {
		variants := Decode(tt.in)
		variantSteps(t, variants, tt.want)
	}
}

func TestDecodeKeepsSeparateNumbersApart(t *testing.T) {
	// a sentence boundary between two numbers must not concatenate them
	for _, v := range Decode("my number is 9876543210. 500 rupees sent already") {
		if strings.Contains(v.Text, "9876543210500") {
			t.Errorf("unrelated numbers concatenated in variant %q", v.Text)
		}
	}

	// multi-digit groups are already numbers, not spelled-out digits
	for _, v := range Decode("sent 500 2300 yesterday") {
		if strings.Contains(v.Text, "5002300") {
			t.Errorf("digit groups concatenated in variant %q", v.Text)
		}
	}
}

func TestDecodePlainTextYieldsNothing(t *testing.T) {
	if variants := Decode("hello, how are you doing?"); len(variants) != 0 {
		t.Errorf("undecodable text produced variants %v", variants)
	}
	if variants := Decode(""); variants != nil {
		t.Errorf("empty text produced variants %v", variants)
	}
}

func TestDecodeKeepsMinimumSteps(t *testing.T) {
	// reachable by the single despace step and again inside the cumulative
	// chain; the cheaper path must win
	variants := Decode("urgent: 9 8 7 6 5 4 3 2 1 0")
	if steps := variantSteps(t, variants, "9876543210"); steps != 1 {
		t.Errorf("deduplication kept %d steps, want 1", steps)
	}
}
