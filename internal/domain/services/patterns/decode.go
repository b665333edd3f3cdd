package patterns

import (
	"regexp"
	"strings"
)

// Variant is one decoded rendering of a message. Steps counts how many
// decoding passes changed the text on the way to it; the extractor charges a
// confidence penalty per step.
type Variant struct {
	Text  string
	Steps int
}

// Spelled-out digits, English and Hindi/Hinglish.
var numberWords = map[string]byte{
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"oh": '0',
	"shunya": '0', "sunya": '0', "ek": '1', "do": '2', "teen": '3',
	"tin": '3', "char": '4', "chaar": '4', "panch": '5', "paanch": '5',
	"che": '6', "chhe": '6', "cheh": '6', "saat": '7', "aath": '8',
	"nau": '9',
}

var symbolSubs = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?i)\s*\(at\)\s*`), "@"},
	{regexp.MustCompile(`(?i)\s*\[at\]\s*`), "@"},
	{regexp.MustCompile(`(?i)\s+at\s+`), "@"},
	{regexp.MustCompile(`(?i)\s*\(dot\)\s*`), "."},
	{regexp.MustCompile(`(?i)\s*\[dot\]\s*`), "."},
	{regexp.MustCompile(`(?i)\s+dot\s+`), "."},
	{regexp.MustCompile(`(?i)\s+underscore\s+`), "_"},
	{regexp.MustCompile(`(?i)\s+dash\s+`), "-"},
}

var (
	wordSplitRe = regexp.MustCompile(`[\s,;]+`)
	// A run of single digits each separated by exactly one space, dot or
	// dash. Multi-digit groups and multi-character separators stay apart;
	// "9876543210. 500" is two numbers, not one.
	spacedDigitsRe = regexp.MustCompile(`\b\d(?:[\s.\-]\d)+\b`)
)

// decodeSymbols rewrites spoken punctuation into the symbols it stands for.
func decodeSymbols(text string) string {
	for _, s := range symbolSubs {
		text = s.re.ReplaceAllString(text, s.with)
	}
	return text
}

// decodeNumberWords rewrites runs of spelled-out digits into digit runs.
// Words that are not number words pass through untouched.
func decodeNumberWords(text string) string {
	tokens := wordSplitRe.Split(text, -1)
	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) > 0 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(run)
			run = run[:0]
		}
	}
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if d, ok := numberWords[strings.ToLower(tok)]; ok {
			run = append(run, d)
			continue
		}
		flush()
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	flush()
	return b.String()
}

// collapseSpacedDigits joins runs of single digits split by spaces, dots or
// dashes ("9 8 7 6" -> "9876").
func collapseSpacedDigits(text string) string {
	return spacedDigitsRe.ReplaceAllStringFunc(text, func(run string) string {
		var b strings.Builder
		for _, r := range run {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}

// Decode produces the decoded variants of a message. The raw text itself is
// not included. Variants are deduplicated, keeping the lowest step count, so
// a value reachable by one step is never charged for two.
func Decode(text string) []Variant {
	text = prepare(text)
	if text == "" {
		return nil
	}

	type step struct {
		name  string
		apply func(string) string
	}
	steps := []step{
		{"symbols", decodeSymbols},
		{"numwords", decodeNumberWords},
		{"despace", collapseSpacedDigits},
	}

	best := map[string]int{}
	// single steps
	for _, s := range steps {
		if decoded := s.apply(text); decoded != text {
			if prev, ok := best[decoded]; !ok || prev > 1 {
				best[decoded] = 1
			}
		}
	}
	// cumulative chain
	cur, applied := text, 0
	for _, s := range steps {
		decoded := s.apply(cur)
		if decoded == cur {
			continue
		}
		cur = decoded
		applied++
		if prev, ok := best[cur]; !ok || prev > applied {
			best[cur] = applied
		}
	}

	out := make([]Variant, 0, len(best))
	for v, n := range best {
		out = append(out, Variant{Text: v, Steps: n})
	}
	return out
}
