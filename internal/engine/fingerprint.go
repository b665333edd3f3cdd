package engine

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"lurelab/internal/domain/models"
)

// Fingerprint hashes the callback-visible state of a session. If anything
// that would appear in a payload changes, the fingerprint changes; identical
// state always hashes the same regardless of map iteration order.
func Fingerprint(s *models.Session) uint64 {
	lines := make([]string, 0, 8)

	for kind, items := range s.Intelligence {
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("i|%s|%s|%.4f", kind, it.NormalizedValue, it.Confidence))
		}
	}
	for _, t := range s.Profile.Tactics {
		lines = append(lines, "t|"+t)
	}
	for _, l := range s.Profile.Languages {
		lines = append(lines, "l|"+l)
	}
	lines = append(lines,
		fmt.Sprintf("s|%s|%s|%s|%v", s.ScamType, s.Severity, s.Profile.Sophistication, s.Profile.MultipleAccountsProvided),
	)
	sort.Strings(lines)

	d := xxhash.New()
	for _, ln := range lines {
		_, _ = d.WriteString(ln)
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}
