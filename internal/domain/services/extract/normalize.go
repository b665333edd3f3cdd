package extract

import (
	"strings"

	"lurelab/internal/domain/models"
)

// Normalize canonicalizes a raw recognizer match for its kind. It is
// idempotent: Normalize(kind, Normalize(kind, x)) == Normalize(kind, x).
func Normalize(kind models.IntelKind, raw string) string {
	switch kind {
	case models.KindUPIID, models.KindEmail:
		return strings.ToLower(strings.TrimSpace(raw))
	case models.KindIFSCCode:
		return strings.ToUpper(strings.TrimSpace(raw))
	case models.KindPhoneNumber:
		return normalizePhone(raw)
	case models.KindBankAccount, models.KindAadhaar:
		return digitsOnly(raw)
	case models.KindPhishingLink:
		return normalizeURL(raw)
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizePhone strips separators and the +91/91/0 country prefix down to
// the 10-digit national number.
func normalizePhone(raw string) string {
	d := digitsOnly(raw)
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}
	return d
}

// normalizeURL lowercases the scheme and host; path and query keep their
// case because they can be significant.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(strings.TrimRight(raw, ".,;:!?)]>'\""))
	i := strings.Index(raw, "://")
	if i < 0 {
		return strings.ToLower(raw)
	}
	rest := raw[i+3:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return strings.ToLower(raw)
	}
	return strings.ToLower(raw[:i+3]+rest[:slash]) + rest[slash:]
}
