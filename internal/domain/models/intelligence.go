package models

// IntelKind is a category of extractable identifier.
type IntelKind string

const (
	KindUPIID             IntelKind = "upi_id"
	KindBankAccount       IntelKind = "bank_account"
	KindIFSCCode          IntelKind = "ifsc_code"
	KindPhoneNumber       IntelKind = "phone_number"
	KindAadhaar           IntelKind = "aadhaar"
	KindEmail             IntelKind = "email"
	KindPhishingLink      IntelKind = "phishing_link"
	KindSuspiciousKeyword IntelKind = "suspicious_keyword"
)

// FinancialKinds are the kinds that count toward callback sufficiency.
// Keywords are context, not actionable identifiers.
var FinancialKinds = []IntelKind{
	KindUPIID,
	KindBankAccount,
	KindIFSCCode,
	KindPhoneNumber,
	KindAadhaar,
	KindEmail,
	KindPhishingLink,
}

// IsFinancial reports whether the kind is an actionable identifier.
func (k IntelKind) IsFinancial() bool {
	return k != KindSuspiciousKeyword
}

// GroupName returns the camelCase key the kind uses inside a callback
// payload, matching the rest of the payload's wire casing.
func (k IntelKind) GroupName() string {
	switch k {
	case KindUPIID:
		return "upiIds"
	case KindBankAccount:
		return "bankAccounts"
	case KindIFSCCode:
		return "ifscCodes"
	case KindPhoneNumber:
		return "phoneNumbers"
	case KindAadhaar:
		return "aadhaarNumbers"
	case KindEmail:
		return "emailAddresses"
	case KindPhishingLink:
		return "phishingLinks"
	case KindSuspiciousKeyword:
		return "suspiciousKeywords"
	default:
		return string(k)
	}
}

// ExtractedItem is one normalized piece of intelligence. Items are immutable;
// a higher-confidence re-extraction of the same normalized value supersedes
// the stored item rather than mutating it.
type ExtractedItem struct {
	Kind            IntelKind `json:"kind"`
	NormalizedValue string    `json:"value"`
	RawSourceText   string    `json:"raw_source"`
	Confidence      float64   `json:"confidence"` // 0-1
	SourceTurn      int       `json:"source_turn"`
}

// IntelligenceMap groups extracted items by kind, insertion-ordered within a
// kind. At most one item per (kind, normalized value).
type IntelligenceMap map[IntelKind][]ExtractedItem

// Find returns the stored item for kind+value, if any.
func (m IntelligenceMap) Find(kind IntelKind, value string) (ExtractedItem, bool) {
	for _, it := range m[kind] {
		if it.NormalizedValue == value {
			return it, true
		}
	}
	return ExtractedItem{}, false
}

// Upsert inserts a new item or supersedes an existing one when the new
// confidence is strictly higher. It reports whether the map changed.
func (m IntelligenceMap) Upsert(item ExtractedItem) bool {
	items := m[item.Kind]
	for i, it := range items {
		if it.NormalizedValue != item.NormalizedValue {
			continue
		}
		if item.Confidence > it.Confidence {
			items[i] = item
			return true
		}
		return false
	}
	m[item.Kind] = append(items, item)
	return true
}

// CountFinancial counts items of actionable kinds.
func (m IntelligenceMap) CountFinancial() int {
	n := 0
	for kind, items := range m {
		if kind.IsFinancial() {
			n += len(items)
		}
	}
	return n
}

// Clone returns a deep copy safe to hand out after the session lock is
// released.
func (m IntelligenceMap) Clone() IntelligenceMap {
	out := make(IntelligenceMap, len(m))
	for kind, items := range m {
		cp := make([]ExtractedItem, len(items))
		copy(cp, items)
		out[kind] = cp
	}
	return out
}
