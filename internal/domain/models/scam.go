package models

// ScamType classifies the scheme being run against the persona.
type ScamType string

const (
	ScamTypeBankFraud   ScamType = "bank_fraud"
	ScamTypeLottery     ScamType = "lottery"
	ScamTypeKYC         ScamType = "kyc"
	ScamTypeUPIFraud    ScamType = "upi_fraud"
	ScamTypeJobScam     ScamType = "job_scam"
	ScamTypeTechSupport ScamType = "tech_support"
	ScamTypeCustoms     ScamType = "customs"
	ScamTypeInvestment  ScamType = "investment"
	ScamTypeOther       ScamType = "other"
	ScamTypeNone        ScamType = "none"
)

// Severity buckets a confidence score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so the session-level severity can only escalate.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Detection is the per-message output of the detector.
type Detection struct {
	Confidence float64  `json:"confidence"` // 0-100
	ScamType   ScamType `json:"scam_type"`
	Severity   Severity `json:"severity"`
	IsScam     bool     `json:"is_scam"`
	Signals    []string `json:"signals,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
}
