package models

import "time"

// SophisticationLevel is an ordinal estimate of scammer operational
// complexity. It never decreases within a session.
type SophisticationLevel int

const (
	SophisticationLow SophisticationLevel = iota
	SophisticationMedium
	SophisticationHigh
)

func (s SophisticationLevel) String() string {
	switch s {
	case SophisticationHigh:
		return "high"
	case SophisticationMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText renders the level as its name.
func (s SophisticationLevel) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Profile is the accumulated behavioral picture of the counterpart.
type Profile struct {
	Tactics                  []string            `json:"tactics"`
	Sophistication           SophisticationLevel `json:"sophistication"`
	Languages                []string            `json:"languages"`
	MultipleAccountsProvided bool                `json:"multiple_accounts_provided"`
}

// HasTactic reports whether the tactic tag has been observed.
func (p *Profile) HasTactic(tag string) bool {
	for _, t := range p.Tactics {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTactic records a tactic tag once, preserving observation order.
func (p *Profile) AddTactic(tag string) {
	if !p.HasTactic(tag) {
		p.Tactics = append(p.Tactics, tag)
	}
}

// AddLanguage records an observed language once.
func (p *Profile) AddLanguage(lang string) {
	for _, l := range p.Languages {
		if l == lang {
			return
		}
	}
	p.Languages = append(p.Languages, lang)
}

// CallbackState tracks where a session is in the reporting protocol.
type CallbackState string

const (
	CallbackNotSent CallbackState = "not_sent"
	CallbackSent    CallbackState = "sent"
	CallbackUpdated CallbackState = "updated"
)

// Session is the accumulated state of one conversation, keyed by an opaque
// identifier. All mutation happens inside the per-turn pipeline under the
// store's per-session lock.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// TurnCount counts scammer messages fed through the pipeline. It never
	// decreases. User messages are profile context only.
	TurnCount     int `json:"turn_count"`
	TotalMessages int `json:"total_messages"`

	Intelligence IntelligenceMap `json:"intelligence"`

	ScamType           ScamType `json:"scam_type"`
	ScamTypeConfidence float64  `json:"scam_type_confidence"`
	// RunningConfidence only moves up; retractions would flap the callback
	// decision.
	RunningConfidence float64  `json:"running_confidence"`
	Severity          Severity `json:"severity"`
	ScamDetected      bool     `json:"scam_detected"`

	Profile Profile `json:"profile"`

	CallbackState        CallbackState `json:"callback_state"`
	LastCallbackTurn     int           `json:"last_callback_turn"` // 0 = never
	LastSentFingerprint  uint64        `json:"last_sent_fingerprint"`
	FirstExtractionTurn  int           `json:"first_extraction_turn"` // 0 = none yet
	UrgencyTurns         int           `json:"urgency_turns"`
	PaymentPressureTurns int           `json:"payment_pressure_turns"`

	LastActivity time.Time `json:"last_activity"`
}

// NewSession creates the default state for a session id.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		CreatedAt:     now,
		Intelligence:  make(IntelligenceMap),
		ScamType:      ScamTypeNone,
		Severity:      SeverityLow,
		CallbackState: CallbackNotSent,
		LastActivity:  now,
	}
}

// DistinctFinancialKinds counts how many actionable kinds hold at least one
// item.
func (s *Session) DistinctFinancialKinds() int {
	n := 0
	for kind, items := range s.Intelligence {
		if kind.IsFinancial() && len(items) > 0 {
			n++
		}
	}
	return n
}

// Snapshot returns a deep copy of the session safe to use outside the lock.
func (s *Session) Snapshot() *Session {
	cp := *s
	cp.Intelligence = s.Intelligence.Clone()
	cp.Profile.Tactics = append([]string(nil), s.Profile.Tactics...)
	cp.Profile.Languages = append([]string(nil), s.Profile.Languages...)
	return &cp
}
