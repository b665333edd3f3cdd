package models

// DecisionKind is the per-turn callback decision.
type DecisionKind string

const (
	DecisionNone   DecisionKind = "none"
	DecisionCreate DecisionKind = "create"
	DecisionUpdate DecisionKind = "update"
)

// Decision is the output of the callback decision engine for one turn.
type Decision struct {
	Kind    DecisionKind     `json:"kind"`
	Reason  string           `json:"reason,omitempty"`
	Payload *CallbackPayload `json:"payload,omitempty"`
}

// IntelligenceGroup is one reported item inside a callback payload.
type IntelligenceGroup struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceTurn int     `json:"sourceTurn"`
}

// ScammerProfile is the behavioral section of a callback payload.
type ScammerProfile struct {
	ScamType                 ScamType `json:"scamType"`
	Severity                 Severity `json:"severity"`
	SophisticationLevel      string   `json:"sophisticationLevel"`
	TacticsObserved          []string `json:"tacticsObserved"`
	LanguageUsed             []string `json:"languageUsed"`
	MultipleAccountsProvided bool     `json:"multipleAccountsProvided"`
}

// EngagementMetrics summarizes how long the persona held the scammer.
type EngagementMetrics struct {
	DurationSeconds int `json:"durationSeconds"`
	TurnCount       int `json:"turnCount"`
}

// CallbackPayload is the full cumulative snapshot handed to the external
// evaluation endpoint on CREATE and on every UPDATE. Always the complete
// picture, never a delta.
type CallbackPayload struct {
	SessionID              string                         `json:"sessionId"`
	ScamDetected           bool                           `json:"scamDetected"`
	TotalMessagesExchanged int                            `json:"totalMessagesExchanged"`
	ExtractedIntelligence  map[string][]IntelligenceGroup `json:"extractedIntelligence"`
	ScammerProfile         ScammerProfile                 `json:"scammerProfile"`
	EngagementMetrics      EngagementMetrics              `json:"engagementMetrics"`
	AgentNotes             string                         `json:"agentNotes"`
}
