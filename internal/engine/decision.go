package engine

import (
	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// Decider runs the progressive callback protocol for one session. It is a
// pure function of session state plus thresholds; it mutates only the
// callback bookkeeping fields, and only when it fires.
type Decider struct {
	cfg    config.EngineConfig
	logger *logger.Logger
}

// NewDecider creates a decider with the given thresholds.
func NewDecider(cfg config.EngineConfig, log *logger.Logger) *Decider {
	return &Decider{cfg: cfg, logger: log.WithComponent("decider")}
}

// Decide evaluates the per-turn callback decision. Must run under the
// session lock, after extraction, scoring, and profiling for the turn.
//
// The state machine is one-way: NOT_SENT fires at most one CREATE, after
// which every materially new fact fires an UPDATE. There is no transition
// back and no retraction.
func (d *Decider) Decide(s *models.Session) models.Decision {
	if s.CallbackState == models.CallbackNotSent {
		return d.decideCreate(s)
	}
	return d.decideUpdate(s)
}

func (d *Decider) decideCreate(s *models.Session) models.Decision {
	// Confidence floor gates every CREATE path, the safety net included.
	// Below it a report would be noise for the downstream evaluator.
	if s.RunningConfidence < d.cfg.ScamConfidenceFloor {
		return models.Decision{Kind: models.DecisionNone, Reason: "below confidence floor"}
	}

	intel := s.Intelligence.CountFinancial()

	switch {
	case s.TurnCount <= d.cfg.EarlyTriggerWindow &&
		s.RunningConfidence >= d.cfg.HighConfidenceThreshold &&
		intel >= 1:
		return d.fire(s, models.DecisionCreate, "early trigger")

	case s.ScamDetected &&
		intel >= d.cfg.MinIntelligenceItems &&
		s.TurnCount >= d.cfg.MinEngagementTurns:
		return d.fire(s, models.DecisionCreate, "standard trigger")

	case s.ScamDetected && s.TurnCount >= d.cfg.HardCeilingTurns:
		// Safety net: a long confirmed-scam conversation gets reported with
		// whatever was gathered, even zero identifiers.
		return d.fire(s, models.DecisionCreate, "engagement ceiling")
	}

	return models.Decision{Kind: models.DecisionNone, Reason: "accumulating"}
}

func (d *Decider) decideUpdate(s *models.Session) models.Decision {
	fp := Fingerprint(s)
	if fp == s.LastSentFingerprint {
		return models.Decision{Kind: models.DecisionNone, Reason: "no new intelligence"}
	}
	return d.fire(s, models.DecisionUpdate, "state changed since last report")
}

func (d *Decider) fire(s *models.Session, kind models.DecisionKind, reason string) models.Decision {
	if kind == models.DecisionCreate {
		s.CallbackState = models.CallbackSent
	} else {
		s.CallbackState = models.CallbackUpdated
	}
	s.LastCallbackTurn = s.TurnCount
	s.LastSentFingerprint = Fingerprint(s)

	d.logger.Info().
		Str("session_id", s.ID).
		Str("decision", string(kind)).
		Str("reason", reason).
		Int("turn", s.TurnCount).
		Float64("confidence", s.RunningConfidence).
		Int("intel_items", s.Intelligence.CountFinancial()).
		Msg("callback decision")

	return models.Decision{Kind: kind, Reason: reason, Payload: BuildPayload(s)}
}
