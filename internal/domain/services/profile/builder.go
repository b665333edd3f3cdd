// Package profile derives a behavioral picture of the scammer from the
// session's accumulated state. Tactics accumulate by union and the
// sophistication level never downgrades.
package profile

import (
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// Tactic tags recorded on the profile.
const (
	TacticUrgency              = "urgency"
	TacticFear                 = "fear"
	TacticAuthority            = "authority"
	TacticCredentialHarvesting = "credential_harvesting"
	TacticGreed                = "greed"
	TacticPaymentPressure      = "payment_pressure"
	TacticLinkLure             = "link_lure"
)

// Detection signal names mapped onto tactic tags.
var signalTactics = map[string]string{
	"urgency":                  TacticUrgency,
	"threat":                   TacticFear,
	"authority_impersonation":  TacticAuthority,
	"credential_request":       TacticCredentialHarvesting,
	"prize_offer":              TacticGreed,
	"payment_request":          TacticPaymentPressure,
	"suspicious_link":          TacticLinkLure,
}

// Builder updates a session's profile after each scored turn.
type Builder struct {
	logger *logger.Logger
}

// NewBuilder creates a profile builder.
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{logger: log.WithComponent("profile")}
}

// Update folds the latest detection and the observed message language into
// the session profile. Must run under the session lock.
func (b *Builder) Update(session *models.Session, det models.Detection, language string) {
	p := &session.Profile

	for _, sig := range det.Signals {
		if tag, ok := signalTactics[sig]; ok {
			p.AddTactic(tag)
		}
	}
	if language != "" {
		p.AddLanguage(language)
	}

	p.MultipleAccountsProvided = multipleAccounts(session.Intelligence)

	if level := b.sophistication(session); level > p.Sophistication {
		b.logger.Debug().
			Str("session_id", session.ID).
			Str("level", level.String()).
			Msg("sophistication upgraded")
		p.Sophistication = level
	}
}

func multipleAccounts(intel models.IntelligenceMap) bool {
	for kind, items := range intel {
		if kind.IsFinancial() && len(items) >= 2 {
			return true
		}
	}
	return false
}

// sophistication scores operational complexity: how many distinct identifier
// kinds the scammer has revealed, how many tactics they have used, and
// whether they adapted by producing intelligence only after the opening turn
// stalled.
func (b *Builder) sophistication(session *models.Session) models.SophisticationLevel {
	score := session.DistinctFinancialKinds()
	score += len(session.Profile.Tactics) / 2
	if session.FirstExtractionTurn > 1 {
		score++
	}

	switch {
	case score >= 5:
		return models.SophisticationHigh
	case score >= 3:
		return models.SophisticationMedium
	default:
		return models.SophisticationLow
	}
}
