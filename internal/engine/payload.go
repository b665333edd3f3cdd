package engine

import (
	"fmt"
	"strings"

	"lurelab/internal/domain/models"
)

// BuildPayload renders the complete cumulative report for a session. Every
// CREATE and UPDATE carries the full picture; the receiver never has to
// stitch deltas together. Must run under the session lock.
func BuildPayload(s *models.Session) *models.CallbackPayload {
	intel := make(map[string][]models.IntelligenceGroup, len(s.Intelligence))
	for kind, items := range s.Intelligence {
		groups := make([]models.IntelligenceGroup, 0, len(items))
		for _, it := range items {
			groups = append(groups, models.IntelligenceGroup{
				Value:      it.NormalizedValue,
				Confidence: it.Confidence,
				SourceTurn: it.SourceTurn,
			})
		}
		intel[kind.GroupName()] = groups
	}

	duration := int(s.LastActivity.Sub(s.CreatedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	return &models.CallbackPayload{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: s.TotalMessages,
		ExtractedIntelligence:  intel,
		ScammerProfile: models.ScammerProfile{
			ScamType:                 s.ScamType,
			Severity:                 s.Severity,
			SophisticationLevel:      s.Profile.Sophistication.String(),
			TacticsObserved:          append([]string(nil), s.Profile.Tactics...),
			LanguageUsed:             append([]string(nil), s.Profile.Languages...),
			MultipleAccountsProvided: s.Profile.MultipleAccountsProvided,
		},
		EngagementMetrics: models.EngagementMetrics{
			DurationSeconds: duration,
			TurnCount:       s.TurnCount,
		},
		AgentNotes: agentNotes(s),
	}
}

func agentNotes(s *models.Session) string {
	var b strings.Builder

	if s.ScamDetected {
		fmt.Fprintf(&b, "Confirmed %s attempt at %.0f%% confidence over %d turns.",
			s.ScamType, s.RunningConfidence, s.TurnCount)
	} else {
		fmt.Fprintf(&b, "Suspicious conversation, %d turns, confidence %.0f%%.",
			s.TurnCount, s.RunningConfidence)
	}

	financial := s.Intelligence.CountFinancial()
	if financial > 0 {
		fmt.Fprintf(&b, " Captured %d financial identifier(s) across %d kind(s).",
			financial, s.DistinctFinancialKinds())
	} else {
		b.WriteString(" No financial identifiers captured yet.")
	}

	if s.Profile.MultipleAccountsProvided {
		b.WriteString(" Counterpart offered multiple accounts of the same kind.")
	}
	if len(s.Profile.Tactics) > 0 {
		fmt.Fprintf(&b, " Tactics observed: %s.", strings.Join(s.Profile.Tactics, ", "))
	}
	return b.String()
}
