// Package extract turns raw recognizer hits into normalized, confidence
// scored intelligence items and dedups them against session history.
package extract

import (
	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services/patterns"
	"lurelab/pkg/logger"
)

// Confidence rule constants. Structured matches start high, matches that only
// surface after obfuscation decoding are charged per decoding step, and
// matches corroborated by suspicious keywords in the same message get a small
// boost.
const (
	baseStructured  = 0.95 // UPI, IFSC: format is self-validating
	baseNumeric     = 0.90 // phone, bank account, aadhaar, url, email
	baseKeyword     = 0.60
	decodePenalty   = 0.15
	corroboration   = 0.05
	minConfidence   = 0.05
	phishingFlagged = 0.90
	plainLink       = 0.70
)

// Extractor applies the pattern library to one message at a time. Stateless;
// session state is passed in and the caller holds the session lock.
type Extractor struct {
	lib    *patterns.Library
	logger *logger.Logger
}

// NewExtractor creates an extractor over the given pattern library.
func NewExtractor(lib *patterns.Library, log *logger.Logger) *Extractor {
	return &Extractor{
		lib:    lib,
		logger: log.WithComponent("extractor"),
	}
}

// Extract scans the message (raw and decoded variants), normalizes and scores
// every candidate, merges into the session's intelligence map, and returns
// only items that are new or confidence-upgraded this turn. Malformed or
// empty input yields an empty result, never an error.
func (e *Extractor) Extract(text string, session *models.Session) []models.ExtractedItem {
	if text == "" || session == nil {
		return nil
	}

	keywords := e.lib.Keywords(text)
	boost := 0.0
	if len(keywords) > 0 {
		boost = corroboration
	}

	// Gather candidates with the fewest decoding steps that reveal them.
	type scored struct {
		cand  patterns.Candidate
		steps int
	}
	byValue := map[string]scored{}
	record := func(c patterns.Candidate, steps int) {
		norm := Normalize(c.Kind, c.Raw)
		if norm == "" {
			return
		}
		key := string(c.Kind) + "\x00" + norm
		if prev, ok := byValue[key]; ok && prev.steps <= steps {
			return
		}
		byValue[key] = scored{cand: c, steps: steps}
	}

	for _, c := range e.lib.Scan(text) {
		record(c, 0)
	}
	for _, v := range patterns.Decode(text) {
		for _, c := range e.lib.ScanDecoded(v.Text) {
			record(c, v.Steps)
		}
	}

	var changed []models.ExtractedItem

	for _, sc := range byValue {
		conf := e.confidence(sc.cand, sc.steps, boost)
		item := models.ExtractedItem{
			Kind:            sc.cand.Kind,
			NormalizedValue: Normalize(sc.cand.Kind, sc.cand.Raw),
			RawSourceText:   sc.cand.Raw,
			Confidence:      conf,
			SourceTurn:      session.TurnCount,
		}
		if session.Intelligence.Upsert(item) {
			changed = append(changed, item)
		}
	}

	// Keywords are intelligence too, at reduced weight.
	for _, kw := range keywords {
		item := models.ExtractedItem{
			Kind:            models.KindSuspiciousKeyword,
			NormalizedValue: kw,
			RawSourceText:   kw,
			Confidence:      baseKeyword,
			SourceTurn:      session.TurnCount,
		}
		if session.Intelligence.Upsert(item) {
			changed = append(changed, item)
		}
	}

	if len(changed) > 0 {
		e.logger.Debug().
			Str("session_id", session.ID).
			Int("turn", session.TurnCount).
			Int("new_items", len(changed)).
			Msg("intelligence extracted")
	}
	return changed
}

func (e *Extractor) confidence(c patterns.Candidate, steps int, boost float64) float64 {
	var base float64
	switch c.Kind {
	case models.KindUPIID, models.KindIFSCCode:
		base = baseStructured
	case models.KindPhishingLink:
		if e.lib.IsPhishingStyle(c.Raw) {
			base = phishingFlagged
		} else {
			base = plainLink
		}
	default:
		base = baseNumeric
	}
	conf := base - decodePenalty*float64(steps) + boost
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < minConfidence {
		conf = minConfidence
	}
	return conf
}
