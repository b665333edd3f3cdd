// Package engine runs the per-turn pipeline: extract, score, profile,
// decide, reply. Each turn executes atomically under the session's lock;
// callback dispatch and event publishing happen after the lock is released.
package engine

import (
	"context"

	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services/detect"
	"lurelab/internal/domain/services/extract"
	"lurelab/internal/domain/services/profile"
	"lurelab/internal/persona"
	"lurelab/internal/session"
	"lurelab/internal/streaming"
	"lurelab/pkg/logger"
)

// Dispatcher delivers a callback payload to the external evaluation
// endpoint. Implementations queue and return immediately; delivery failures
// never surface into the pipeline.
type Dispatcher interface {
	Dispatch(kind models.DecisionKind, payload *models.CallbackPayload)
}

// Engine wires the analysis services into one message pipeline.
type Engine struct {
	store      *session.Store
	extractor  *extract.Extractor
	detector   *detect.Detector
	profiler   *profile.Builder
	decider    *Decider
	responder  persona.Responder
	dispatcher Dispatcher
	events     *streaming.EventBus
	logger     *logger.Logger
}

// New assembles the engine. dispatcher and events may be nil; the pipeline
// then analyzes without reporting.
func New(
	store *session.Store,
	extractor *extract.Extractor,
	detector *detect.Detector,
	profiler *profile.Builder,
	decider *Decider,
	responder persona.Responder,
	dispatcher Dispatcher,
	events *streaming.EventBus,
	log *logger.Logger,
) *Engine {
	return &Engine{
		store:      store,
		extractor:  extractor,
		detector:   detector,
		profiler:   profiler,
		decider:    decider,
		responder:  responder,
		dispatcher: dispatcher,
		events:     events,
		logger:     log.WithComponent("engine"),
	}
}

// Result is what one processed message produces for the API layer.
type Result struct {
	SessionID    string          `json:"session_id"`
	Reply        string          `json:"reply,omitempty"`
	Decision     models.Decision `json:"decision"`
	ScamDetected bool            `json:"scam_detected"`
	Confidence   float64         `json:"confidence"`
	ScamType     models.ScamType `json:"scam_type"`
	TurnCount    int             `json:"turn_count"`
	NewItems     int             `json:"new_items"`
}

// Process runs one inbound message through the pipeline. The whole turn is
// atomic with respect to the session: concurrent messages for the same id
// serialize, different sessions never contend.
func (e *Engine) Process(ctx context.Context, req *models.InboundRequest) (*Result, error) {
	res := &Result{SessionID: req.SessionID}
	var firstUnseen bool

	err := e.store.Do(req.SessionID, func(s *models.Session) error {
		firstUnseen = s.TurnCount == 0 && s.TotalMessages == 0

		// A first message may arrive with prior transcript attached. Replay
		// it through accumulation so the state reflects the whole
		// conversation, then decide once on the live message.
		if firstUnseen && len(req.History) > 0 {
			for _, m := range req.History {
				e.accumulate(s, m.Sender, m.Text)
			}
		}

		res.NewItems = e.accumulate(s, req.Sender, req.Text)

		if req.Sender == models.RoleScammer {
			res.Decision = e.decider.Decide(s)
			res.Reply = e.responder.Reply(s, req.Text)
		} else {
			res.Decision = models.Decision{Kind: models.DecisionNone, Reason: "persona-side message"}
		}

		res.ScamDetected = s.ScamDetected
		res.Confidence = s.RunningConfidence
		res.ScamType = s.ScamType
		res.TurnCount = s.TurnCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Lock released; side effects only from here.
	if res.Decision.Kind != models.DecisionNone && res.Decision.Payload != nil && e.dispatcher != nil {
		e.dispatcher.Dispatch(res.Decision.Kind, res.Decision.Payload)
	}
	e.publishDecision(ctx, res)

	return res, nil
}

// accumulate folds one message into session state and returns how many
// intelligence items were added or upgraded. Scammer messages advance the
// turn counter and drive extraction and scoring; persona-side messages only
// contribute to the observed language mix.
func (e *Engine) accumulate(s *models.Session, sender models.SenderRole, text string) int {
	s.TotalMessages++
	lang := persona.DetectLanguage(text)

	if sender != models.RoleScammer {
		s.Profile.AddLanguage(lang)
		return 0
	}

	s.TurnCount++

	hadFinancial := s.Intelligence.CountFinancial() > 0
	items := e.extractor.Extract(text, s)

	if s.FirstExtractionTurn == 0 {
		for _, it := range items {
			if it.Kind.IsFinancial() {
				s.FirstExtractionTurn = s.TurnCount
				break
			}
		}
	}

	det := e.detector.Score(text, detect.TurnContext{
		NewItems:             items,
		HasPriorFinancial:    hadFinancial,
		UrgencyTurns:         s.UrgencyTurns,
		PaymentPressureTurns: s.PaymentPressureTurns,
	})

	if detect.HasSignal(det, "urgency") {
		s.UrgencyTurns++
	}
	if detect.HasSignal(det, "payment_request") {
		s.PaymentPressureTurns++
	}

	// Session verdicts only escalate. A quiet turn never lowers confidence
	// or clears a verdict; that would flap the callback decision.
	if det.Confidence > s.RunningConfidence {
		s.RunningConfidence = det.Confidence
	}
	if det.IsScam {
		s.ScamDetected = true
	}
	if det.ScamType != models.ScamTypeNone &&
		(s.ScamType == models.ScamTypeNone || det.Confidence > s.ScamTypeConfidence) {
		s.ScamType = det.ScamType
		s.ScamTypeConfidence = det.Confidence
	}
	if det.Severity.Rank() > s.Severity.Rank() {
		s.Severity = det.Severity
	}

	e.profiler.Update(s, det, lang)
	return len(items)
}

func (e *Engine) publishDecision(ctx context.Context, res *Result) {
	if e.events == nil || res.Decision.Kind == models.DecisionNone {
		return
	}
	ev := streaming.NewDecisionEvent(res.SessionID, res.Decision.Kind, res.ScamType, res.Confidence, res.TurnCount)
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn().Err(err).Str("session_id", res.SessionID).Msg("event publish failed")
	}
}

// SessionSnapshot exposes a read-only copy of a session for the inspection
// endpoints.
func (e *Engine) SessionSnapshot(id string) (*models.Session, bool) {
	return e.store.Snapshot(id)
}

// Sessions lists snapshots of all live sessions.
func (e *Engine) Sessions() []*models.Session {
	return e.store.List()
}
