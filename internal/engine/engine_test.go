package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services/detect"
	"lurelab/internal/domain/services/extract"
	"lurelab/internal/domain/services/patterns"
	"lurelab/internal/domain/services/profile"
	"lurelab/internal/session"
	"lurelab/pkg/logger"
)

type staticResponder struct{}

func (staticResponder) Reply(*models.Session, string) string { return "ok tell me more" }

type recordingDispatcher struct {
	kinds    []models.DecisionKind
	payloads []*models.CallbackPayload
}

func (r *recordingDispatcher) Dispatch(kind models.DecisionKind, p *models.CallbackPayload) {
	r.kinds = append(r.kinds, kind)
	r.payloads = append(r.payloads, p)
}

func newTestEngine(t *testing.T) (*Engine, *recordingDispatcher) {
	t.Helper()
	log := logger.NewDefault()
	lib := patterns.NewLibrary()
	store := session.NewStore(config.SessionConfig{MaxSessions: 100, IdleTTL: time.Hour}, log)
	disp := &recordingDispatcher{}
	eng := New(
		store,
		extract.NewExtractor(lib, log),
		detect.NewDetector(detect.DefaultConfig(), log),
		profile.NewBuilder(log),
		NewDecider(config.DefaultEngineConfig(), log),
		staticResponder{},
		disp,
		nil,
		log,
	)
	return eng, disp
}

func send(t *testing.T, eng *Engine, id string, sender models.SenderRole, text string) *Result {
	t.Helper()
	res, err := eng.Process(context.Background(), &models.InboundRequest{
		SessionID: id,
		Sender:    sender,
		Text:      text,
	})
	require.NoError(t, err)
	return res
}

func TestBenignConversationStaysQuiet(t *testing.T) {
	eng, disp := newTestEngine(t)

	res := send(t, eng, "s-benign", models.RoleScammer, "Hi, how are you?")

	assert.Equal(t, models.DecisionNone, res.Decision.Kind)
	assert.False(t, res.ScamDetected)
	assert.Zero(t, res.Confidence)
	assert.Zero(t, res.NewItems)
	assert.NotEmpty(t, res.Reply)
	assert.Empty(t, disp.kinds)
}

func TestCallbackFloorHoldsForever(t *testing.T) {
	eng, disp := newTestEngine(t)

	// well past the engagement ceiling without a single scam signal
	for i := 0; i < 15; i++ {
		res := send(t, eng, "s-floor", models.RoleScammer, "nice weather today, no?")
		assert.Equal(t, models.DecisionNone, res.Decision.Kind, "turn %d", i+1)
	}
	assert.Empty(t, disp.kinds)
}

func TestEarlyTriggerAtTurnThree(t *testing.T) {
	eng, disp := newTestEngine(t)

	r1 := send(t, eng, "s-early", models.RoleScammer, "hello sir, calling about your account")
	assert.Equal(t, models.DecisionNone, r1.Decision.Kind)

	r2 := send(t, eng, "s-early", models.RoleScammer, "there is a problem with your kyc")
	assert.Equal(t, models.DecisionNone, r2.Decision.Kind)

	r3 := send(t, eng, "s-early", models.RoleScammer,
		"URGENT: your account blocked! pay now immediately, share otp, send to fraud@ybl")

	require.Equal(t, models.DecisionCreate, r3.Decision.Kind)
	assert.Equal(t, 3, r3.TurnCount)
	assert.GreaterOrEqual(t, r3.Confidence, 75.0)
	require.Len(t, disp.kinds, 1)
	assert.Equal(t, models.DecisionCreate, disp.kinds[0])
	require.NotNil(t, r3.Decision.Payload)
	assert.True(t, r3.Decision.Payload.ScamDetected)
	assert.NotEmpty(t, r3.Decision.Payload.ExtractedIntelligence["upiIds"])
}

func TestSafetyNetFiresExactlyOnceAtCeiling(t *testing.T) {
	eng, disp := newTestEngine(t)
	cfg := config.DefaultEngineConfig()

	// scam-flavored but never yields a financial identifier
	text := "hurry, you won the lottery prize"
	for turn := 1; turn < cfg.HardCeilingTurns; turn++ {
		res := send(t, eng, "s-net", models.RoleScammer, text)
		assert.Equal(t, models.DecisionNone, res.Decision.Kind, "turn %d", turn)
	}

	atCeiling := send(t, eng, "s-net", models.RoleScammer, text)
	require.Equal(t, models.DecisionCreate, atCeiling.Decision.Kind)
	assert.Equal(t, cfg.HardCeilingTurns, atCeiling.TurnCount)

	// nothing new afterwards, so no further reports
	after := send(t, eng, "s-net", models.RoleScammer, text)
	assert.Equal(t, models.DecisionNone, after.Decision.Kind)
	assert.Equal(t, []models.DecisionKind{models.DecisionCreate}, disp.kinds)
}

func TestUpdateFiresOnNewIntelligence(t *testing.T) {
	eng, disp := newTestEngine(t)

	send(t, eng, "s-upd", models.RoleScammer, "hello")
	send(t, eng, "s-upd", models.RoleScammer, "checking in")
	created := send(t, eng, "s-upd", models.RoleScammer,
		"account blocked! pay now immediately, share otp, send to fraud@ybl")
	require.Equal(t, models.DecisionCreate, created.Decision.Kind)

	// a new identifier on the very next turn must produce an UPDATE
	updated := send(t, eng, "s-upd", models.RoleScammer, "if that fails use backup@okaxis")
	require.Equal(t, models.DecisionUpdate, updated.Decision.Kind)

	// updates always carry the cumulative picture, not a delta
	payload := updated.Decision.Payload
	require.NotNil(t, payload)
	values := map[string]bool{}
	for _, g := range payload.ExtractedIntelligence["upiIds"] {
		values[g.Value] = true
	}
	assert.True(t, values["fraud@ybl"])
	assert.True(t, values["backup@okaxis"])

	// an uneventful turn after that stays silent
	quiet := send(t, eng, "s-upd", models.RoleScammer, "hello?")
	assert.Equal(t, models.DecisionNone, quiet.Decision.Kind)

	assert.Equal(t, []models.DecisionKind{models.DecisionCreate, models.DecisionUpdate}, disp.kinds)
}

func TestUserMessagesAreContextOnly(t *testing.T) {
	eng, _ := newTestEngine(t)

	send(t, eng, "s-user", models.RoleScammer, "your account is blocked, pay the fee")
	res := send(t, eng, "s-user", models.RoleUser, "arre nahi bhai, kya hua mera account?")

	assert.Equal(t, models.DecisionNone, res.Decision.Kind)
	assert.Empty(t, res.Reply)
	assert.Equal(t, 1, res.TurnCount, "persona-side messages must not advance the turn counter")

	snap, ok := eng.SessionSnapshot("s-user")
	require.True(t, ok)
	assert.Equal(t, 2, snap.TotalMessages)
	assert.Contains(t, snap.Profile.Languages, "hinglish")
}

func TestHistoryReplayOnFirstContact(t *testing.T) {
	eng, _ := newTestEngine(t)

	res, err := eng.Process(context.Background(), &models.InboundRequest{
		SessionID: "s-hist",
		Sender:    models.RoleScammer,
		Text:      "so send the otp now",
		History: []models.Message{
			{Sender: models.RoleScammer, Text: "hello, bank manager speaking"},
			{Sender: models.RoleUser, Text: "oh okay, what happened?"},
			{Sender: models.RoleScammer, Text: "your kyc has expired, account will be blocked"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TurnCount, "two scammer history turns plus the live one")
	snap, _ := eng.SessionSnapshot("s-hist")
	assert.Equal(t, 4, snap.TotalMessages)
	assert.True(t, snap.ScamDetected)
}

func TestRunningConfidenceIsMonotonic(t *testing.T) {
	eng, _ := newTestEngine(t)

	high := send(t, eng, "s-mono", models.RoleScammer, "account blocked! pay now immediately, share otp")
	low := send(t, eng, "s-mono", models.RoleScammer, "ok")

	assert.GreaterOrEqual(t, low.Confidence, high.Confidence,
		"a quiet turn must never lower the running confidence")
	assert.True(t, low.ScamDetected, "the scam verdict must be sticky")
}

func TestFingerprintStability(t *testing.T) {
	s := models.NewSession("fp", time.Now())
	s.Intelligence.Upsert(models.ExtractedItem{Kind: models.KindUPIID, NormalizedValue: "a@ybl", Confidence: 0.9})
	s.Intelligence.Upsert(models.ExtractedItem{Kind: models.KindPhoneNumber, NormalizedValue: "9876543210", Confidence: 0.75})

	fp1 := Fingerprint(s)
	fp2 := Fingerprint(s)
	assert.Equal(t, fp1, fp2)

	s.Intelligence.Upsert(models.ExtractedItem{Kind: models.KindUPIID, NormalizedValue: "b@ybl", Confidence: 0.9})
	assert.NotEqual(t, fp1, Fingerprint(s))
}

func TestConcurrentSessionsDoNotInterfere(t *testing.T) {
	eng, _ := newTestEngine(t)

	type outcome struct {
		last int
		err  error
	}
	done := make(chan outcome, 2)
	run := func(id string) {
		var out outcome
		for i := 0; i < 50; i++ {
			res, err := eng.Process(context.Background(), &models.InboundRequest{
				SessionID: id,
				Sender:    models.RoleScammer,
				Text:      fmt.Sprintf("message %d", i),
			})
			if err != nil {
				out.err = err
				break
			}
			out.last = res.TurnCount
		}
		done <- out
	}
	go run("conc-a")
	go run("conc-b")

	for i := 0; i < 2; i++ {
		out := <-done
		require.NoError(t, out.err)
		assert.Equal(t, 50, out.last)
	}
}
