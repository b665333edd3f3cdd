package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

func testDetector() *Detector {
	return NewDetector(DefaultConfig(), logger.NewDefault())
}

func TestScoreBenignMessage(t *testing.T) {
	d := testDetector()

	det := d.Score("Hi, how are you?", TurnContext{})
	assert.Zero(t, det.Confidence)
	assert.False(t, det.IsScam)
	assert.Equal(t, models.ScamTypeNone, det.ScamType)
	assert.Equal(t, models.SeverityLow, det.Severity)
	assert.Empty(t, det.Signals)
}

func TestScoreEmptyMessage(t *testing.T) {
	det := testDetector().Score("", TurnContext{})
	assert.Zero(t, det.Confidence)
	assert.False(t, det.IsScam)
}

func TestScoreAggressiveScamMessage(t *testing.T) {
	d := testDetector()

	det := d.Score("Your account blocked! Pay now immediately and share your OTP", TurnContext{})

	for _, sig := range []string{"urgency", "threat", "payment_request", "credential_request"} {
		assert.True(t, HasSignal(det, sig), "missing signal %s", sig)
	}
	// 15 + 20 + 25 + 20
	assert.InDelta(t, 80, det.Confidence, 0.001)
	assert.True(t, det.IsScam)
	assert.Equal(t, models.SeverityHigh, det.Severity)
	assert.Equal(t, models.ScamTypeBankFraud, det.ScamType)
}

func TestScoreSafeContextPullsDown(t *testing.T) {
	d := testDetector()

	// urgency alone, dampened by personal and routine context
	det := d.Score("hurry, mom is waiting for the birthday dinner", TurnContext{})
	assert.Less(t, det.Confidence, d.cfg.ScamFloor)
	assert.False(t, det.IsScam)
	assert.Contains(t, det.Modifiers, "safe_personal")
}

func TestScoreNeverNegative(t *testing.T) {
	det := testDetector().Score("mom and dad visit the hospital for the wedding dinner", TurnContext{})
	assert.GreaterOrEqual(t, det.Confidence, 0.0)
}

func TestScoreEntityPoints(t *testing.T) {
	d := testDetector()

	tc := TurnContext{NewItems: []models.ExtractedItem{
		{Kind: models.KindUPIID, NormalizedValue: "fraud@ybl"},
		{Kind: models.KindPhoneNumber, NormalizedValue: "9876543210"},
		{Kind: models.KindBankAccount, NormalizedValue: "30987654321"},
		{Kind: models.KindIFSCCode, NormalizedValue: "SBIN0001234"},
	}}
	det := d.Score("details below", tc)

	// upi 10 + phone 5 + one bank-group hit 10
	assert.InDelta(t, 25, det.Confidence, 0.001)
	assert.True(t, HasSignal(det, "contains_upi"))
	assert.True(t, HasSignal(det, "contains_phone"))
	assert.True(t, HasSignal(det, "contains_bank_account"))
}

func TestScorePriorFinancialMarksConversation(t *testing.T) {
	d := testDetector()

	det := d.Score("ok waiting", TurnContext{HasPriorFinancial: true})
	assert.True(t, HasSignal(det, "prior_financial_intel"))
	assert.Greater(t, det.Confidence, 0.0)
}

func TestScoreRepeatedPressureBonus(t *testing.T) {
	d := testDetector()

	base := d.Score("transfer the fee now", TurnContext{})
	repeated := d.Score("transfer the fee now", TurnContext{PaymentPressureTurns: 2})
	assert.InDelta(t, 10, repeated.Confidence-base.Confidence, 0.001)
	assert.Contains(t, repeated.Modifiers, "repeated_payment_pressure")
}

func TestClassify(t *testing.T) {
	d := testDetector()

	tests := []struct {
		text string
		want models.ScamType
	}{
		{"complete your kyc or account suspended", models.ScamTypeKYC},
		{"your lucky draw prize is waiting, you have won the lottery", models.ScamTypeLottery},
		{"install anydesk for tech support to remove the virus", models.ScamTypeTechSupport},
		{"your parcel is held at customs, pay the import duty", models.ScamTypeCustoms},
		{"guaranteed returns, double your money with crypto trading", models.ScamTypeInvestment},
		{"open the collect request on phonepe and enter upi pin", models.ScamTypeUPIFraud},
		{"part time job offer, pay the registration fee", models.ScamTypeJobScam},
	}
	for _, tt := range tests {
		det := d.Score(tt.text, TurnContext{})
		assert.Equal(t, tt.want, det.ScamType, "text: %s", tt.text)
	}
}

func TestClassifyFallsBackToOther(t *testing.T) {
	d := testDetector()

	// scores past the floor on generic pressure without any category phrase
	det := d.Score("pay now immediately or face legal action, share details", TurnContext{})
	assert.True(t, det.IsScam)
	assert.Equal(t, models.ScamTypeOther, det.ScamType)
}

func TestSeverityBuckets(t *testing.T) {
	d := testDetector()
	assert.Equal(t, models.SeverityLow, d.severity(20))
	assert.Equal(t, models.SeverityMedium, d.severity(50))
	assert.Equal(t, models.SeverityHigh, d.severity(80))
}
