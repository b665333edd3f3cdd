// Package detect scores messages for scam likelihood and classifies the
// scheme being run. The model is an explicit table of bounded signals summed
// and clamped to 0-100; no history re-scan, so scoring time is independent of
// conversation length.
package detect

import (
	"strings"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// signal is one row of the scoring table.
type signal struct {
	name    string
	points  float64
	phrases []string
}

// The weight table. Points mirror the relative danger of each signal:
// payment and credential requests dominate, raw entity presence contributes
// less on its own.
var signalTable = []signal{
	{"urgency", 15, []string{
		"urgent", "immediately", "right now", "hurry", "last chance",
		"expire", "act now", "quickly", "within 24 hours", "turant",
		"abhi", "jaldi", "foren",
	}},
	{"threat", 20, []string{
		"blocked", "suspended", "terminated", "deactivated", "frozen",
		"illegal", "arrested", "police", "legal action", "band ho jayega",
		"block ho gaya", "arrest", "kanoon",
	}},
	{"authority_impersonation", 15, []string{
		"bank manager", "rbi", "reserve bank", "government", "income tax",
		"official", "security team", "customer care", "officer", "sarkari",
		"adhikari", "bank wale",
	}},
	{"payment_request", 25, []string{
		"send money", "transfer", "pay now", "payment", "deposit", "₹",
		"rupees", "rs.", "inr", "fee", "paisa bhejo", "payment karo",
	}},
	{"credential_request", 20, []string{
		"otp", "pin", "cvv", "password", "card number", "account number",
		"aadhaar", "pan card", "share details", "otp batao", "pin batao",
	}},
	{"prize_offer", 15, []string{
		"winner", "won", "prize", "lottery", "lucky", "congratulations",
		"reward", "gift", "bonus", "jeet gaye", "inaam",
	}},
}

// Entity-presence signals, matched against what the extractor found this
// turn.
const (
	pointsSuspiciousLink = 20
	pointsUPI            = 10
	pointsPhone          = 5
	pointsBankAccount    = 10
)

// Context modifiers: ordinary personal or routine talk pulls the score down,
// isolation pressure and hard deadlines push it up.
type contextModifier struct {
	name    string
	delta   float64
	phrases []string
}

var contextModifiers = []contextModifier{
	{"safe_personal", -15, []string{
		"mom", "amma", "dad", "papa", "family", "son", "daughter",
		"husband", "wife", "grandma",
	}},
	{"safe_institutional", -10, []string{
		"doctor", "hospital", "school", "college", "temple", "church",
		"clinic",
	}},
	{"safe_routine", -8, []string{
		"meeting", "dinner", "lunch", "birthday", "wedding", "exam",
		"shopping",
	}},
	{"amplify_isolation", 20, []string{
		"don't tell anyone", "secret", "confidential", "just between us",
		"nobody should know", "kisiko mat batana", "private hai",
	}},
	{"amplify_deadline", 15, []string{
		"within 1 hour", "before 5pm", "today only", "last chance",
		"final warning", "aakhri mauka", "abhi ke abhi",
	}},
}

// History bonuses, fed from bounded per-session counters.
const (
	historyRepeatThreshold = 2
	historyBonus           = 10
)

// Scam-type category tables. The category with the highest matched weight
// wins; ties go to the category whose keyword appears earliest in the
// message.
type category struct {
	scamType models.ScamType
	phrases  []string
}

var categories = []category{
	{models.ScamTypeKYC, []string{"kyc", "know your customer", "link aadhaar", "re-kyc", "kyc expired"}},
	{models.ScamTypeBankFraud, []string{"account blocked", "account suspended", "bank account", "debit card", "credit card", "net banking", "card blocked"}},
	{models.ScamTypeUPIFraud, []string{"upi", "paytm", "phonepe", "google pay", "gpay", "collect request", "upi pin"}},
	{models.ScamTypeLottery, []string{"lottery", "prize", "winner", "lucky draw", "jackpot", "you have won"}},
	{models.ScamTypeJobScam, []string{"job offer", "work from home", "salary", "registration fee", "part time job", "hiring"}},
	{models.ScamTypeTechSupport, []string{"virus", "computer", "remote access", "teamviewer", "anydesk", "tech support", "microsoft"}},
	{models.ScamTypeCustoms, []string{"customs", "parcel", "courier", "package held", "import duty", "fedex", "delivery fee"}},
	{models.ScamTypeInvestment, []string{"investment", "trading", "stock tips", "guaranteed returns", "double your money", "crypto", "bitcoin"}},
}

// Thresholds for the severity buckets and the scam verdict. Tunable policy,
// not contract.
type Config struct {
	ScamFloor       float64 // verdict floor on the 0-100 score
	MediumThreshold float64
	HighThreshold   float64
}

// DefaultConfig returns the default detector thresholds.
func DefaultConfig() Config {
	return Config{ScamFloor: 30, MediumThreshold: 40, HighThreshold: 75}
}

// TurnContext carries the bounded session-derived inputs to scoring.
type TurnContext struct {
	NewItems             []models.ExtractedItem
	HasPriorFinancial    bool
	UrgencyTurns         int // prior turns that showed urgency
	PaymentPressureTurns int // prior turns that pushed payment
}

// Detector computes scam confidence and classification. Stateless and safe
// for concurrent use.
type Detector struct {
	cfg    Config
	logger *logger.Logger
}

// NewDetector creates a detector.
func NewDetector(cfg Config, log *logger.Logger) *Detector {
	def := DefaultConfig()
	if cfg.ScamFloor == 0 {
		cfg.ScamFloor = def.ScamFloor
	}
	if cfg.MediumThreshold == 0 {
		cfg.MediumThreshold = def.MediumThreshold
	}
	if cfg.HighThreshold == 0 {
		cfg.HighThreshold = def.HighThreshold
	}
	return &Detector{cfg: cfg, logger: log.WithComponent("detector")}
}

// Score evaluates one message. Empty input scores zero; the detector never
// fails.
func (d *Detector) Score(text string, tc TurnContext) models.Detection {
	det := models.Detection{ScamType: models.ScamTypeNone, Severity: models.SeverityLow}
	if text == "" {
		return det
	}
	lower := strings.ToLower(text)

	score := 0.0
	for _, sig := range signalTable {
		if containsAny(lower, sig.phrases) {
			score += sig.points
			det.Signals = append(det.Signals, sig.name)
		}
	}

	score += d.entityPoints(&det, tc)

	for _, cm := range contextModifiers {
		if containsAny(lower, cm.phrases) {
			score += cm.delta
			det.Modifiers = append(det.Modifiers, cm.name)
		}
	}

	if tc.UrgencyTurns >= historyRepeatThreshold {
		score += historyBonus
		det.Modifiers = append(det.Modifiers, "repeated_urgency")
	}
	if tc.PaymentPressureTurns >= historyRepeatThreshold {
		score += historyBonus
		det.Modifiers = append(det.Modifiers, "repeated_payment_pressure")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	det.Confidence = score
	det.IsScam = score >= d.cfg.ScamFloor
	det.ScamType = d.classify(lower, det.IsScam)
	det.Severity = d.severity(score)
	return det
}

func (d *Detector) entityPoints(det *models.Detection, tc TurnContext) float64 {
	points := 0.0
	seen := map[models.IntelKind]bool{}
	bankCounted := false
	for _, it := range tc.NewItems {
		if seen[it.Kind] {
			continue
		}
		seen[it.Kind] = true
		switch it.Kind {
		case models.KindPhishingLink:
			points += pointsSuspiciousLink
			det.Signals = append(det.Signals, "suspicious_link")
		case models.KindUPIID:
			points += pointsUPI
			det.Signals = append(det.Signals, "contains_upi")
		case models.KindPhoneNumber:
			points += pointsPhone
			det.Signals = append(det.Signals, "contains_phone")
		case models.KindBankAccount, models.KindIFSCCode, models.KindAadhaar:
			if !bankCounted {
				bankCounted = true
				points += pointsBankAccount
				det.Signals = append(det.Signals, "contains_bank_account")
			}
		}
	}
	if tc.HasPriorFinancial && len(seen) == 0 {
		// financial identifiers revealed on earlier turns still mark the
		// conversation
		points += pointsPhone
		det.Signals = append(det.Signals, "prior_financial_intel")
	}
	return points
}

func (d *Detector) classify(lower string, isScam bool) models.ScamType {
	best := models.ScamTypeNone
	bestWeight := 0
	bestFirst := len(lower) + 1
	for _, cat := range categories {
		weight := 0
		first := len(lower) + 1
		for _, p := range cat.phrases {
			if idx := strings.Index(lower, p); idx >= 0 {
				weight++
				if idx < first {
					first = idx
				}
			}
		}
		if weight == 0 {
			continue
		}
		if weight > bestWeight || (weight == bestWeight && first < bestFirst) {
			best = cat.scamType
			bestWeight = weight
			bestFirst = first
		}
	}
	if best == models.ScamTypeNone && isScam {
		return models.ScamTypeOther
	}
	return best
}

func (d *Detector) severity(score float64) models.Severity {
	switch {
	case score >= d.cfg.HighThreshold:
		return models.SeverityHigh
	case score >= d.cfg.MediumThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// HasSignal reports whether the detection carries the named signal. Used by
// the engine to maintain its bounded history counters.
func HasSignal(det models.Detection, name string) bool {
	for _, s := range det.Signals {
		if s == name {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
