// Package persona generates the honeypot's replies. The responder keeps the
// counterpart talking; it never reveals detection state and never blocks the
// pipeline.
package persona

import (
	"math/rand"
	"strings"
	"sync"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// Responder produces the next persona reply for a session. Implementations
// must be safe for concurrent use and must not fail the turn; when reply
// generation is impossible they return a generic holding line.
type Responder interface {
	Reply(session *models.Session, message string) string
}

// Engagement phases, derived from how deep the conversation is.
const (
	phaseInitial       = "initial"
	phaseTrustBuilding = "trust_building"
	phaseInfoGathering = "information_gathering"
	phaseExtraction    = "extraction"
)

func phaseFor(turn int) string {
	switch {
	case turn <= 2:
		return phaseInitial
	case turn <= 4:
		return phaseTrustBuilding
	case turn <= 7:
		return phaseInfoGathering
	default:
		return phaseExtraction
	}
}

// The persona is a confused, cooperative target. Later phases steer toward
// payment details on purpose; that is what gets identifiers into the
// transcript.
var phaseReplies = map[string][]string{
	phaseInitial: {
		"Hello ji, who is this? I did not save this number.",
		"Hello? Sorry, I was not expecting a call from bank side.",
		"Haan hello, yes tell me, is there some problem?",
	},
	phaseTrustBuilding: {
		"Oh no, that sounds serious. I am not very good with these things, please explain slowly.",
		"Accha accha, I understand. My son usually handles this but he is abroad.",
		"Okay okay, I believe you. What do I have to do exactly?",
	},
	phaseInfoGathering: {
		"I want to fix this today only. Which account should I use, can you give the details again?",
		"My internet banking is not opening. Is there a UPI id or number where I can send directly?",
		"Wait, let me get a pen. Please tell me the account number slowly, one by one.",
	},
	phaseExtraction: {
		"The transfer is showing pending. Can you confirm once more the exact UPI id?",
		"Bank is asking for IFSC also. Which branch is this account in?",
		"It failed again, so sorry. Do you have any other account or number I can try?",
	},
}

var hindiPhaseReplies = map[string][]string{
	phaseInitial: {
		"Namaste ji, aap kaun bol rahe hain?",
		"Haan ji boliye, kya hua?",
	},
	phaseTrustBuilding: {
		"Arre, yeh toh bahut serious lag raha hai. Thoda dheere samjhaiye.",
		"Theek hai ji, main aap par bharosa karta hoon. Mujhe kya karna hoga?",
	},
	phaseInfoGathering: {
		"Main aaj hi theek karna chahta hoon. Account number phir se bata dijiye.",
		"Net banking nahi chal rahi. Koi UPI id hai jahan seedha bhej doon?",
	},
	phaseExtraction: {
		"Transfer pending dikha raha hai. UPI id ek baar aur confirm kar dijiye.",
		"Bank IFSC bhi maang raha hai. Kaunsi branch ka account hai?",
	},
}

// TemplateResponder is the built-in phase-scripted persona.
type TemplateResponder struct {
	cfg    config.PersonaConfig
	logger *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateResponder creates the scripted persona.
func NewTemplateResponder(cfg config.PersonaConfig, log *logger.Logger, seed int64) *TemplateResponder {
	return &TemplateResponder{
		cfg:    cfg,
		logger: log.WithComponent("persona"),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Reply picks a line for the session's engagement phase, in the language the
// counterpart has been using.
func (r *TemplateResponder) Reply(session *models.Session, message string) string {
	phase := phaseFor(session.TurnCount)

	lang := r.cfg.Language
	if lang == "" {
		lang = dominantLanguage(session)
	}

	pool := phaseReplies[phase]
	if lang == "hindi" {
		if alt, ok := hindiPhaseReplies[phase]; ok {
			pool = alt
		}
	}
	if len(pool) == 0 {
		return "Sorry, can you say that again?"
	}

	r.mu.Lock()
	line := pool[r.rng.Intn(len(pool))]
	r.mu.Unlock()
	return line
}

func dominantLanguage(session *models.Session) string {
	// most recent observation wins
	langs := session.Profile.Languages
	if len(langs) == 0 {
		return "english"
	}
	return langs[len(langs)-1]
}

// Hinglish markers: romanized Hindi words common in scam chat. Two or more
// in one message is a strong signal.
var hinglishMarkers = map[string]struct{}{
	"aap": {}, "aapka": {}, "aapke": {}, "hai": {}, "hain": {}, "nahi": {},
	"nahin": {}, "karo": {}, "karna": {}, "kare": {}, "bhai": {}, "ji": {},
	"paise": {}, "paisa": {}, "rupaye": {}, "jaldi": {}, "abhi": {},
	"turant": {}, "bhejo": {}, "batao": {}, "kyun": {}, "kya": {},
	"accha": {}, "theek": {}, "haan": {}, "mera": {}, "tumhara": {},
}

// DetectLanguage classifies one message as english, hindi, or hinglish.
// Devanagari script wins outright; otherwise romanized Hindi markers decide.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return "hindi"
		}
	}
	markers := 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?;:\"'()")
		if _, ok := hinglishMarkers[tok]; ok {
			markers++
			if markers >= 2 {
				return "hinglish"
			}
		}
	}
	return "english"
}
