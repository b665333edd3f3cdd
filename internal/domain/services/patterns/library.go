package patterns

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"lurelab/internal/domain/models"
)

// Input longer than this is truncated before scanning. Keeps recognizer time
// bounded on hostile input.
const maxTextLength = 50000

// Candidate is a raw recognizer hit, prior to normalization and confidence
// assignment.
type Candidate struct {
	Kind models.IntelKind
	Raw  string
}

// Known UPI handle suffixes. A localpart@handle match only counts as a UPI id
// when the handle is (or contains) one of these, or, in raw text only, is at
// least not an email provider and not a dotted domain.
var upiHandles = map[string]bool{
	"paytm": true, "ybl": true, "oksbi": true, "okaxis": true,
	"okhdfcbank": true, "okicici": true, "upi": true, "gpay": true,
	"phonepe": true, "apl": true, "rapl": true, "ibl": true, "sbi": true,
	"axisbank": true, "hdfcbank": true, "icici": true, "kotak": true,
	"indus": true, "yesbank": true, "rbl": true, "federal": true,
	"boi": true, "pnb": true, "canara": true, "unionbank": true,
	"idfcbank": true, "aubank": true, "freecharge": true, "amazonpay": true,
	"airtel": true, "jio": true, "postbank": true, "axl": true,
	"barodampay": true, "fbl": true, "idfcfirst": true, "iob": true,
	"jkb": true, "karb": true, "kbl": true, "kvb": true, "mahb": true,
	"payzapp": true, "psb": true, "rblbank": true, "sib": true,
	"tmb": true, "ubi": true, "uco": true, "yapl": true,
}

var emailProviders = map[string]bool{
	"gmail": true, "yahoo": true, "hotmail": true, "outlook": true,
	"email": true, "mail": true, "proton": true, "protonmail": true,
	"icloud": true, "aol": true, "rediff": true, "live": true,
	"zoho": true, "yandex": true, "inbox": true, "fastmail": true,
	"tutanota": true, "gmx": true, "mailinator": true, "tempmail": true,
}

var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "short.link", "cutt.ly",
	"rebrand.ly", "is.gd", "v.gd", "shorturl.at", "tiny.cc", "bc.vc",
	"ow.ly", "buff.ly",
}

var suspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".buzz", ".club",
	".icu", ".rest",
}

// Bank and wallet brands frequently impersonated in lookalike domains.
var lookalikeBrands = []string{
	"sbi", "hdfc", "icici", "paytm", "phonepe", "gpay", "axis", "kotak",
	"rbi", "npci", "uidai",
}

// Suspicious-keyword lexicon: urgency, threat, authority, payment,
// credential-harvesting and prize phrases, English and Hinglish.
var scamKeywords = []string{
	// urgency
	"urgent", "immediately", "right now", "today", "expire", "hurry",
	"last chance", "final notice", "act now", "don't delay",
	// threats
	"blocked", "suspended", "terminated", "deactivated", "frozen",
	"illegal", "fraud detected", "unauthorized", "security alert",
	// authority
	"bank manager", "rbi", "reserve bank", "police", "cyber cell",
	"income tax", "government", "official", "verified",
	// money / payment
	"verify", "confirm", "update", "link aadhaar", "kyc", "transfer",
	"send money", "pay now", "refund", "cashback",
	// prizes / offers
	"winner", "congratulations", "prize", "lottery", "lucky", "selected",
	"reward", "gift", "bonus",
	// requests
	"click here", "click link", "otp", "pin", "cvv", "password",
	"card number", "account number", "share details",
	// hinglish
	"turant", "abhi", "jaldi", "bank khata", "paisa bhejo", "verify karo",
	"block ho jayega", "aapka account", "otp batao", "pin batao",
	"jaldi karo", "paise do", "band ho jayega", "foren", "fatafat",
}

var (
	upiRe          = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z]{2,}`)
	bankAccountRe  = regexp.MustCompile(`\b[1-9]\d{8,17}\b`)
	phoneRe        = regexp.MustCompile(`\b[6-9]\d{9}\b`)
	phonePrefixRe  = regexp.MustCompile(`(?:\+91|\b91|\b0)[\s-]*[6-9]\d{9}\b`)
	ifscRe         = regexp.MustCompile(`\b[A-Za-z]{4}0[A-Za-z0-9]{6}\b`)
	aadhaarRe      = regexp.MustCompile(`\b[2-9]\d{3}[\s-]\d{4}[\s-]\d{4}\b`)
	urlRe          = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	emailRe        = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	dottedDomainRe = regexp.MustCompile(`\.(com|in|org|net|co|io)$`)
	shortenerRe    *regexp.Regexp
)

func init() {
	escaped := make([]string, len(shortenerDomains))
	for i, d := range shortenerDomains {
		escaped[i] = regexp.QuoteMeta(d)
	}
	shortenerRe = regexp.MustCompile(`\b(?:` + strings.Join(escaped, "|") + `)/[a-zA-Z0-9]+`)
}

// Library is the static recognizer set. It is stateless and safe for
// concurrent use; every recognizer is fail-open and returns zero candidates
// on empty or garbage input.
type Library struct{}

// NewLibrary returns the recognizer set.
func NewLibrary() *Library {
	return &Library{}
}

func prepare(text string) string {
	if len(text) > maxTextLength {
		return text[:maxTextLength]
	}
	return text
}

// Scan runs every recognizer against raw message text and returns candidates
// in discovery order.
func (l *Library) Scan(text string) []Candidate {
	return l.scan(text, false)
}

// ScanDecoded runs the recognizers against a decoded variant of a message.
// Decoding manufactures "@" and digit runs out of ordinary prose, so the
// recognizers that rely on an open-ended fallback run in strict mode here.
func (l *Library) ScanDecoded(text string) []Candidate {
	return l.scan(text, true)
}

func (l *Library) scan(text string, decoded bool) []Candidate {
	text = prepare(text)
	if text == "" {
		return nil
	}

	var out []Candidate
	out = append(out, l.scanUPI(text, decoded)...)
	out = append(out, l.scanPhones(text)...)
	out = append(out, l.scanBankAccounts(text)...)
	out = append(out, l.scanIFSC(text)...)
	out = append(out, l.scanAadhaar(text)...)
	out = append(out, l.scanURLs(text)...)
	out = append(out, l.scanEmails(text)...)
	return out
}

func (l *Library) scanUPI(text string, strict bool) []Candidate {
	var out []Candidate
	for _, m := range upiRe.FindAllString(text, -1) {
		parts := strings.SplitN(m, "@", 2)
		if len(parts) != 2 {
			continue
		}
		handle := strings.ToLower(parts[1])
		// decoded "at" next to a URL yields localpart@http
		if handle == "http" || handle == "https" || handle == "www" {
			continue
		}
		switch {
		case upiHandles[handle] || containsKnownHandle(handle):
			out = append(out, Candidate{Kind: models.KindUPIID, Raw: m})
		case !strict && !emailProviders[handle] && !dottedDomainRe.MatchString(handle):
			// unknown handle on raw text, plausibly a new UPI provider. On
			// decoded text the "@" may be an artifact ("talk at five"), so
			// only known handles count there.
			out = append(out, Candidate{Kind: models.KindUPIID, Raw: m})
		}
	}
	return out
}

func containsKnownHandle(handle string) bool {
	for h := range upiHandles {
		if len(h) >= 3 && strings.Contains(handle, h) {
			return true
		}
	}
	return false
}

func (l *Library) scanPhones(text string) []Candidate {
	var out []Candidate
	for _, m := range phonePrefixRe.FindAllString(text, -1) {
		out = append(out, Candidate{Kind: models.KindPhoneNumber, Raw: m})
	}
	for _, m := range phoneRe.FindAllString(text, -1) {
		out = append(out, Candidate{Kind: models.KindPhoneNumber, Raw: m})
	}
	return out
}

func (l *Library) scanBankAccounts(text string) []Candidate {
	var out []Candidate
	for _, m := range bankAccountRe.FindAllString(text, -1) {
		// phone-shaped
		if len(m) == 10 && m[0] >= '6' && m[0] <= '9' {
			continue
		}
		// millisecond-timestamp-shaped
		if len(m) == 13 && m[0] == '1' {
			continue
		}
		out = append(out, Candidate{Kind: models.KindBankAccount, Raw: m})
	}
	return out
}

func (l *Library) scanIFSC(text string) []Candidate {
	var out []Candidate
	for _, m := range ifscRe.FindAllString(text, -1) {
		out = append(out, Candidate{Kind: models.KindIFSCCode, Raw: m})
	}
	return out
}

func (l *Library) scanAadhaar(text string) []Candidate {
	var out []Candidate
	for _, m := range aadhaarRe.FindAllString(text, -1) {
		out = append(out, Candidate{Kind: models.KindAadhaar, Raw: m})
	}
	return out
}

func (l *Library) scanURLs(text string) []Candidate {
	var out []Candidate
	seen := map[string]bool{}
	add := func(raw string) {
		raw = strings.TrimRight(raw, ".,;:!?)]>'\"")
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		out = append(out, Candidate{Kind: models.KindPhishingLink, Raw: raw})
	}
	for _, m := range urlRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range shortenerRe.FindAllString(text, -1) {
		if !strings.HasPrefix(m, "http") {
			m = "https://" + m
		}
		add(m)
	}
	return out
}

func (l *Library) scanEmails(text string) []Candidate {
	var out []Candidate
	for _, m := range emailRe.FindAllString(text, -1) {
		parts := strings.SplitN(m, "@", 2)
		if len(parts) != 2 {
			continue
		}
		base := strings.ToLower(strings.SplitN(parts[1], ".", 2)[0])
		if upiHandles[base] {
			continue
		}
		out = append(out, Candidate{Kind: models.KindEmail, Raw: m})
	}
	return out
}

// Keywords returns every lexicon phrase present in text, lowercased,
// first-occurrence order.
func (l *Library) Keywords(text string) []string {
	text = prepare(text)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	seen := map[string]bool{}
	for _, kw := range scamKeywords {
		if strings.Contains(lower, kw) && !seen[kw] {
			seen[kw] = true
			found = append(found, kw)
		}
	}
	return found
}

// IsPhishingStyle reports whether a URL carries phishing markers: a link
// shortener, an IP-literal host, a suspicious TLD, or a brand-lookalike
// domain.
func (l *Library) IsPhishingStyle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// bare shortener form without scheme
		for _, d := range shortenerDomains {
			if strings.HasPrefix(raw, d+"/") {
				return true
			}
		}
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range shortenerDomains {
		if host == d {
			return true
		}
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	for _, brand := range lookalikeBrands {
		if strings.Contains(host, brand) && !strings.HasSuffix(host, brand+".com") && !strings.HasSuffix(host, brand+".in") {
			return true
		}
	}
	return false
}
