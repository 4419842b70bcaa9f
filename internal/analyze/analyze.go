// Package analyze inspects the text surrounding a candidate for labels,
// keywords, and placeholder markers that shift its confidence.
package analyze

import (
	"strings"

	"github.com/phiguard/phiguard/internal/match"
	"github.com/phiguard/phiguard/internal/types"
)

// ContextSignal summarizes what the surrounding text says about a candidate.
type ContextSignal struct {
	// LabelPresent means an identifying label for the type immediately
	// precedes the value ("ssn:", "api_key =", ...).
	LabelPresent bool
	// KeywordHits counts distinct domain keywords near the match, capped
	// by the confidence model, not here.
	KeywordHits int
	// ExclusionHit means the value or its surroundings look like a
	// placeholder or documentation sample; the finding is dropped.
	ExclusionHit bool
}

// DefaultWindow is how many bytes on either side of the value are
// inspected when no override is given.
const DefaultWindow = 80

// Analyzer derives context signals with a fixed window size.
type Analyzer struct {
	window int
}

// Option adjusts an Analyzer.
type Option func(*Analyzer)

// WithWindow sets the byte window inspected on either side of the value.
func WithWindow(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.window = n
		}
	}
}

// New builds an Analyzer with the default window unless overridden.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{window: DefaultWindow}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Labels that mark a value as the given PHI type when directly preceding it.
var labelVocab = map[string][]string{
	"ssn":            {"ssn", "social security", "social_security", "soc sec"},
	"mrn":            {"mrn", "medical record", "medical_record", "record number", "record_number"},
	"dob":            {"dob", "date of birth", "date_of_birth", "birthdate", "birth date", "born"},
	"phone":          {"phone", "tel", "telephone", "mobile", "cell", "contact"},
	"fax":            {"fax", "facsimile"},
	"email":          {"email", "e-mail", "mail"},
	"address":        {"address", "addr", "residence", "street"},
	"zip":            {"zip", "zipcode", "postal"},
	"health_plan_id": {"member id", "member_id", "plan id", "plan_id", "subscriber", "policy"},
	"credit_card":    {"card", "cc", "credit", "visa", "mastercard", "amex", "payment"},
	"account_number": {"account", "acct", "acc no", "acc_no"},
	"license":        {"license", "licence", "dl", "driver"},
	"npi":            {"npi", "provider id", "provider_id", "national provider"},
	"device_id":      {"device", "serial", "imei", "udid"},
	"ip_address":     {"ip", "addr", "host", "client"},
	"url":            {"url", "link", "portal", "endpoint"},
	"biometric":      {"fingerprint", "biometric", "retina", "voiceprint", "faceprint"},
}

// Keywords that raise confidence when present near a match of the category.
var (
	phiKeywords = []string{
		"patient", "diagnosis", "treatment", "medical", "health", "clinical",
		"hospital", "provider", "prescription", "insurance", "hipaa", "phi",
		"admission", "discharge", "encounter", "lab", "specimen",
	}
	secretKeywords = []string{
		"secret", "token", "key", "credential", "password", "passwd", "auth",
		"api", "private", "access", "bearer", "oauth", "cert",
	}
	placeholderMarkers = []string{
		"example", "sample", "placeholder", "lorem", "your_", "changeme",
		"replace", "insert", "todo", "fixme", "dummy", "fake_", "mock_",
		"test_api_key", "<", ">", "xxxx",
	}
)

// Inspect derives the context signal for one candidate with the default
// window.
func Inspect(c match.Candidate) ContextSignal {
	return defaultAnalyzer.Inspect(c)
}

var defaultAnalyzer = New()

// Inspect derives the context signal for one candidate. The window spans
// the candidate's line and, when the window reaches past a line boundary,
// the adjacent lines the matcher captured.
func (a *Analyzer) Inspect(c match.Candidate) ContextSignal {
	def := c.Definition

	if def.Excluded(c.Raw) {
		return ContextSignal{ExclusionHit: true}
	}

	before, after := a.surround(c)
	lb, la := strings.ToLower(before), strings.ToLower(after)

	sig := ContextSignal{
		LabelPresent: labelBefore(lb, def.TypeID),
		KeywordHits:  countKeywords(lb+" "+la, keywordsFor(def.Category)),
	}
	if placeholderNearby(lb, la, strings.ToLower(c.Raw)) {
		sig.ExclusionHit = true
	}
	return sig
}

// surround clips the window around the value, stitching in the previous
// and next source lines so context does not stop at the newline.
func (a *Analyzer) surround(c match.Candidate) (before, after string) {
	text := c.LineText
	start := c.Column - 1
	if start < 0 {
		start = 0
	}
	if c.PrevText != "" {
		text = c.PrevText + "\n" + text
		start += len(c.PrevText) + 1
	}
	if c.NextText != "" {
		text += "\n" + c.NextText
	}
	end := start + len(c.Raw)
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}
	b := start - a.window
	if b < 0 {
		b = 0
	}
	e := end + a.window
	if e > len(text) {
		e = len(text)
	}
	return text[b:start], text[end:e]
}

// labelBefore reports a type label immediately preceding the value: the
// label token must be the last word-ish run before the value, allowing a
// separator like ":", "=", "#", or quotes between them.
func labelBefore(before, typeID string) bool {
	vocab := labelVocab[typeID]
	if len(vocab) == 0 {
		// Secret formats identify themselves; a generic credential label
		// still counts.
		vocab = secretKeywords
	}
	tail := strings.TrimRight(before, " \t:=#\"'`()[]")
	tail = strings.ToLower(tail)
	for _, label := range vocab {
		if strings.HasSuffix(tail, label) {
			return true
		}
	}
	return false
}

func keywordsFor(cat types.Category) []string {
	if cat == types.CategorySecret {
		return secretKeywords
	}
	return phiKeywords
}

func countKeywords(ctx string, vocab []string) int {
	n := 0
	for _, kw := range vocab {
		if strings.Contains(ctx, kw) {
			n++
		}
	}
	return n
}

func placeholderNearby(before, after, raw string) bool {
	for _, m := range placeholderMarkers {
		if strings.Contains(raw, m) {
			return true
		}
	}
	// Only the nearest stretch of context counts, and angle brackets are
	// too generic to check outside the value itself.
	near := before + " " + after
	for _, m := range placeholderMarkers {
		if m == "<" || m == ">" {
			continue
		}
		if strings.Contains(near, m) {
			return true
		}
	}
	return false
}
