// Package validate implements the structural validators referenced by
// pattern definitions: checksum algorithms, numeric-range rules, and the
// Shannon-entropy gate for unclassified secret-like strings.
package validate

import (
	"encoding/base64"
	"math"
	"strings"
	"unicode"
)

// Result is the outcome of a structural check. A rejection is a normal
// negative signal consumed by the confidence model, never an error.
type Result int

const (
	// ResultUnknown means no validator applies or the check is inconclusive.
	ResultUnknown Result = iota
	ResultAccepted
	ResultRejected
)

func (r Result) String() string {
	switch r {
	case ResultAccepted:
		return "accepted"
	case ResultRejected:
		return "rejected"
	}
	return "unknown"
}

// DefaultEntropyThreshold is the minimum Shannon entropy (bits/char) for the
// entropy validator to promote a string to candidate status.
const DefaultEntropyThreshold = 4.5

// DefaultEntropyMinLen is the minimum string length the entropy validator
// will consider.
const DefaultEntropyMinLen = 20

// Set resolves validator references from the pattern table. The zero value
// is not usable; construct with NewSet.
type Set struct {
	entropyThreshold float64
	entropyMinLen    int
}

// Option configures a Set.
type Option func(*Set)

// WithEntropyThreshold overrides the default entropy acceptance threshold.
func WithEntropyThreshold(bitsPerChar float64) Option {
	return func(s *Set) { s.entropyThreshold = bitsPerChar }
}

// WithEntropyMinLen overrides the minimum length for entropy candidates.
func WithEntropyMinLen(n int) Option {
	return func(s *Set) { s.entropyMinLen = n }
}

// NewSet builds a validator set with defaults applied.
func NewSet(opts ...Option) *Set {
	s := &Set{
		entropyThreshold: DefaultEntropyThreshold,
		entropyMinLen:    DefaultEntropyMinLen,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Apply runs the validator named by ref against the raw matched value.
// Unrecognized refs resolve to ResultUnknown so a registry typo degrades to
// "no structural signal" rather than a mid-scan failure.
func (s *Set) Apply(ref, raw string) Result {
	switch ref {
	case "":
		return ResultUnknown
	case "luhn":
		return boolResult(Luhn(raw))
	case "ssn_range":
		return boolResult(ValidSSN(raw))
	case "npi_check":
		return boolResult(ValidNPI(raw))
	case "jwt_structure":
		return boolResult(JWTStructure(raw))
	case "entropy":
		return s.entropy(raw)
	}
	return ResultUnknown
}

func boolResult(ok bool) Result {
	if ok {
		return ResultAccepted
	}
	return ResultRejected
}

// Luhn implements the mod-10 double-every-second-digit checksum used by
// payment card numbers. Non-digit separators are ignored.
func Luhn(raw string) bool {
	digits := make([]int, 0, len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidSSN rejects numbers whose decomposed fields fall in the documented
// never-issued ranges: area 000, 666 or 900-999, group 00, serial 0000.
func ValidSSN(raw string) bool {
	digits := make([]byte, 0, 9)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) != 9 {
		return false
	}
	area := string(digits[:3])
	group := string(digits[3:5])
	serial := string(digits[5:])
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// ValidNPI checks the NPI check digit: Luhn over the 10-digit identifier
// with the standard 80840 card-issuer prefix prepended.
func ValidNPI(raw string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) != 10 {
		return false
	}
	return Luhn("80840" + digits)
}

// JWTStructure verifies that a candidate decodes as three base64url
// segments with a JSON object header.
func JWTStructure(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return false
	}
	for i := 0; i < 2; i++ {
		b, err := base64.RawURLEncoding.DecodeString(parts[i])
		if err != nil || len(b) == 0 || b[0] != '{' {
			return false
		}
	}
	return len(parts[2]) > 0
}

// entropy accepts a string as a possible secret only if its Shannon entropy
// clears the threshold, it is long enough, and the character set mixes at
// least two classes. It never auto-confirms; acceptance only promotes the
// candidate for low-confidence downstream scoring.
func (s *Set) entropy(raw string) Result {
	if len(raw) < s.entropyMinLen {
		return ResultRejected
	}
	if Shannon(raw) < s.entropyThreshold {
		return ResultRejected
	}
	if charClasses(raw) < 2 {
		return ResultRejected
	}
	return ResultAccepted
}

// Shannon computes Shannon entropy in bits per character.
func Shannon(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

func charClasses(s string) int {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	n := 0
	for _, b := range []bool{upper, lower, digit, symbol} {
		if b {
			n++
		}
	}
	return n
}
