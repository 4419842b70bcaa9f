package validate

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhn(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"4111111111111111", true},
		{"4012888888881881", true},
		{"4012-8888-8888-1881", true},
		{"5555555555554444", true},
		{"4111111111111112", false},
		{"1234567890123456", false},
		{"411111", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Luhn(tt.value), "Luhn(%q)", tt.value)
	}
}

func TestValidSSN(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"123-45-6789", true},
		{"123 45 6789", true},
		{"123456789", true},
		{"000-12-3456", false},
		{"666-12-3456", false},
		{"900-12-3456", false},
		{"987-65-4320", false},
		{"123-00-6789", false},
		{"123-45-0000", false},
		{"12345", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidSSN(tt.value), "ValidSSN(%q)", tt.value)
	}
}

func TestValidNPI(t *testing.T) {
	// 1234567893 carries a correct check digit under the 80840 prefix.
	if !ValidNPI("1234567893") {
		t.Error("expected 1234567893 to validate")
	}
	if ValidNPI("1234567890") {
		t.Error("expected 1234567890 to fail the check digit")
	}
	if ValidNPI("12345") {
		t.Error("expected short input to fail")
	}
}

func jwtSegment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestJWTStructure(t *testing.T) {
	good := jwtSegment(`{"alg":"HS256","typ":"JWT"}`) + "." + jwtSegment(`{"sub":"1"}`) + ".sig-bytes"
	if !JWTStructure(good) {
		t.Error("well-formed token should validate")
	}
	if JWTStructure("one.two") {
		t.Error("two segments should fail")
	}
	if JWTStructure(jwtSegment("not json") + "." + jwtSegment(`{"a":1}`) + ".sig") {
		t.Error("non-object header should fail")
	}
	if JWTStructure(good[:len(good)-len(".sig-bytes")] + ".") {
		t.Error("empty signature should fail")
	}
}

func TestEntropy(t *testing.T) {
	s := NewSet()

	if got := s.Apply("entropy", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdef"); got != ResultAccepted {
		t.Errorf("high-entropy mixed-case string: got %v", got)
	}
	if got := s.Apply("entropy", "aaaaaaaaaaaaaaaaaaaaaaaa"); got != ResultRejected {
		t.Errorf("repeated characters: got %v", got)
	}
	if got := s.Apply("entropy", "Ab1!"); got != ResultRejected {
		t.Errorf("short string: got %v", got)
	}
	// Entropy clears the bar but a single character class does not.
	if got := s.Apply("entropy", "abcdefghijklmnopqrstuvwxyz"); got != ResultRejected {
		t.Errorf("single-class string: got %v", got)
	}
}

func TestEntropyOptions(t *testing.T) {
	loose := NewSet(WithEntropyThreshold(4.0))
	v := "abcdefghij1234567890"
	if got := loose.Apply("entropy", v); got != ResultAccepted {
		t.Errorf("threshold 4.0 should accept %q, got %v", v, got)
	}
	if got := NewSet().Apply("entropy", v); got != ResultRejected {
		t.Errorf("default threshold should reject %q", v)
	}
	strict := NewSet(WithEntropyMinLen(40))
	if got := strict.Apply("entropy", "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdef"); got != ResultRejected {
		t.Error("min length 40 should reject a 32-char string")
	}
}

func TestApplyRouting(t *testing.T) {
	s := NewSet()
	if got := s.Apply("", "anything"); got != ResultUnknown {
		t.Errorf("empty ref: got %v", got)
	}
	if got := s.Apply("no_such_validator", "anything"); got != ResultUnknown {
		t.Errorf("unknown ref: got %v", got)
	}
	if got := s.Apply("luhn", "4111111111111111"); got != ResultAccepted {
		t.Errorf("luhn accept: got %v", got)
	}
	if got := s.Apply("ssn_range", "000-12-3456"); got != ResultRejected {
		t.Errorf("ssn reject: got %v", got)
	}
}

func TestShannon(t *testing.T) {
	if Shannon("") != 0 {
		t.Error("empty string should have zero entropy")
	}
	if Shannon("aaaa") != 0 {
		t.Error("uniform string should have zero entropy")
	}
	if got := Shannon("ab"); got != 1.0 {
		t.Errorf("two equiprobable symbols should yield 1 bit, got %f", got)
	}
}
