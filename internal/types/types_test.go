package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	order := []Severity{SevInfo, SevLow, SevMedium, SevHigh, SevCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if Severity("bogus").Rank() != -1 {
		t.Error("unknown severities rank below everything")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SevCritical},
		{"high", SevHigh},
		{"medium", SevMedium},
		{"low", SevLow},
		{"info", SevInfo},
		{"informational", SevInfo},
		{"", SevLow},
		{"garbage", SevLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in), "input %q", tt.in)
	}
}
