package replies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"no prefix", "Quick question about your CTO role", "Quick question about your CTO role"},
		{"reply prefix", "Re: Quick question", "Quick question"},
		{"forward prefix", "Fwd: Quick question", "Quick question"},
		{"short forward prefix", "FW: Quick question", "Quick question"},
		{"stacked prefixes", "Re: Fwd: Re: Quick question", "Quick question"},
		{"mixed case", "rE: Quick question", "Quick question"},
		{"surrounding whitespace", "  Re:  Quick question  ", "Quick question"},
		{"empty", "", ""},
		{"prefix only", "Re:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSubject(tt.subject))
		})
	}
}

func TestMatchesOutreach(t *testing.T) {
	sent := []string{"Quick question about your CTO role", "Scaling your platform team"}

	assert.True(t, MatchesOutreach("Re: Quick question about your CTO role", sent))
	assert.True(t, MatchesOutreach("RE: quick question about your cto role", sent))
	assert.True(t, MatchesOutreach("Scaling your platform team", sent))
	assert.False(t, MatchesOutreach("Unrelated newsletter", sent))
	assert.False(t, MatchesOutreach("", sent))
	assert.False(t, MatchesOutreach("Re:", sent))
	assert.False(t, MatchesOutreach("Re: Quick question", sent))
}

func TestMatchesOutreachNoSentSubjects(t *testing.T) {
	assert.False(t, MatchesOutreach("Re: Anything", nil))
}
