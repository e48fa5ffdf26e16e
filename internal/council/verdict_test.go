package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict_AllTokens(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		outcome Outcome
	}{
		{"unicode strong A", "Response A is much better.\n[[A≫B]]", OutcomeAStrongWinB},
		{"unicode strong B", "B wins clearly.\n[[B≫A]]", OutcomeBStrongWinA},
		{"ascii digraph strong A", "A is stronger overall.\n[[A>>B]]", OutcomeAStrongWinB},
		{"ascii digraph strong B", "B edges out A by a lot.\n[[B>>A]]", OutcomeBStrongWinA},
		{"slight A", "A is slightly better.\n[[A>B]]", OutcomeAWinB},
		{"slight B", "B is slightly better.\n[[B>A]]", OutcomeBWinA},
		{"tie", "Both are equally good.\n[[A=B]]", OutcomeTie},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, parseable := ParseVerdict(tc.reply)
			assert.True(t, parseable)
			assert.Equal(t, tc.outcome, outcome)
		})
	}
}

func TestParseVerdict_NoToken(t *testing.T) {
	outcome, parseable := ParseVerdict("I'm not sure which is better.")
	assert.False(t, parseable)
	assert.Equal(t, OutcomeUnparseable, outcome)
}

func TestParseVerdict_LastOccurrenceWins(t *testing.T) {
	reply := "First I thought [[A>B]] but on reflection [[B≫A]]"
	outcome, parseable := ParseVerdict(reply)
	assert.True(t, parseable)
	assert.Equal(t, OutcomeBStrongWinA, outcome)
}

func TestOutcomeMargin(t *testing.T) {
	assert.Equal(t, 2, OutcomeAStrongWinB.Margin())
	assert.Equal(t, 1, OutcomeAWinB.Margin())
	assert.Equal(t, 0, OutcomeTie.Margin())
	assert.Equal(t, -1, OutcomeBWinA.Margin())
	assert.Equal(t, -2, OutcomeBStrongWinA.Margin())
}
