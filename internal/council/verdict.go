package council

import "regexp"

// verdictPattern matches the five authoritative tokens a judge may emit,
// anywhere in its reply. It accepts both the Unicode "≫" (U+226B) and the
// ASCII ">>" digraph per §9's open question — the source was not uniform
// about which one judges actually produce.
var verdictPattern = regexp.MustCompile(`\[\[(A(?:≫|>>)B|A>B|A=B|B>A|B(?:≫|>>)A)\]\]`)

// tokenOutcome maps a matched token body to its Outcome.
var tokenOutcome = map[string]Outcome{
	"A≫B": OutcomeAStrongWinB,
	"A>>B": OutcomeAStrongWinB,
	"A>B": OutcomeAWinB,
	"A=B": OutcomeTie,
	"B>A": OutcomeBWinA,
	"B≫A": OutcomeBStrongWinA,
	"B>>A": OutcomeBStrongWinA,
}

// ParseVerdict finds every verdict token in reply and returns the one
// from the last occurrence — the rest of the reply (reasoning the judge
// wasn't asked for) is not authoritative. If no token is found, it
// reports unparseable.
func ParseVerdict(reply string) (outcome Outcome, parseable bool) {
	matches := verdictPattern.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return OutcomeUnparseable, false
	}
	last := matches[len(matches)-1][1]
	outcome, ok := tokenOutcome[last]
	if !ok {
		return OutcomeUnparseable, false
	}
	return outcome, true
}

// VerdictToken renders the canonical Unicode token for an outcome, for
// building example text in judge prompts.
func VerdictToken(o Outcome) string {
	switch o {
	case OutcomeAStrongWinB:
		return "[[A≫B]]"
	case OutcomeAWinB:
		return "[[A>B]]"
	case OutcomeTie:
		return "[[A=B]]"
	case OutcomeBWinA:
		return "[[B>A]]"
	case OutcomeBStrongWinA:
		return "[[B≫A]]"
	default:
		return ""
	}
}
