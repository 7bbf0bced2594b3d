package patterns

import "strings"

// quickCheckKeywords is the literal pre-filter list. Kept deliberately broad:
// every alternation branch of every registered signature must contain at least
// one of these literals, so skipping the regex bank on a gate miss can never
// hide a match the bank would have found. The gate coverage tests in
// registry_test.go enforce this per branch.
var quickCheckKeywords = []string{
	// override / compliance verbs
	"ignore",
	"disregard",
	"forget",
	"skip",
	"pretend",
	"obey",
	"comply",
	"follow",
	"simulate",
	// prompt structure nouns
	"role",
	"system",
	"prompt",
	"instruction",
	"directive",
	"rule",
	"guideline",
	"safety",
	// privilege escalation
	"admin",
	"root",
	"sudo",
	"superuser",
	"developer",
	"debug",
	"god",
	"creator",
	"engineer",
	"operator",
	"grant",
	"give",
	"enable",
	"unlock",
	// constraint removal
	"bypass",
	"override",
	"remove",
	"lift",
	"disabl",
	"restriction",
	"limitation",
	"filter",
	"safeguard",
	"guardrail",
	"censor",
	"unrestricted",
	"unfiltered",
	"jailbr",
	// encoding / smuggling
	"base64",
	"rot13",
	"rot 13",
	"rot-13",
	"decode",
	"decipher",
	"decrypt",
	"unscramble",
	"backward",
	"opposite",
	"reverse",
	// multi-turn setup
	"agree",
	"promis",
	"reveal",
	"said you would",
	// boundary fakery
	"end of",
	"act as",
	"you are",
	"no longer",
	"above",
	"---",
	"===",
	"___",
	"***",
}

// MaybeInjection is the quick-check gate: a cheap substring scan that decides
// whether the full regex bank needs to run at all. Returns true when the text
// contains any gate keyword, case-insensitively. Runs of whitespace are
// collapsed first so multi-word keywords line up with the \s+ separators the
// signatures accept. Pure function, no side effects; a false here means the
// bank is guaranteed not to match.
func MaybeInjection(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	for _, kw := range quickCheckKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
