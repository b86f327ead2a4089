package text

import "strings"

// exceptions maps irregular inflected forms directly to their lemma.
// The dictionary is consulted before any suffix rule, so lookups here
// always win; within the dictionary each form has exactly one lemma.
var exceptions = map[string]string{
	// be / have / do
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be",
	"has": "have", "had": "have",
	"does": "do", "did": "do", "done": "do",
	// Common irregular verbs
	"went": "go", "gone": "go", "goes": "go",
	"said": "say", "says": "say",
	"made": "make", "got": "get", "gotten": "get",
	"took": "take", "taken": "take",
	"came": "come", "saw": "see", "seen": "see",
	"gave": "give", "given": "give",
	"found": "find", "thought": "think", "told": "tell",
	"felt": "feel", "kept": "keep", "left": "leave",
	"bought": "buy", "brought": "bring", "sold": "sell",
	"wrote": "write", "written": "write",
	"spoke": "speak", "spoken": "speak",
	"broke": "break", "broken": "break",
	"chose": "choose", "chosen": "choose",
	"ran": "run", "won": "win", "lost": "lose",
	// Irregular plurals
	"people": "person", "children": "child", "men": "man", "women": "woman",
	"feet": "foot", "teeth": "tooth", "mice": "mouse",
	// Irregular comparatives
	"better": "good", "best": "good", "worse": "bad", "worst": "bad",
}

// suffixRule rewrites a matching suffix to produce a lemma candidate.
// Rules are tried in order and the first applicable rule wins, which keeps
// the mapping deterministic.
type suffixRule struct {
	suffix  string
	replace string
	minStem int // minimum rune length of the remainder after stripping
}

var suffixRules = []suffixRule{
	{"ies", "y", 2},   // parties -> party
	{"sses", "ss", 2}, // classes -> class
	{"shes", "sh", 2}, // wishes -> wish
	{"ches", "ch", 2}, // watches -> watch
	{"xes", "x", 2},   // boxes -> box
	{"ying", "y", 2},  // trying -> try
	{"ing", "", 3},    // running -> runn -> run (doubling undone below)
	{"ied", "y", 2},   // tried -> try
	{"ed", "", 3},     // hated -> hat? no: length guard plus e-restore below
	{"s", "", 3},      // phones -> phone; "ss"/"us" endings excluded below
}

// Lemmatize maps an inflected lowercase token to a canonical root form.
// It tries the exception dictionary first, then the ordered suffix rules.
// Unknown forms are returned unchanged.
func Lemmatize(token string) string {
	if lemma, ok := exceptions[token]; ok {
		return lemma
	}

	for _, rule := range suffixRules {
		if !strings.HasSuffix(token, rule.suffix) {
			continue
		}
		stem := token[:len(token)-len(rule.suffix)] + rule.replace
		if len([]rune(stem)) < rule.minStem {
			continue
		}
		// Plural rule must not strip -ss or -us endings (class, virus)
		if rule.suffix == "s" && rule.replace == "" {
			if strings.HasSuffix(token, "ss") || strings.HasSuffix(token, "us") || strings.HasSuffix(token, "is") {
				continue
			}
		}
		if rule.suffix == "ing" || rule.suffix == "ed" {
			// A doubled consonant signals the e was never there (sitting -> sit),
			// so restoration only applies when no undoubling happened.
			if undoubled := undouble(stem); undoubled != stem {
				stem = undoubled
			} else {
				stem = restoreE(stem)
			}
		}
		return stem
	}

	return token
}

// undouble collapses a doubled final consonant left by -ing/-ed stripping
// (running -> runn -> run). Doubled l/s/z are kept (telling -> tell).
func undouble(stem string) string {
	r := []rune(stem)
	n := len(r)
	if n < 3 || r[n-1] != r[n-2] {
		return stem
	}
	switch r[n-1] {
	case 'l', 's', 'z':
		return stem
	}
	if isVowel(r[n-1]) {
		return stem
	}
	return string(r[:n-1])
}

// restoreE re-appends a dropped final e after -ing/-ed stripping when the
// stem ends in a consonant-vowel-consonant pattern typical of e-final verbs
// (making -> mak -> make). Stems already ending in e or a vowel pass through.
func restoreE(stem string) string {
	r := []rune(stem)
	n := len(r)
	if n < 2 {
		return stem
	}
	last := r[n-1]
	if isVowel(last) {
		return stem
	}
	// hat -> hate style restoration only for single-vowel short stems
	if n >= 3 && !isVowel(r[n-2]) {
		return stem
	}
	switch last {
	case 'c', 'g', 'k', 's', 't', 'v', 'z':
		if n == 3 && isVowel(r[1]) && !isVowel(r[0]) {
			return stem + "e"
		}
	}
	return stem
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
