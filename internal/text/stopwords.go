package text

// stopWords contains English function words and high-frequency fillers that
// carry no stance signal in short social-media posts.
var stopWords = map[string]struct{}{
	// Pronouns
	"i": {}, "me": {}, "my": {}, "mine": {}, "we": {}, "us": {}, "our": {},
	"you": {}, "your": {}, "yours": {}, "he": {}, "him": {}, "his": {},
	"she": {}, "her": {}, "hers": {}, "it": {}, "its": {}, "they": {},
	"them": {}, "their": {}, "theirs": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "who": {}, "whom": {}, "which": {}, "what": {},
	// Articles and determiners
	"a": {}, "an": {}, "the": {}, "some": {}, "any": {}, "each": {},
	"every": {}, "both": {}, "few": {}, "more": {}, "most": {}, "other": {},
	"such": {}, "own": {}, "same": {},
	// Copulas and auxiliaries
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "do": {}, "does": {}, "did": {}, "doing": {},
	"have": {}, "has": {}, "had": {}, "having": {}, "will": {}, "would": {},
	"shall": {}, "should": {}, "can": {}, "could": {}, "may": {},
	"might": {}, "must": {},
	// Conjunctions
	"and": {}, "or": {}, "but": {}, "if": {}, "then": {}, "else": {},
	"because": {}, "while": {}, "although": {}, "though": {}, "so": {},
	"than": {}, "as": {},
	// Prepositions
	"of": {}, "in": {}, "on": {}, "at": {}, "by": {}, "for": {}, "with": {},
	"about": {}, "against": {}, "between": {}, "into": {}, "through": {},
	"during": {}, "before": {}, "after": {}, "above": {}, "below": {},
	"to": {}, "from": {}, "up": {}, "down": {}, "out": {}, "off": {},
	"over": {}, "under": {},
	// Adverbial fillers
	"again": {}, "further": {}, "once": {}, "here": {}, "there": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "no": {},
	"nor": {}, "not": {}, "only": {}, "too": {}, "very": {}, "just": {},
	"now": {},
}

// IsStopWord reports whether the lowercased token is in the built-in list
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
