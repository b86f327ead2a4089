package text

import "testing"

func TestLemmatize(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		// Exception dictionary
		{"went", "go"},
		{"is", "be"},
		{"made", "make"},
		{"people", "person"},
		{"children", "child"},
		{"better", "good"},
		{"worst", "bad"},
		// Plural suffixes
		{"phones", "phone"},
		{"cats", "cat"},
		{"parties", "party"},
		{"classes", "class"},
		{"watches", "watch"},
		{"wishes", "wish"},
		{"boxes", "box"},
		// -ss / -us / -is endings are not plurals
		{"class", "class"},
		{"virus", "virus"},
		{"crisis", "crisis"},
		// -ing with doubling undone
		{"running", "run"},
		{"getting", "get"},
		{"sitting", "sit"},
		// Doubled l is kept
		{"telling", "tell"},
		// -ing with e restored
		{"making", "make"},
		{"trying", "try"},
		// -ed forms
		{"tried", "try"},
		{"hated", "hate"},
		{"wanted", "want"},
		// Short tokens survive the stem-length guards
		{"its", "its"},
		{"as", "as"},
		// Unknown forms pass through
		{"android", "android"},
		{"ios", "ios"},
		{"love", "love"},
	}

	for _, tt := range tests {
		if got := Lemmatize(tt.token); got != tt.want {
			t.Errorf("Lemmatize(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestUndouble(t *testing.T) {
	tests := []struct {
		stem string
		want string
	}{
		{"runn", "run"},
		{"gett", "get"},
		{"tell", "tell"}, // l is kept
		{"miss", "miss"}, // s is kept
		{"buzz", "buzz"}, // z is kept
		{"run", "run"},   // nothing doubled
		{"aa", "aa"},     // too short
	}

	for _, tt := range tests {
		if got := undouble(tt.stem); got != tt.want {
			t.Errorf("undouble(%q) = %q, want %q", tt.stem, got, tt.want)
		}
	}
}

func TestRestoreE(t *testing.T) {
	tests := []struct {
		stem string
		want string
	}{
		{"mak", "make"},
		{"hat", "hate"},
		{"giv", "give"},
		{"try", "try"},   // y is not restorable
		{"want", "want"}, // two trailing consonants
		{"go", "go"},     // ends in vowel
	}

	for _, tt := range tests {
		if got := restoreE(tt.stem); got != tt.want {
			t.Errorf("restoreE(%q) = %q, want %q", tt.stem, got, tt.want)
		}
	}
}
