// Package argscan classifies command-line tokens one position at a time.
//
// Unlike a conventional flag parser it never owns the scan: each call reports
// how the token at one index could be read, and short options without an
// inline value come back with BOTH a flag and a value interpretation. The
// caller commits to one against its own option registry, which lets unknown
// option-looking tokens be treated as plain values instead of errors.
package argscan

import "strings"

// Kind is the coarse classification of a token.
type Kind int

const (
	// Value is a plain argument, including "-" and the empty string.
	Value Kind = iota
	// Option is an option name, possibly with a candidate value.
	Option
	// Separator is the literal "--".
	Separator
)

// Result describes the possible readings of one token.
//
// FlagAdvance is the number of tokens consumed when the option is read as a
// bare flag; it is zero when the token carries an inline value and cannot be
// a flag. ValueAdvance is the number consumed when it is read as a
// value-taking option; it is zero when no value is available.
type Result struct {
	Kind         Kind
	Name         string
	FlagAdvance  int
	Value        string
	ValueAdvance int
}

// HasValue reports whether a value interpretation exists. The value itself
// may be empty: "--opt=" and an empty follower token both count.
func (r Result) HasValue() bool { return r.ValueAdvance > 0 }

// looksLikeValue reports whether a token can serve as an option's argument
// rather than being an option itself.
func looksLikeValue(tok string) bool {
	return tok == "-" || tok == "" || tok[0] != '-'
}

// At classifies the token at index, peeking at the following token for a
// candidate value where the shape allows one.
func At(tokens []string, index int) Result {
	tok := tokens[index]
	switch {
	case looksLikeValue(tok):
		return Result{Kind: Value, Value: tok, ValueAdvance: 1}

	case tok == "--":
		return Result{Kind: Separator, FlagAdvance: 1}

	case strings.HasPrefix(tok, "--"):
		if p := strings.Index(tok, "="); p >= 0 {
			return Result{Kind: Option, Name: tok[:p], Value: tok[p+1:], ValueAdvance: 1}
		}
		r := Result{Kind: Option, Name: tok, FlagAdvance: 1}
		if index+1 < len(tokens) && looksLikeValue(tokens[index+1]) {
			r.Value = tokens[index+1]
			r.ValueAdvance = 2
		}
		return r

	default:
		// Short option. Anything glued to the letter is an inline value, "="
		// included: "-a=1" is the option "-a" with the value "=1".
		if len(tok) > 2 {
			return Result{Kind: Option, Name: tok[:2], Value: tok[2:], ValueAdvance: 1}
		}
		r := Result{Kind: Option, Name: tok, FlagAdvance: 1}
		if index+1 < len(tokens) && looksLikeValue(tokens[index+1]) {
			r.Value = tokens[index+1]
			r.ValueAdvance = 2
		}
		return r
	}
}
